// Package models contains the data structures used throughout wake-on-lan.
package models

// Config holds the complete configuration loaded from file and flags.
type Config struct {
	WOL    WOLConfig
	Listen ListenConfig
}
