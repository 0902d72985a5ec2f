package models

import "time"

// ListenConfig holds magic packet listener configuration.
type ListenConfig struct {
	Addresses  []string // UDP listen addresses, e.g. ":9"
	MACAddress string   // only report packets for this target when set
	Once       bool     // stop after the first reported packet
}

// ReceivedPacket is a decoded magic packet seen by the listener.
type ReceivedPacket struct {
	Target     string // MAC address carried in the packet
	Source     string
	Local      string
	Size       int
	ReceivedAt time.Time
}
