package models

import (
	"net"
	"strconv"
	"time"
)

// Defaults for a wake request.
const (
	DefaultRetries  = 1
	DefaultPort     = 9 // discard
	DefaultInterval = 350 * time.Millisecond
)

// WOLConfig holds a Wake-on-LAN request.
type WOLConfig struct {
	MACAddress  string
	BroadcastIP string        // empty means every discovered broadcast address
	Retries     int           // how many times the packet is sent per target
	Interval    time.Duration // spacing between sends
	Port        int
}

// Target is a broadcast destination for one send session.
type Target struct {
	Interface string // set when discovered, empty when user supplied
	Address   string
	Port      int
}

// String returns the target as host:port.
func (t Target) String() string {
	return net.JoinHostPort(t.Address, strconv.Itoa(t.Port))
}

// SessionResult holds the outcome of one send session.
type SessionResult struct {
	Target   Target
	Attempts int // datagrams sent successfully
	Sent     bool
	Duration time.Duration
	Error    error
}

// NetworkInterface is a local interface with an IPv4 broadcast address.
type NetworkInterface struct {
	Name      string
	IP        string
	Broadcast string
}
