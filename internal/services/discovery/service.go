// Package discovery finds the IPv4 broadcast addresses of local networks.
package discovery

import (
	"context"
	"fmt"
	"net"

	"github.com/lennyclaes/wake-on-lan/internal/models"
	"github.com/rs/zerolog"
)

// Service defines the interface for broadcast address discovery.
type Service interface {
	BroadcastAddresses(ctx context.Context) ([]models.NetworkInterface, error)
}

// Interface is a local network interface and its addresses.
type Interface struct {
	Name  string
	Flags net.Flags
	Addrs []net.Addr
	Err   error // set when the addresses could not be read
}

// InterfaceLister lists local interfaces for mocking.
type InterfaceLister interface {
	Interfaces() ([]Interface, error)
}

// DefaultInterfaceLister reads interfaces from the operating system.
type DefaultInterfaceLister struct{}

// Interfaces returns every system interface with its addresses.
func (l *DefaultInterfaceLister) Interfaces() ([]Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	out := make([]Interface, 0, len(ifaces))
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		out = append(out, Interface{
			Name:  iface.Name,
			Flags: iface.Flags,
			Addrs: addrs,
			Err:   err,
		})
	}
	return out, nil
}

// Impl implements the discovery Service interface.
type Impl struct {
	lister InterfaceLister
	logger zerolog.Logger
}

// New creates a new discovery service.
func New(logger zerolog.Logger) *Impl {
	return NewWithLister(logger, &DefaultInterfaceLister{})
}

// NewWithLister creates a new discovery service with a custom lister (for testing).
func NewWithLister(logger zerolog.Logger, lister InterfaceLister) *Impl {
	return &Impl{
		lister: lister,
		logger: logger,
	}
}

// BroadcastAddresses returns one entry per distinct IPv4 broadcast address on
// interfaces that are up, not loopback and broadcast capable.
func (s *Impl) BroadcastAddresses(ctx context.Context) ([]models.NetworkInterface, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ifaces, err := s.lister.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list network interfaces: %w", err)
	}

	var result []models.NetworkInterface
	seen := make(map[string]bool)

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagBroadcast == 0 {
			continue
		}
		if iface.Err != nil {
			s.logger.Debug().Err(iface.Err).Str("interface", iface.Name).Msg("skipping interface")
			continue
		}

		for _, addr := range iface.Addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}

			bcast := BroadcastAddr(ipNet)
			if bcast == nil || seen[bcast.String()] {
				continue
			}
			seen[bcast.String()] = true

			result = append(result, models.NetworkInterface{
				Name:      iface.Name,
				IP:        ipNet.IP.String(),
				Broadcast: bcast.String(),
			})
		}
	}

	s.logger.Debug().Int("count", len(result)).Msg("discovered broadcast addresses")

	return result, nil
}

// BroadcastAddr computes the broadcast address of an IPv4 network. It
// returns nil for IPv6 networks.
func BroadcastAddr(ipNet *net.IPNet) net.IP {
	ip := ipNet.IP.To4()
	if ip == nil {
		return nil
	}
	mask := ipNet.Mask
	if len(mask) == net.IPv6len {
		mask = mask[12:]
	}
	if len(mask) != net.IPv4len {
		return nil
	}
	broadcast := make(net.IP, net.IPv4len)
	for i := range ip {
		broadcast[i] = ip[i] | ^mask[i]
	}
	return broadcast
}
