// Package listener receives and decodes Wake-on-LAN magic packets.
package listener

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/lennyclaes/wake-on-lan/internal/models"
	"github.com/lennyclaes/wake-on-lan/internal/services/packet"
	"github.com/rs/zerolog"
	"gopkg.in/tomb.v2"
)

// DefaultAddress is used when no listen address is configured.
const DefaultAddress = ":9"

var errPacketFound = errors.New("packet found")

// Service defines the interface for listening to magic packets.
type Service interface {
	Listen(ctx context.Context, cfg models.ListenConfig, handle func(models.ReceivedPacket)) error
}

// ListenFunc opens a packet connection on address.
type ListenFunc func(ctx context.Context, address string) (net.PacketConn, error)

func defaultListen(ctx context.Context, address string) (net.PacketConn, error) {
	lc := &net.ListenConfig{}
	return lc.ListenPacket(ctx, "udp4", address)
}

// Impl implements the listener Service interface.
type Impl struct {
	listen ListenFunc
	logger zerolog.Logger
}

// New creates a new listener service.
func New(logger zerolog.Logger) *Impl {
	return NewWithListenFunc(logger, defaultListen)
}

// NewWithListenFunc creates a new listener service with a custom listen function (for testing).
func NewWithListenFunc(logger zerolog.Logger, listen ListenFunc) *Impl {
	return &Impl{
		listen: listen,
		logger: logger,
	}
}

// Listen reads datagrams on every configured address and calls handle for
// each magic packet. It returns nil when ctx is cancelled or, with cfg.Once,
// after the first reported packet.
func (s *Impl) Listen(ctx context.Context, cfg models.ListenConfig, handle func(models.ReceivedPacket)) error {
	var want net.HardwareAddr
	if cfg.MACAddress != "" {
		hw, err := packet.ParseMAC(cfg.MACAddress)
		if err != nil {
			return err
		}
		want = hw
	}

	addrs := cfg.Addresses
	if len(addrs) == 0 {
		addrs = []string{DefaultAddress}
	}

	t, tctx := tomb.WithContext(ctx)

	conns := make([]net.PacketConn, 0, len(addrs))
	for _, addr := range addrs {
		conn, err := s.listen(tctx, addr)
		if err != nil {
			for _, c := range conns {
				_ = c.Close()
			}
			return fmt.Errorf("failed to listen on %s: %w", addr, err)
		}
		conns = append(conns, conn)
		s.logger.Info().Str("address", conn.LocalAddr().String()).Msg("listening for magic packets")
	}

	for _, conn := range conns {
		t.Go(func() error {
			return s.read(t, conn, want, cfg.Once, handle)
		})
	}
	t.Go(func() error {
		<-t.Dying()
		for _, c := range conns {
			_ = c.Close()
		}
		return nil
	})

	err := t.Wait()
	if errors.Is(err, errPacketFound) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func (s *Impl) read(t *tomb.Tomb, conn net.PacketConn, want net.HardwareAddr, once bool, handle func(models.ReceivedPacket)) error {
	local := conn.LocalAddr().String()
	buf := make([]byte, 1500)

	for {
		n, src, err := conn.ReadFrom(buf)
		if err != nil {
			if !t.Alive() {
				return nil
			}
			return fmt.Errorf("failed to read UDP message on %s: %w", local, err)
		}

		hw, err := packet.Decode(buf[:n])
		if err != nil {
			s.logger.Debug().Err(err).Str("source", src.String()).Int("size", n).Msg("ignoring datagram")
			continue
		}
		if want != nil && !strings.EqualFold(hw.String(), want.String()) {
			s.logger.Debug().Str("target", hw.String()).Msg("ignoring magic packet for other target")
			continue
		}

		handle(models.ReceivedPacket{
			Target:     hw.String(),
			Source:     src.String(),
			Local:      local,
			Size:       n,
			ReceivedAt: time.Now(),
		})

		if once {
			return errPacketFound
		}
	}
}
