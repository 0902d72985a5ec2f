// Package broadcast sends prebuilt magic packets to a UDP broadcast address.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/lennyclaes/wake-on-lan/internal/models"
	"github.com/rs/zerolog"
)

// ErrInvalidBroadcastAddress is returned for targets that are not IPv4.
var ErrInvalidBroadcastAddress = errors.New("invalid broadcast address")

// SocketSetupError reports a socket that could not be opened or configured
// for broadcast.
type SocketSetupError struct {
	Address string
	Err     error
}

func (e *SocketSetupError) Error() string {
	return fmt.Sprintf("failed to set up UDP socket for %s: %v", e.Address, e.Err)
}

func (e *SocketSetupError) Unwrap() error { return e.Err }

// SendError reports a datagram that could not be transmitted.
type SendError struct {
	Address string
	Attempt int
	Err     error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("failed to broadcast wake to %s (attempt %d): %v", e.Address, e.Attempt, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// Service defines the interface for broadcast send sessions.
type Service interface {
	Broadcast(ctx context.Context, packet []byte, target models.Target, retries int) *models.SessionResult
}

// Socket is the part of a UDP socket used by a session.
type Socket interface {
	WriteTo(b []byte, addr net.Addr) (int, error)
	Close() error
}

// SocketFactory opens broadcast-enabled sockets.
type SocketFactory interface {
	Open(ctx context.Context) (Socket, error)
}

// DefaultSocketFactory opens IPv4 UDP sockets with SO_BROADCAST set.
type DefaultSocketFactory struct{}

// Open creates an unbound IPv4 UDP socket with broadcast enabled.
func (f *DefaultSocketFactory) Open(ctx context.Context) (Socket, error) {
	lc := net.ListenConfig{Control: enableBroadcast}
	conn, err := lc.ListenPacket(ctx, "udp4", ":0")
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Impl implements the broadcast Service interface.
type Impl struct {
	sockets  SocketFactory
	interval time.Duration
	logger   zerolog.Logger
}

// New creates a new broadcast service sending every interval.
func New(logger zerolog.Logger, interval time.Duration) *Impl {
	return NewWithSocketFactory(logger, &DefaultSocketFactory{}, interval)
}

// NewWithSocketFactory creates a new broadcast service with a custom socket factory (for testing).
func NewWithSocketFactory(logger zerolog.Logger, sockets SocketFactory, interval time.Duration) *Impl {
	if interval <= 0 {
		interval = models.DefaultInterval
	}
	return &Impl{
		sockets:  sockets,
		interval: interval,
		logger:   logger,
	}
}

// Broadcast sends packet to target retries times, one send per interval tick,
// then closes the socket. The first fatal error ends the session and is
// stored in the result.
func (s *Impl) Broadcast(ctx context.Context, packet []byte, target models.Target, retries int) *models.SessionResult {
	result := &models.SessionResult{Target: target}
	start := time.Now()
	defer func() { result.Duration = time.Since(start) }()

	if retries < 1 {
		retries = 1
	}
	if target.Port == 0 {
		target.Port = models.DefaultPort
		result.Target = target
	}

	ip := net.ParseIP(target.Address).To4()
	if ip == nil {
		result.Error = fmt.Errorf("%w: %q", ErrInvalidBroadcastAddress, target.Address)
		return result
	}
	addr := &net.UDPAddr{IP: ip, Port: target.Port}

	sock, err := s.sockets.Open(ctx)
	if err != nil {
		result.Error = &SocketSetupError{Address: target.Address, Err: err}
		return result
	}
	defer func() {
		if err := sock.Close(); err != nil {
			s.logger.Debug().Err(err).Str("target", target.String()).Msg("failed to close socket")
		}
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for result.Attempts < retries {
		select {
		case <-ctx.Done():
			result.Error = ctx.Err()
			return result
		case <-ticker.C:
		}

		attempt := result.Attempts + 1
		n, err := sock.WriteTo(packet, addr)
		if err == nil && n != len(packet) {
			err = fmt.Errorf("short write: sent %d of %d bytes", n, len(packet))
		}
		if err != nil {
			result.Error = &SendError{Address: target.Address, Attempt: attempt, Err: err}
			s.logger.Error().
				Err(err).
				Str("target", target.String()).
				Int("attempt", attempt).
				Msg("failed to send magic packet")
			return result
		}

		result.Attempts = attempt
		s.logger.Debug().
			Str("target", target.String()).
			Int("attempt", attempt).
			Int("retries", retries).
			Msg("magic packet sent")
	}

	result.Sent = true
	s.logger.Info().
		Str("target", target.String()).
		Str("interface", target.Interface).
		Int("attempts", result.Attempts).
		Msg("sent to target")

	return result
}
