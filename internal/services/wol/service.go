// Package wol provides Wake-on-LAN operations.
package wol

import (
	"context"
	"fmt"
	"sync"

	"github.com/lennyclaes/wake-on-lan/internal/models"
	"github.com/lennyclaes/wake-on-lan/internal/services/broadcast"
	"github.com/lennyclaes/wake-on-lan/internal/services/discovery"
	"github.com/lennyclaes/wake-on-lan/internal/services/packet"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Service defines the interface for Wake-on-LAN operations.
type Service interface {
	Wake(ctx context.Context, cfg models.WOLConfig) (*Dispatch, error)
}

// Impl implements the WOL Service interface.
type Impl struct {
	newSender func(cfg models.WOLConfig) broadcast.Service
	discovery discovery.Service
	logger    zerolog.Logger
}

// New creates a new WOL service.
func New(logger zerolog.Logger) *Impl {
	return &Impl{
		newSender: func(cfg models.WOLConfig) broadcast.Service {
			return broadcast.New(logger, cfg.Interval)
		},
		discovery: discovery.New(logger),
		logger:    logger,
	}
}

// NewWithServices creates a new WOL service with custom services (for testing).
func NewWithServices(logger zerolog.Logger, sender broadcast.Service, discoverySvc discovery.Service) *Impl {
	return &Impl{
		newSender: func(models.WOLConfig) broadcast.Service { return sender },
		discovery: discoverySvc,
		logger:    logger,
	}
}

// Wake builds the magic packet for cfg.MACAddress and starts one send
// session per target without waiting for them. An invalid MAC address is
// returned before any socket is opened. When cfg.BroadcastIP is empty the
// targets are discovered asynchronously.
func (s *Impl) Wake(ctx context.Context, cfg models.WOLConfig) (*Dispatch, error) {
	magic, err := packet.Build(cfg.MACAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to broadcast wake: %w", err)
	}

	if cfg.Retries < 1 {
		cfg.Retries = models.DefaultRetries
	}
	if cfg.Port == 0 {
		cfg.Port = models.DefaultPort
	}
	if cfg.Interval <= 0 {
		cfg.Interval = models.DefaultInterval
	}

	sender := s.newSender(cfg)
	d := newDispatch()

	start := func(target models.Target) {
		d.g.Go(func() error {
			d.add(*sender.Broadcast(ctx, magic, target, cfg.Retries))
			return nil
		})
	}

	if cfg.BroadcastIP != "" {
		s.logger.Info().
			Str("mac", cfg.MACAddress).
			Str("broadcast", cfg.BroadcastIP).
			Int("retries", cfg.Retries).
			Msg("sending WOL packet")

		start(models.Target{Address: cfg.BroadcastIP, Port: cfg.Port})
	} else {
		s.logger.Info().
			Str("mac", cfg.MACAddress).
			Int("retries", cfg.Retries).
			Msg("sending WOL packet to all local broadcast addresses")

		d.g.Go(func() error {
			ifaces, err := s.discovery.BroadcastAddresses(ctx)
			if err != nil {
				s.logger.Error().Err(err).Msg("broadcast address discovery failed")
				return fmt.Errorf("failed to discover broadcast addresses: %w", err)
			}
			if len(ifaces) == 0 {
				s.logger.Warn().Msg("no broadcast addresses found")
			}
			for _, iface := range ifaces {
				start(models.Target{Interface: iface.Name, Address: iface.Broadcast, Port: cfg.Port})
			}
			return nil
		})
	}

	go d.finish()

	return d, nil
}

// Dispatch tracks the send sessions started by one Wake call. Callers may
// ignore it; sessions run to completion either way.
type Dispatch struct {
	g    errgroup.Group
	mu   sync.Mutex
	res  []models.SessionResult
	err  error
	done chan struct{}
}

func newDispatch() *Dispatch {
	return &Dispatch{done: make(chan struct{})}
}

func (d *Dispatch) add(r models.SessionResult) {
	d.mu.Lock()
	d.res = append(d.res, r)
	d.mu.Unlock()
}

func (d *Dispatch) finish() {
	err := d.g.Wait()
	d.mu.Lock()
	d.err = err
	d.mu.Unlock()
	close(d.done)
}

// Done is closed once every session has finished.
func (d *Dispatch) Done() <-chan struct{} {
	return d.done
}

// Wait blocks until every session has finished and returns their results in
// completion order. The error is non-nil only when discovery failed; session
// failures are reported in each result.
func (d *Dispatch) Wait() ([]models.SessionResult, error) {
	<-d.done
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]models.SessionResult, len(d.res))
	copy(out, d.res)
	return out, d.err
}
