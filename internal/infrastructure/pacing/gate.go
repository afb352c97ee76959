// Package pacing spaces out calls to a remote system that enforces a single
// combined rate limit across all of its methods.
package pacing

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultInterval is used when a non-positive interval is configured.
const DefaultInterval = 2 * time.Second

// Clock abstracts time so the gate can be driven deterministically in tests.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, returning ctx.Err() in the latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RealClock returns the wall clock.
func RealClock() Clock { return realClock{} }

// errReservation is returned when the limiter refuses a single-token reservation.
var errReservation = errors.New("pacing: reservation not allowed")

// Gate enforces a minimum interval between consecutive acquisitions using a
// token bucket of one token refilled once per interval. A caller holds the
// single slot while it waits, so nobody can slip in between; ordering among
// waiters is not guaranteed.
type Gate struct {
	interval time.Duration
	clock    Clock
	logger   *zap.Logger
	limiter  *rate.Limiter

	slot chan struct{}

	mu   sync.Mutex
	last time.Time

	// observe, when set, sees every acquisition time while the slot is held
	observe func(time.Time)
}

// NewGate creates a gate using the wall clock.
func NewGate(interval time.Duration, logger *zap.Logger) *Gate {
	return NewGateWithClock(interval, RealClock(), logger)
}

// NewGateWithClock creates a gate with an explicit clock.
func NewGateWithClock(interval time.Duration, clock Clock, logger *zap.Logger) *Gate {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if clock == nil {
		clock = RealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{
		interval: interval,
		clock:    clock,
		logger:   logger,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		slot:     make(chan struct{}, 1),
	}
}

// Interval returns the configured minimum interval.
func (g *Gate) Interval() time.Duration {
	return g.interval
}

// Acquire blocks until at least the configured interval has elapsed since the
// previous successful acquisition. If ctx is done first, ctx.Err() is returned,
// the reserved token goes back to the bucket and the previous timestamp is
// left untouched.
func (g *Gate) Acquire(ctx context.Context) error {
	select {
	case g.slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-g.slot }()

	now := g.clock.Now()
	r := g.limiter.ReserveN(now, 1)
	if !r.OK() {
		return errReservation
	}
	if wait := r.DelayFrom(now); wait > 0 {
		g.logger.Debug("Pacing remote call", zap.Duration("wait", wait))
		if err := g.clock.Sleep(ctx, wait); err != nil {
			r.CancelAt(g.clock.Now())
			return err
		}
	}

	now = g.clock.Now()
	g.mu.Lock()
	g.last = now
	g.mu.Unlock()
	if g.observe != nil {
		g.observe(now)
	}
	return nil
}

// LastAcquired returns the time of the most recent successful acquisition.
func (g *Gate) LastAcquired() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}
