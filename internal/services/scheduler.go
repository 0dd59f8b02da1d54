package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Evictor drops sessions that have been idle longer than the given TTL and
// reports how many it removed.
type Evictor interface {
	EvictIdle(idle time.Duration) int
}

// Settings reports the current sweep interval and idle TTL. It is read
// before every sweep, so edits to a live configuration take effect on the
// next tick.
type Settings func() (interval, ttl time.Duration)

// Fixed returns Settings that never change.
func Fixed(interval, ttl time.Duration) Settings {
	return func() (time.Duration, time.Duration) { return interval, ttl }
}

// Sweeper periodically evicts idle assessment sessions.
type Sweeper struct {
	log      *zap.Logger
	store    Evictor
	settings Settings

	wg sync.WaitGroup
}

func NewSweeper(log *zap.Logger, store Evictor, settings Settings) *Sweeper {
	return &Sweeper{
		log:      log,
		store:    store,
		settings: settings,
	}
}

// Start runs the sweeper in a goroutine until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	interval, ttl := s.settings()
	s.log.Info("Starting session sweeper...",
		zap.Duration("interval", interval),
		zap.Duration("ttl", ttl))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.log.Info("Session sweeper stopped")
				return
			case <-ticker.C:
				next := s.runSweep()
				if next != interval {
					s.log.Info("Sweep interval changed", zap.Duration("interval", next))
					interval = next
					ticker.Reset(interval)
				}
			}
		}
	}()
}

// Wait blocks until the sweeper goroutine has exited.
func (s *Sweeper) Wait() {
	s.wg.Wait()
}

// runSweep evicts with the current TTL and returns the interval to wait
// before the next sweep.
func (s *Sweeper) runSweep() time.Duration {
	interval, ttl := s.settings()
	if n := s.store.EvictIdle(ttl); n > 0 {
		s.log.Info("Evicted idle sessions", zap.Int("count", n), zap.Duration("ttl", ttl))
	} else {
		s.log.Debug("Sweep found no idle sessions")
	}
	return interval
}
