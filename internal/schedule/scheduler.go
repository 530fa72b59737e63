// Package schedule fires the daily rollover at local midnight.
package schedule

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kjelstad/chorebank/internal/repeat"
)

// Rollover is the batch pass the scheduler drives once per calendar day.
type Rollover interface {
	Rollover(now time.Time) error
}

// Scheduler runs the rollover once eagerly at start (covering boundaries
// missed while the process was down) and then at every local midnight.
type Scheduler struct {
	mu     sync.Mutex
	target Rollover
	logger *slog.Logger
	now    func() time.Time
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a rollover scheduler.
func New(target Rollover, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		target: target,
		logger: logger,
		now:    time.Now,
	}
}

// Start launches the scheduler loop. The initial pass runs before Start
// returns so callers can rely on the store being rolled for today.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	s.run()

	go func() {
		defer close(s.done)
		for {
			timer := time.NewTimer(s.untilNextMidnight())
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				s.run()
			}
		}
	}()
}

// Stop cancels the loop and waits for it to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) run() {
	now := s.now()
	if err := s.target.Rollover(now); err != nil {
		s.logger.Error("scheduled rollover failed", "error", err)
	}
}

// untilNextMidnight returns the duration to the next local-midnight boundary.
// A small slack past the boundary avoids firing a hair before midnight and
// rolling the wrong day.
func (s *Scheduler) untilNextMidnight() time.Duration {
	now := s.now()
	next := repeat.StartOfDay(now).AddDate(0, 0, 1)
	return next.Sub(now) + time.Second
}
