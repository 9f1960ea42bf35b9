package service

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/go-workout-sync/internal/logger"
)

// tickerTrigger is the default [Trigger]: a plain time.Ticker loop. Platform
// shells can substitute their own implementation backed by the host OS's
// background-execution facility.
type tickerTrigger struct {
	interval time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewTickerTrigger creates a trigger that fires every interval. If interval
// is zero or negative it defaults to 5 minutes. The trigger is idle until
// Start is called.
func NewTickerTrigger(interval time.Duration) Trigger {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &tickerTrigger{interval: interval}
}

// Start implements [Trigger]. It launches a background goroutine that calls
// fn every interval. Calling Start while already started has no additional
// effect. The goroutine exits when ctx is cancelled or Stop is called.
func (t *tickerTrigger) Start(ctx context.Context, fn func(context.Context)) {
	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return
	}
	triggerCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.started = true
	t.wg.Add(1)
	t.mu.Unlock()

	go func() {
		defer t.wg.Done()
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		for {
			select {
			case <-triggerCtx.Done():
				return
			case <-ticker.C:
				fn(triggerCtx)
			}
		}
	}()
}

// Stop implements [Trigger]. It cancels the background goroutine's context
// and blocks until the goroutine has fully exited. Safe to call when the
// trigger is not running (no-op in that case).
func (t *tickerTrigger) Stop() {
	t.mu.Lock()
	cancel := t.cancel
	t.cancel = nil
	t.started = false
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	t.wg.Wait()
}

// scheduler invokes the orchestrator on every trigger wake. The single-flight
// guard inside the orchestrator makes an overlapping wake a cheap no-op.
type scheduler struct {
	orchestrator Orchestrator
	trigger      Trigger
	logger       *logger.Logger
}

func NewScheduler(orchestrator Orchestrator, trigger Trigger, log *logger.Logger) Scheduler {
	return &scheduler{
		orchestrator: orchestrator,
		trigger:      trigger,
		logger:       log,
	}
}

// StartBackgroundSync registers the periodic wake-up. Idempotent: starting
// twice has no additional effect.
func (s *scheduler) StartBackgroundSync(ctx context.Context) {
	s.trigger.Start(ctx, func(wakeCtx context.Context) {
		result := s.orchestrator.RunFullSync(wakeCtx)
		if result.Err != nil {
			s.logger.Warn().
				Err(result.Err).
				Str("func", "scheduler.StartBackgroundSync").
				Str("status", string(result.Status)).
				Msg("background sync run failed")
		}
	})
}

// StopBackgroundSync cancels the registration. Idempotent.
func (s *scheduler) StopBackgroundSync() {
	s.trigger.Stop()
}
