package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/acasperw/energy-manager-game-automation-tools/internal/config"
	"github.com/acasperw/energy-manager-game-automation-tools/internal/game"
)

// Collector assembles a fresh snapshot from the live game.
type Collector interface {
	CollectSnapshot(ctx context.Context) (*game.Snapshot, error)
}

// Runner drives whole cycles: collect → decide → execute → schedule rerun.
// A cycle already in flight suppresses any newly triggered start, and a
// whole-cycle failure retries a bounded number of times with a cool-down.
type Runner struct {
	collector Collector
	orch      *Orchestrator
	cfg       *config.Config
	clock     Clock

	// sleep is injected so tests can use a zero-delay clock.
	sleep func(time.Duration)

	inFlight atomic.Bool
}

// NewRunner creates a cycle runner with the real clock.
func NewRunner(collector Collector, orch *Orchestrator, cfg *config.Config) *Runner {
	return &Runner{
		collector: collector,
		orch:      orch,
		cfg:       cfg,
		clock:     RealClock{},
		sleep:     time.Sleep,
	}
}

// WithClock swaps the clock and sleep function; used by tests.
func (r *Runner) WithClock(clock Clock, sleep func(time.Duration)) *Runner {
	r.clock = clock
	r.sleep = sleep
	return r
}

// RunCycle executes one full cycle. Redundant triggers while a cycle is in
// flight are dropped. The error reports retry exhaustion; the process is
// expected to keep running and wait for the next scheduled cycle.
func (r *Runner) RunCycle(ctx context.Context) error {
	return r.runCycle(ctx, 0)
}

func (r *Runner) runCycle(ctx context.Context, hydrogenReruns int) error {
	if !r.inFlight.CompareAndSwap(false, true) {
		slog.Warn("cycle already in flight, trigger suppressed")
		return nil
	}
	defer r.inFlight.Store(false)

	var lastErr error
	for attempt := 1; attempt <= r.cfg.Scheduler.RetryAttempts; attempt++ {
		lastErr = r.attemptCycle(ctx, hydrogenReruns)
		if lastErr == nil {
			return nil
		}
		slog.Error("cycle attempt failed", "attempt", attempt, "error", lastErr)
		if attempt < r.cfg.Scheduler.RetryAttempts {
			r.sleep(r.cfg.Scheduler.RetryCooldown)
		}
	}
	return fmt.Errorf("cycle failed after %d attempts: %w", r.cfg.Scheduler.RetryAttempts, lastErr)
}

func (r *Runner) attemptCycle(ctx context.Context, hydrogenReruns int) error {
	start := r.clock.Now()

	snap, err := r.collector.CollectSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("collect snapshot: %w", err)
	}

	decisions := Decide(snap, r.cfg)
	results := r.orch.Execute(ctx, snap, decisions)

	if rerun, ok := NextRerun(r.clock.Now(), snap, results, hydrogenReruns, r.cfg.Scheduler); ok {
		nextCount := 0
		if rerun.Hydrogen {
			nextCount = hydrogenReruns + 1
		}
		slog.Info("scheduling early rerun", "at", rerun.At, "reason", rerun.Reason)
		r.clock.ScheduleAt(rerun.At, func() {
			if err := r.runCycle(context.Background(), nextCount); err != nil {
				slog.Error("scheduled rerun failed", "reason", rerun.Reason, "error", err)
			}
		})
	}

	slog.Info("cycle complete", "duration", r.clock.Now().Sub(start))
	return nil
}
