package engine

import (
	"time"

	"github.com/acasperw/energy-manager-game-automation-tools/internal/config"
	"github.com/acasperw/energy-manager-game-automation-tools/internal/game"
)

// Clock abstracts time and deferred execution so the rerun scheduler can be
// tested with a manual clock. The core never sleeps synchronously for long
// delays.
type Clock interface {
	Now() time.Time
	ScheduleAt(t time.Time, fn func())
}

// RealClock is the production Clock backed by the runtime timer.
type RealClock struct{}

// Now returns the current wall time.
func (RealClock) Now() time.Time { return time.Now() }

// ScheduleAt runs fn once when t arrives; a past t runs it immediately.
func (RealClock) ScheduleAt(t time.Time, fn func()) {
	d := time.Until(t)
	if d < 0 {
		d = 0
	}
	time.AfterFunc(d, fn)
}

// Rerun is a scheduled early cycle.
type Rerun struct {
	At     time.Time
	Reason string
	// Hydrogen marks silo follow-ups, which are capped at one consecutive
	// rerun to prevent infinite re-triggering.
	Hydrogen bool
}

// NextRerun decides whether the next cycle should run early: at the nearest
// vessel arrival inside the horizon, or shortly after a hydrogen silo sale
// or transfer. Pure apart from the passed-in now.
func NextRerun(now time.Time, snap *game.Snapshot, results *CycleResults, hydrogenReruns int, cfg config.SchedulerConfig) (Rerun, bool) {
	// Vessel arrivals take priority: a vessel reaching port is immediately
	// actionable.
	var nearest *time.Time
	for _, v := range snap.Vessels {
		at := v.ArrivalTime
		if at == nil || at.Before(now) || at.Sub(now) > cfg.VesselRerunHorizon {
			continue
		}
		if nearest == nil || at.Before(*nearest) {
			nearest = at
		}
	}
	if nearest != nil {
		return Rerun{At: *nearest, Reason: "vessel arrival"}, true
	}

	if (results.HydrogenSales.IncludingSilo || results.StoredHydrogen) && hydrogenReruns < cfg.MaxHydrogenReruns {
		return Rerun{
			At:       now.Add(cfg.HydrogenRerunDelay),
			Reason:   "hydrogen silo activity",
			Hydrogen: true,
		}, true
	}

	return Rerun{}, false
}
