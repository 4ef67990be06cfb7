// Package research picks which affordable research items to fund under the
// station and budget caps. Selection is a greedy walk over a priority
// ordering, not an optimal knapsack; the simplification is deliberate.
package research

import (
	"context"
	"log/slog"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/acasperw/energy-manager-game-automation-tools/internal/config"
	"github.com/acasperw/energy-manager-game-automation-tools/internal/game"
)

// Submitter starts one research item.
type Submitter interface {
	StartResearch(ctx context.Context, id int) error
}

// Rule assigns candidates matching its predicate to a priority group; lower
// group numbers fund first. Rules evaluate top-down, first match wins, so
// new groups are additive.
type Rule struct {
	Group   int
	Matches func(r game.ResearchInfo, snap *game.Snapshot) bool
}

const defaultGroup = 4

// Rules builds the priority table from configuration.
func Rules(cfg config.ResearchConfig) []Rule {
	return []Rule{
		{Group: 1, Matches: func(r game.ResearchInfo, _ *game.Snapshot) bool {
			return containsID(cfg.FixedFirstIDs, r.ID)
		}},
		{Group: 2, Matches: func(r game.ResearchInfo, snap *game.Snapshot) bool {
			return len(snap.Vessels) > 0 && containsID(cfg.VesselIDs, r.ID)
		}},
		{Group: 3, Matches: func(r game.ResearchInfo, snap *game.Snapshot) bool {
			return ownsFossilPlants(snap) && containsID(cfg.OilIDs, r.ID)
		}},
		{Group: 5, Matches: func(r game.ResearchInfo, _ *game.Snapshot) bool {
			return containsID(cfg.StockIDs, r.ID)
		}},
	}
}

// Select returns the research items to fund, in funding order. The summed
// price never exceeds userMoney × budget pct and the count never exceeds the
// available stations.
func Select(snap *game.Snapshot, cfg config.ResearchConfig) []game.ResearchInfo {
	budget := snap.UserMoney * cfg.BudgetPct
	rules := Rules(cfg)

	var affordable []game.ResearchInfo
	for _, r := range snap.Research.Candidates {
		if r.Price <= budget {
			affordable = append(affordable, r)
		}
	}

	groupOf := func(r game.ResearchInfo) int {
		for _, rule := range rules {
			if rule.Matches(r, snap) {
				return rule.Group
			}
		}
		return defaultGroup
	}

	sort.SliceStable(affordable, func(i, j int) bool {
		return groupOf(affordable[i]) < groupOf(affordable[j])
	})

	var selected []game.ResearchInfo
	remaining := budget
	for _, r := range affordable {
		if len(selected) >= snap.Research.AvailableStations {
			break
		}
		if r.Price > remaining {
			continue
		}
		selected = append(selected, r)
		remaining -= r.Price
	}
	return selected
}

// Perform selects and submits research items. Submissions run concurrently
// in a bounded group; one failure never blocks the others. Returns the
// number of successful starts.
func Perform(ctx context.Context, submitter Submitter, snap *game.Snapshot, cfg config.ResearchConfig) int {
	selected := Select(snap, cfg)
	if len(selected) == 0 {
		return 0
	}

	limit := cfg.MaxConcurrent
	if limit <= 0 {
		limit = 1
	}

	var started atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, r := range selected {
		g.Go(func() error {
			if err := submitter.StartResearch(ctx, r.ID); err != nil {
				slog.Warn("research start failed", "id", r.ID, "error", err)
				return nil // failures are counted by omission, never propagated
			}
			started.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	return int(started.Load())
}

func containsID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func ownsFossilPlants(snap *game.Snapshot) bool {
	for _, p := range snap.Plants {
		if p.Type == game.PlantFossil {
			return true
		}
	}
	return false
}
