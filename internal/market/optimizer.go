// Package market executes the per-cycle market actions: energy grid sales,
// hydrogen sales and silo transfers, and CO2/commodity purchases.
package market

import (
	"context"
	"log/slog"

	"github.com/acasperw/energy-manager-game-automation-tools/internal/config"
	"github.com/acasperw/energy-manager-game-automation-tools/internal/game"
)

// EnergyTrader executes grid energy sales against the game.
type EnergyTrader interface {
	// SellGridLocal sells a grid's charge into its own demand zone.
	SellGridLocal(ctx context.Context, gridID string) error
	// SellGridTo transfers a grid's charge to a better-priced buyer grid.
	SellGridTo(ctx context.Context, gridID, buyerGridID string) error
}

// SaleAction is the outcome for one processed grid.
type SaleAction string

const (
	ActionSold    SaleAction = "sold"
	ActionKeep    SaleAction = "keep"
	ActionSkipped SaleAction = "skipped"
)

// GridSaleResult reports what happened to one seller grid.
type GridSaleResult struct {
	GridName          string
	Action            SaleAction
	SoldTo            string
	Sale              float64
	AdditionalProfit  float64
	HighUpcomingValue bool
}

// SalesSummary aggregates the grid sale pass.
type SalesSummary struct {
	ProcessedGrids int
	Results        []GridSaleResult
}

// TotalSales sums the sale values of grids that actually sold.
func (s SalesSummary) TotalSales() float64 {
	var total float64
	for _, r := range s.Results {
		if r.Action == ActionSold {
			total += r.Sale
		}
	}
	return total
}

// SellGridEnergy ranks buyer candidates once, then decides per seller grid
// whether to sell locally, sell to the best alternative, or hold. A failed
// sale skips only that grid.
func SellGridEnergy(ctx context.Context, trader EnergyTrader, snap *game.Snapshot, cfg *config.Config) SalesSummary {
	buyers := buyerCandidates(snap.Grids, cfg.Optimizer)

	var summary SalesSummary
	for _, grid := range snap.Grids {
		if !grid.HasStorageType(game.NonP2X) {
			continue
		}
		if grid.ChargePercentage <= cfg.Thresholds.StorageChargeMin {
			continue
		}

		result := processGrid(ctx, trader, grid, buyers, cfg.Optimizer)
		summary.Results = append(summary.Results, result)
		summary.ProcessedGrids++
	}
	return summary
}

// buyerCandidates filters grids eligible as alternative sale destinations:
// not low-demand and still near their historical price ceiling.
func buyerCandidates(grids []game.GridStorage, opt config.OptimizerConfig) []game.GridStorage {
	var out []game.GridStorage
	for _, g := range grids {
		if g.IsLowDemand {
			continue
		}
		if g.PctOfMaxPrice <= opt.PctOfMaxPriceMin {
			continue
		}
		out = append(out, g)
	}
	return out
}

func processGrid(ctx context.Context, trader EnergyTrader, grid game.GridStorage, buyers []game.GridStorage, opt config.OptimizerConfig) GridSaleResult {
	result := GridSaleResult{GridName: grid.GridName, Action: ActionKeep}

	// Upcoming-value guard: hold when the forecast beats every discounted
	// buyer price and the current price hasn't caught up yet.
	if grid.UpcomingMwhValue > 0 {
		var maxDiscounted float64
		for _, b := range buyers {
			if v := b.MwhValue * opt.UpcomingBuffer; v > maxDiscounted {
				maxDiscounted = v
			}
		}
		if grid.UpcomingMwhValue > maxDiscounted && grid.MwhValue < grid.UpcomingMwhValue {
			result.HighUpcomingValue = true
			return result
		}
	}

	currentValue := grid.MwhValue * grid.TotalCurrentCharge / 1000

	best, bestValue := bestAlternative(grid, buyers, opt)
	if best != nil && bestValue > currentValue*opt.ImprovementBar {
		if err := trader.SellGridTo(ctx, grid.GridID, best.GridID); err != nil {
			slog.Error("alternative sale failed", "grid", grid.GridName, "buyer", best.GridName, "error", err)
			result.Action = ActionSkipped
			return result
		}
		result.Action = ActionSold
		result.SoldTo = best.GridName
		result.Sale = bestValue
		result.AdditionalProfit = bestValue - currentValue
		return result
	}

	// Fall back to a local sale when the price holds up against the grid's
	// own rolling average.
	if grid.MwhValue >= rollingAverage(grid)*opt.AverageGuard {
		if err := trader.SellGridLocal(ctx, grid.GridID); err != nil {
			slog.Error("local sale failed", "grid", grid.GridName, "error", err)
			result.Action = ActionSkipped
			return result
		}
		result.Action = ActionSold
		result.SoldTo = grid.GridName
		result.Sale = currentValue
		return result
	}

	return result
}

// bestAlternative returns the buyer maximizing the fee-adjusted sale value,
// rejecting buyers priced under their own recent average.
func bestAlternative(seller game.GridStorage, buyers []game.GridStorage, opt config.OptimizerConfig) (*game.GridStorage, float64) {
	var best *game.GridStorage
	var bestValue float64

	for i := range buyers {
		b := buyers[i]
		if b.GridID == seller.GridID {
			continue
		}
		if b.MwhValue < rollingAverage(b)*opt.AverageGuard {
			continue
		}
		value := b.MwhValue * seller.TotalCurrentCharge * opt.TransferFee / 1000
		if value > bestValue {
			best = &buyers[i]
			bestValue = value
		}
	}
	return best, bestValue
}

// rollingAverage is the grid's recorded average price, falling back to the
// current price when no history exists.
func rollingAverage(g game.GridStorage) float64 {
	if g.AvgMwhValue > 0 {
		return g.AvgMwhValue
	}
	return g.MwhValue
}
