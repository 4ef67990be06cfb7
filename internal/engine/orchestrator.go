package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/acasperw/energy-manager-game-automation-tools/internal/config"
	"github.com/acasperw/energy-manager-game-automation-tools/internal/game"
	"github.com/acasperw/energy-manager-game-automation-tools/internal/market"
	"github.com/acasperw/energy-manager-game-automation-tools/internal/plants"
	"github.com/acasperw/energy-manager-game-automation-tools/internal/research"
	"github.com/acasperw/energy-manager-game-automation-tools/internal/vessels"
)

// Client is the full action surface the orchestrator needs; the live game
// client and the simulated exchange both satisfy it.
type Client interface {
	market.EnergyTrader
	market.HydrogenTrader
	market.CommodityTrader
	plants.Controller
	vessels.Controller
	research.Submitter
}

// CycleResults aggregates every subsystem's outcome for one cycle. It is
// always produced, even when individual subsystems partially failed.
type CycleResults struct {
	CycleID   string
	StartedAt time.Time

	EnergySales       market.SalesSummary
	HydrogenSales     market.HydrogenSales
	StoredHydrogen    bool
	CO2QuotasBought   float64
	CommoditiesBought map[game.FuelType]float64
	Plants            plants.Result
	ResearchStarted   int
	VesselReports     []vessels.Report
}

// Reporter receives the cycle summary. Side effect only; nothing it does
// feeds back into the decision logic.
type Reporter interface {
	ReportCycleSummary(snap *game.Snapshot, decisions TaskDecisions, results *CycleResults)
}

// Orchestrator executes the enabled subsystems in a fixed order:
// buy CO2 → buy commodities → sell energy → store hydrogen → sell hydrogen →
// plant lifecycle → research → vessels.
type Orchestrator struct {
	client   Client
	fields   vessels.DepletedFieldStore
	reporter Reporter
	cfg      *config.Config
}

// NewOrchestrator wires the orchestrator's collaborators.
func NewOrchestrator(client Client, fields vessels.DepletedFieldStore, reporter Reporter, cfg *config.Config) *Orchestrator {
	return &Orchestrator{client: client, fields: fields, reporter: reporter, cfg: cfg}
}

// Execute runs one cycle's enabled tasks and reports the summary.
func (o *Orchestrator) Execute(ctx context.Context, snap *game.Snapshot, decisions TaskDecisions) *CycleResults {
	results := &CycleResults{
		CycleID:           uuid.NewString(),
		StartedAt:         snap.CollectedAt,
		CommoditiesBought: map[game.FuelType]float64{},
	}

	if decisions.BuyCO2Quotas {
		results.CO2QuotasBought = market.BuyCO2Quotas(ctx, o.client, snap)
	}

	if decisions.BuyCommodities {
		results.CommoditiesBought = market.BuyCommodities(ctx, o.client, snap, o.cfg)
	}

	if decisions.SellEnergy {
		results.EnergySales = market.SellGridEnergy(ctx, o.client, snap, o.cfg)
	}

	if decisions.StoreHydrogen {
		results.StoredHydrogen = market.StoreHydrogen(ctx, o.client, snap)
	}

	if decisions.SellHydrogen || decisions.SellHydrogenSilo {
		results.HydrogenSales = market.SellHydrogen(ctx, o.client, snap, decisions.SellHydrogen, decisions.SellHydrogenSilo)
	}

	if decisions.ManagePlants || decisions.ReenableSolarPlants {
		solar := decisions.SolarPlantsToReenable
		if !decisions.ReenableSolarPlants {
			solar = nil
		}
		results.Plants = plants.Manage(ctx, o.client, snap, solar, o.cfg)
	}

	if decisions.DoResearch {
		results.ResearchStarted = research.Perform(ctx, o.client, snap, o.cfg.Research)
	}

	if decisions.VesselsNeedAttention {
		mgr := vessels.NewManager(o.client, o.fields, o.cfg)
		results.VesselReports = mgr.Process(ctx, snap)
	}

	if o.reporter != nil {
		o.reporter.ReportCycleSummary(snap, decisions, results)
	}

	slog.Info("cycle executed",
		"cycle_id", results.CycleID,
		"grids_processed", results.EnergySales.ProcessedGrids,
		"hydrogen_sale", results.HydrogenSales.Sale,
		"plants_enabled", results.Plants.TotalEnabled,
		"research_started", results.ResearchStarted,
		"vessel_actions", len(results.VesselReports),
	)

	return results
}
