// Package plants manages the storage and plant lifecycle: disabling fuel
// plants on full storages, refueling, relocating plants to storages with
// headroom, and bringing offline plants back up.
//
// Step order matters: disabling runs before refueling so fuel is not spent
// on plants about to be taken offline. Per-plant failures are counted and
// the batch continues.
package plants

import (
	"context"
	"log/slog"
	"sort"

	"github.com/acasperw/energy-manager-game-automation-tools/internal/config"
	"github.com/acasperw/energy-manager-game-automation-tools/internal/game"
	"github.com/acasperw/energy-manager-game-automation-tools/internal/geo"
)

// Controller executes plant and storage actions against the game.
type Controller interface {
	EnablePlant(ctx context.Context, plantID string, fuelBased bool) error
	DisablePlant(ctx context.Context, plantID string) error
	FuelGauge(ctx context.Context, fuel game.FuelType) (game.FuelGauge, error)
	Refuel(ctx context.Context, fuel game.FuelType, pct float64) error
	PlantConnection(ctx context.Context, plantID string) (*game.PlantConnection, error)
	StorageSlots(ctx context.Context, storageID string, conn game.PlantConnection) (*game.StorageSlots, error)
	ConnectStorage(ctx context.Context, plantID, storageID string) error
}

// RefuelOutcome records one fuel type's refuel attempt.
type RefuelOutcome struct {
	Refueled bool
	Pct      float64
}

// Result aggregates the lifecycle pass. Every input plant lands in exactly
// one of the enabled/skipped/error counters of its step.
type Result struct {
	TotalEnabled  int
	TotalDisabled int
	TotalSkipped  int
	TotalSwitched int
	TotalErrors   int

	TotalOutOfFuel int
	Refueled       map[game.FuelType]RefuelOutcome

	SolarReenabled int
}

// Manage runs the full lifecycle pass over the snapshot's plants.
func Manage(ctx context.Context, ctl Controller, snap *game.Snapshot, solarToReenable []string, cfg *config.Config) Result {
	result := Result{Refueled: make(map[game.FuelType]RefuelOutcome)}

	disabled := disableFuelPlantsOnFullStorages(ctx, ctl, snap, &result)
	refuelOfflinePlants(ctx, ctl, snap, &result)
	switchFuelPlantsOnFullStorages(ctx, ctl, snap, cfg, &result)
	enableOfflinePlants(ctx, ctl, snap, disabled, &result)
	reenableSolarPlants(ctx, ctl, solarToReenable, &result)

	return result
}

// disableFuelPlantsOnFullStorages takes online fuel plants offline when
// their storage has no headroom left. Returns the IDs it disabled so the
// enable step does not immediately undo the work.
func disableFuelPlantsOnFullStorages(ctx context.Context, ctl Controller, snap *game.Snapshot, result *Result) map[string]bool {
	disabled := make(map[string]bool)
	for _, p := range snap.Plants {
		if !p.Online || !p.Type.IsFuelBased() {
			continue
		}
		storage, ok := game.FindStorage(snap.Grids, p.StorageID)
		if !ok || !storage.Full() {
			continue
		}
		if err := ctl.DisablePlant(ctx, p.ID); err != nil {
			slog.Error("disable plant failed", "plant", p.ID, "error", err)
			result.TotalErrors++
			continue
		}
		result.TotalDisabled++
		disabled[p.ID] = true
	}
	return disabled
}

// refuelOfflinePlants tops up each fuel type that has at least one offline
// plant. A fuel acquisition failure counts as out-of-fuel, not a hard error.
func refuelOfflinePlants(ctx context.Context, ctl Controller, snap *game.Snapshot, result *Result) {
	for _, plantType := range game.FuelPlantTypes {
		hasOffline := false
		for _, p := range snap.Plants {
			if p.Type == plantType && !p.Online {
				hasOffline = true
				break
			}
		}
		if !hasOffline {
			continue
		}

		fuel := game.FuelFor[plantType]
		gauge, err := ctl.FuelGauge(ctx, fuel)
		if err != nil {
			slog.Warn("fuel gauge query failed", "fuel", fuel, "error", err)
			result.TotalOutOfFuel++
			continue
		}
		if gauge.MaxPct <= 0 || gauge.CurrentPct >= gauge.MaxPct {
			continue
		}
		if err := ctl.Refuel(ctx, fuel, gauge.MaxPct); err != nil {
			slog.Warn("refuel failed", "fuel", fuel, "error", err)
			result.TotalOutOfFuel++
			continue
		}
		result.Refueled[fuel] = RefuelOutcome{Refueled: true, Pct: gauge.MaxPct}
	}
}

// switchFuelPlantsOnFullStorages relocates fuel plants away from full
// storages when a reachable storage with headroom exists. Unresolved
// relocations leave the plant as-is.
func switchFuelPlantsOnFullStorages(ctx context.Context, ctl Controller, snap *game.Snapshot, cfg *config.Config, result *Result) {
	claimed := make(map[string]bool)

	for _, p := range snap.Plants {
		if !p.Type.IsFuelBased() {
			continue
		}
		storage, ok := game.FindStorage(snap.Grids, p.StorageID)
		if !ok || !storage.Full() {
			continue
		}

		conn, err := ctl.PlantConnection(ctx, p.ID)
		if err != nil {
			slog.Error("plant connection query failed", "plant", p.ID, "error", err)
			result.TotalErrors++
			continue
		}
		if conn == nil {
			slog.Warn("no connection info for plant", "plant", p.ID)
			continue
		}

		target, err := findAvailableStorage(ctx, ctl, snap, *conn, claimed, cfg.Plants.MinStorageCapacity)
		if err != nil {
			result.TotalErrors++
			continue
		}
		if target == "" {
			continue
		}

		if err := ctl.ConnectStorage(ctx, p.ID, target); err != nil {
			slog.Error("storage switch failed", "plant", p.ID, "storage", target, "error", err)
			result.TotalErrors++
			continue
		}
		result.TotalSwitched++
		claimed[target] = true
	}
}

// findAvailableStorage ranks candidate storages — zero-connected first to
// spread load, then by descending capacity — and returns the first one with
// a spare connection slot per the live query.
func findAvailableStorage(ctx context.Context, ctl Controller, snap *game.Snapshot, conn game.PlantConnection, claimed map[string]bool, minCapacity float64) (string, error) {
	var candidates []game.StorageInfo
	for _, grid := range snap.Grids {
		for _, s := range grid.Storages {
			if s.ID == conn.CurrentStorageID || claimed[s.ID] {
				continue
			}
			if s.Capacity < minCapacity || s.Full() {
				continue
			}
			if geo.DistanceKm(conn.Lat, conn.Lon, s.Lat, s.Lon) > conn.MaxDistanceKm {
				continue
			}
			candidates = append(candidates, s)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if (a.PlantsConnected == 0) != (b.PlantsConnected == 0) {
			return a.PlantsConnected == 0
		}
		return a.Capacity > b.Capacity
	})

	for _, s := range candidates {
		slots, err := ctl.StorageSlots(ctx, s.ID, conn)
		if err != nil {
			slog.Error("storage slots query failed", "storage", s.ID, "error", err)
			return "", err
		}
		if slots.PlantsConnected < slots.MaxConnections {
			return s.ID, nil
		}
	}
	return "", nil
}

// enableOfflinePlants brings offline plants online unless their storage is
// discharging, full, or (for fuel plants) their tank is empty.
func enableOfflinePlants(ctx context.Context, ctl Controller, snap *game.Snapshot, justDisabled map[string]bool, result *Result) {
	for _, p := range snap.Plants {
		if p.Online || justDisabled[p.ID] {
			continue
		}

		storage, ok := game.FindStorage(snap.Grids, p.StorageID)
		if !ok || storage.Discharging || storage.Full() ||
			(p.Type.IsFuelBased() && p.FuelHolding <= 0) {
			result.TotalSkipped++
			continue
		}

		if err := ctl.EnablePlant(ctx, p.ID, p.Type.IsFuelBased()); err != nil {
			slog.Error("enable plant failed", "plant", p.ID, "error", err)
			result.TotalErrors++
			continue
		}
		result.TotalEnabled++
	}
}

// reenableSolarPlants toggles solar plants flagged as underperforming by the
// decision engine.
func reenableSolarPlants(ctx context.Context, ctl Controller, plantIDs []string, result *Result) {
	for _, id := range plantIDs {
		if err := ctl.EnablePlant(ctx, id, false); err != nil {
			slog.Error("solar re-enable failed", "plant", id, "error", err)
			result.TotalErrors++
			continue
		}
		result.SolarReenabled++
	}
}
