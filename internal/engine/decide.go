// Package engine turns a game snapshot into task decisions, executes the
// enabled subsystems in a fixed order, and schedules the next cycle.
package engine

import (
	"github.com/acasperw/energy-manager-game-automation-tools/internal/config"
	"github.com/acasperw/energy-manager-game-automation-tools/internal/game"
)

// TaskDecisions flags which subsystems run this cycle. Produced once per
// cycle by Decide and never mutated afterwards.
type TaskDecisions struct {
	SellEnergy       bool
	SellHydrogen     bool
	SellHydrogenSilo bool
	StoreHydrogen    bool

	BuyCO2Quotas   bool
	BuyCommodities bool

	ManagePlants          bool
	ReenableSolarPlants   bool
	SolarPlantsToReenable []string

	DoResearch bool

	VesselsNeedAttention bool
}

// Decide maps a snapshot to task decisions. Pure: no I/O, no clock, same
// snapshot and thresholds always yield the same decisions.
func Decide(snap *game.Snapshot, cfg *config.Config) TaskDecisions {
	var d TaskDecisions
	t := cfg.Thresholds

	// Power grids, excluding p2x storages.
	for _, grid := range game.FilterGrids(snap.Grids, game.NonP2X) {
		if game.ChargeAboveThreshold(grid, game.NonP2X, t.StorageChargeMin) {
			d.SellEnergy = true
			break
		}
	}

	// Hydrogen. A super price forces the sale regardless of charge level.
	price := snap.Hydrogen.PricePerKg
	superPrice := t.HydrogenSuperPrice > 0 && price >= t.HydrogenSuperPrice
	if price >= t.HydrogenPriceMin || superPrice {
		p2xGrids := game.FilterGrids(snap.Grids, game.P2XOnly)
		if superPrice && len(p2xGrids) > 0 {
			d.SellHydrogen = true
		} else {
			for _, grid := range p2xGrids {
				if game.ChargeAboveThreshold(grid, game.P2XOnly, t.StorageChargeMin) {
					d.SellHydrogen = true
					break
				}
			}
		}
		if snap.Hydrogen.SiloHolding > 0 {
			d.SellHydrogenSilo = true
		}
	}

	if snap.Hydrogen.SiloHolding < snap.Hydrogen.SiloCapacity {
		d.StoreHydrogen = true
	}

	// CO2 quotas.
	if snap.CO2Price < t.CO2PriceMax && snap.EmissionPerKwh > 1 {
		d.BuyCO2Quotas = true
	}

	// Commodities: any fuel below its price ceiling.
	if snap.OilPrice < t.OilPriceMax || snap.CoalPrice < t.CoalPriceMax || snap.UraniumPrice < t.UraniumPriceMax {
		d.BuyCommodities = true
	}

	// Storage & plants: offline plants to bring up, or full storages whose
	// fuel plants should be taken down.
	for _, p := range snap.Plants {
		if !p.Online {
			d.ManagePlants = true
			break
		}
		if p.Type.IsFuelBased() {
			if s, ok := game.FindStorage(snap.Grids, p.StorageID); ok && s.Full() {
				d.ManagePlants = true
				break
			}
		}
	}

	// Solar plants producing well under the storage's expected charge rate.
	d.SolarPlantsToReenable = solarPlantsUnderperforming(snap, cfg.Plants.SolarDiscrepancy)
	d.ReenableSolarPlants = len(d.SolarPlantsToReenable) > 0

	// Research.
	budget := snap.UserMoney * cfg.Research.BudgetPct
	if snap.Research.AvailableStations > 0 {
		for _, r := range snap.Research.Candidates {
			if r.Price <= budget {
				d.DoResearch = true
				break
			}
		}
	}

	// Vessels mid-operation are left alone; anything else needs attention.
	for _, v := range snap.Vessels {
		if !v.Status.MidOperation() {
			d.VesselsNeedAttention = true
			break
		}
	}

	return d
}

// solarPlantsUnderperforming returns the solar plants connected to storages
// whose actual charge rate has fallen more than the discrepancy fraction
// below the expected rate.
func solarPlantsUnderperforming(snap *game.Snapshot, discrepancy float64) []string {
	var ids []string
	for _, grid := range snap.Grids {
		for _, s := range grid.Storages {
			if s.PlantsConnected == 0 || s.ExpectedChargePerSec <= 0 {
				continue
			}
			if s.ChargePerSec/s.ExpectedChargePerSec >= 1-discrepancy {
				continue
			}
			for _, p := range snap.Plants {
				if p.StorageID == s.ID && p.Type == game.PlantSolar {
					ids = append(ids, p.ID)
				}
			}
		}
	}
	return ids
}
