package sim

import (
	"context"
	"testing"
	"time"

	"github.com/acasperw/energy-manager-game-automation-tools/internal/config"
	"github.com/acasperw/energy-manager-game-automation-tools/internal/engine"
	"github.com/acasperw/energy-manager-game-automation-tools/internal/game"
)

func TestCollectSnapshot(t *testing.T) {
	w := NewWorld(1)
	snap, err := w.CollectSnapshot(context.Background())
	if err != nil {
		t.Fatalf("CollectSnapshot() = %v", err)
	}

	if len(snap.Grids) != 3 || len(snap.Plants) != 6 || len(snap.Vessels) != 1 {
		t.Fatalf("world shape: %d grids, %d plants, %d vessels", len(snap.Grids), len(snap.Plants), len(snap.Vessels))
	}

	t.Run("p2x storages feed the hydrogen state", func(t *testing.T) {
		if len(snap.Hydrogen.P2XStorageIDs) != 1 || snap.Hydrogen.P2XStorageIDs[0] != "s-p2x" {
			t.Fatalf("P2XStorageIDs = %v", snap.Hydrogen.P2XStorageIDs)
		}
		if snap.Hydrogen.CurrentStorageCharge <= 0 {
			t.Fatal("p2x charge missing from the snapshot")
		}
		if snap.Hydrogen.SellValue != snap.Hydrogen.CurrentStorageCharge*snap.Hydrogen.PricePerKg {
			t.Fatal("hydrogen sell value inconsistent with charge and price")
		}
	})

	t.Run("grid aggregates only count connected storages", func(t *testing.T) {
		for _, g := range snap.Grids {
			var charge, capacity float64
			for _, s := range g.Storages {
				if s.PlantsConnected > 0 {
					charge += s.CurrentCharge
					capacity += s.Capacity
				}
			}
			if g.TotalCurrentCharge != charge || g.TotalCapacity != capacity {
				t.Fatalf("grid %s aggregates inconsistent", g.GridID)
			}
		}
	})

	t.Run("prices drift smoothly between cycles", func(t *testing.T) {
		second, err := w.CollectSnapshot(context.Background())
		if err != nil {
			t.Fatalf("CollectSnapshot() = %v", err)
		}
		// Bounded wobble: prices stay inside their bands.
		if second.OilPrice < 1.5 || second.OilPrice > 4.0 {
			t.Fatalf("oil price %v left its band", second.OilPrice)
		}
		if second.Hydrogen.PricePerKg < 40 || second.Hydrogen.PricePerKg > 320 {
			t.Fatalf("hydrogen price %v left its band", second.Hydrogen.PricePerKg)
		}
	})
}

func TestWorldActions(t *testing.T) {
	ctx := context.Background()

	t.Run("local sale converts charge to money", func(t *testing.T) {
		w := NewWorld(1)
		before, _ := w.CollectSnapshot(ctx)

		if err := w.SellGridLocal(ctx, "g-north"); err != nil {
			t.Fatalf("SellGridLocal() = %v", err)
		}

		after, _ := w.CollectSnapshot(ctx)
		if after.UserMoney <= before.UserMoney {
			t.Fatal("sale must raise the balance")
		}
		for _, g := range after.Grids {
			if g.GridID == "g-north" && g.TotalCurrentCharge != 0 {
				t.Fatalf("charge not drained: %v", g.TotalCurrentCharge)
			}
		}
	})

	t.Run("unknown grid is an error", func(t *testing.T) {
		if err := NewWorld(1).SellGridLocal(ctx, "nope"); err == nil {
			t.Fatal("unknown grid must fail")
		}
	})

	t.Run("silo transfer respects headroom", func(t *testing.T) {
		w := NewWorld(1)
		if err := w.StoreHydrogen(ctx, []string{"s-p2x"}); err != nil {
			t.Fatalf("StoreHydrogen() = %v", err)
		}
		snap, _ := w.CollectSnapshot(ctx)
		if snap.Hydrogen.SiloHolding != snap.Hydrogen.SiloCapacity {
			t.Fatalf("silo at %v of %v, want filled to capacity", snap.Hydrogen.SiloHolding, snap.Hydrogen.SiloCapacity)
		}
		if snap.Hydrogen.CurrentStorageCharge >= 900_000 {
			t.Fatal("p2x charge must shrink by the transferred amount")
		}
	})

	t.Run("research cannot be funded twice", func(t *testing.T) {
		w := NewWorld(1)
		if err := w.StartResearch(ctx, 57); err != nil {
			t.Fatalf("first StartResearch() = %v", err)
		}
		if err := w.StartResearch(ctx, 57); err == nil {
			t.Fatal("refunding must fail")
		}
		snap, _ := w.CollectSnapshot(ctx)
		for _, c := range snap.Research.Candidates {
			if c.ID == 57 {
				t.Fatal("funded research still offered")
			}
		}
	})

	t.Run("departed vessel is enroute with an arrival time", func(t *testing.T) {
		w := NewWorld(1)
		if err := w.Depart(ctx, "v-1", "field-alpha", 18); err != nil {
			t.Fatalf("Depart() = %v", err)
		}
		snap, _ := w.CollectSnapshot(ctx)
		v := snap.Vessels[0]
		if v.Status != game.VesselEnroute || v.ArrivalTime == nil {
			t.Fatalf("vessel = %+v", v)
		}
	})
}

// memFields is a throwaway depleted-field store for the scenario test.
type memFields map[string]bool

func (m memFields) IsDepleted(fieldID string) (bool, error) { return m[fieldID], nil }
func (m memFields) MarkDepleted(fieldID string) error       { m[fieldID] = true; return nil }
func (m memFields) Prune(olderThan time.Time) error         { return nil }

// TestFullCycleAgainstWorld runs the whole decision core against the
// simulated exchange for several cycles; nothing may error or wedge.
func TestFullCycleAgainstWorld(t *testing.T) {
	cfg := config.Default()
	w := NewWorld(7)
	orch := engine.NewOrchestrator(w, memFields{}, nil, cfg)

	for i := 0; i < 10; i++ {
		snap, err := w.CollectSnapshot(context.Background())
		if err != nil {
			t.Fatalf("cycle %d collect: %v", i, err)
		}
		decisions := engine.Decide(snap, cfg)
		results := orch.Execute(context.Background(), snap, decisions)
		if results == nil || results.CycleID == "" {
			t.Fatalf("cycle %d produced no results", i)
		}
	}
}
