package plants

import (
	"context"
	"errors"
	"testing"

	"github.com/acasperw/energy-manager-game-automation-tools/internal/config"
	"github.com/acasperw/energy-manager-game-automation-tools/internal/game"
)

type fakeController struct {
	enabled    []string
	disabled   []string
	refuels    map[game.FuelType]float64
	switches   map[string]string
	gauges     map[game.FuelType]game.FuelGauge
	slots      map[string]game.StorageSlots
	connInfo   map[string]*game.PlantConnection
	slotQuries []string

	failEnable map[string]bool
	failRefuel bool
}

func newFakeController() *fakeController {
	return &fakeController{
		refuels:    map[game.FuelType]float64{},
		switches:   map[string]string{},
		gauges:     map[game.FuelType]game.FuelGauge{},
		slots:      map[string]game.StorageSlots{},
		connInfo:   map[string]*game.PlantConnection{},
		failEnable: map[string]bool{},
	}
}

func (f *fakeController) EnablePlant(ctx context.Context, plantID string, fuelBased bool) error {
	if f.failEnable[plantID] {
		return errors.New("enable rejected")
	}
	f.enabled = append(f.enabled, plantID)
	return nil
}

func (f *fakeController) DisablePlant(ctx context.Context, plantID string) error {
	f.disabled = append(f.disabled, plantID)
	return nil
}

func (f *fakeController) FuelGauge(ctx context.Context, fuel game.FuelType) (game.FuelGauge, error) {
	return f.gauges[fuel], nil
}

func (f *fakeController) Refuel(ctx context.Context, fuel game.FuelType, pct float64) error {
	if f.failRefuel {
		return errors.New("no onshore stock")
	}
	f.refuels[fuel] = pct
	return nil
}

func (f *fakeController) PlantConnection(ctx context.Context, plantID string) (*game.PlantConnection, error) {
	return f.connInfo[plantID], nil
}

func (f *fakeController) StorageSlots(ctx context.Context, storageID string, conn game.PlantConnection) (*game.StorageSlots, error) {
	f.slotQuries = append(f.slotQuries, storageID)
	s := f.slots[storageID]
	return &s, nil
}

func (f *fakeController) ConnectStorage(ctx context.Context, plantID, storageID string) error {
	f.switches[plantID] = storageID
	return nil
}

func lifecycleSnapshot() *game.Snapshot {
	return &game.Snapshot{
		Plants: []game.Plant{
			{ID: "fossil-full", Type: game.PlantFossil, Online: true, StorageID: "full", FuelHolding: 50},
			{ID: "wind-off", Type: game.PlantWind, Online: false, StorageID: "open"},
			{ID: "coal-off-dry", Type: game.PlantCoal, Online: false, StorageID: "open", FuelHolding: 0},
		},
		Grids: []game.GridStorage{{
			GridID: "g1",
			Storages: []game.StorageInfo{
				{ID: "full", Type: game.StorageGravity, CurrentCharge: 1000, Capacity: 1000, PlantsConnected: 1},
				{ID: "open", Type: game.StorageGravity, CurrentCharge: 100, Capacity: 1000, PlantsConnected: 2},
			},
		}},
	}
}

func TestManage(t *testing.T) {
	cfg := config.Default()

	t.Run("disables fuel plants on full storages", func(t *testing.T) {
		ctl := newFakeController()
		result := Manage(context.Background(), ctl, lifecycleSnapshot(), nil, cfg)

		if result.TotalDisabled != 1 || len(ctl.disabled) != 1 || ctl.disabled[0] != "fossil-full" {
			t.Fatalf("disabled = %v, result %+v", ctl.disabled, result)
		}
		// The just-disabled plant must not be re-enabled in the same pass.
		for _, id := range ctl.enabled {
			if id == "fossil-full" {
				t.Fatal("enable step undid the disable")
			}
		}
	})

	t.Run("refuels to the reachable percentage", func(t *testing.T) {
		ctl := newFakeController()
		ctl.gauges[game.FuelCoal] = game.FuelGauge{CurrentPct: 10, MaxPct: 85}
		result := Manage(context.Background(), ctl, lifecycleSnapshot(), nil, cfg)

		if got := ctl.refuels[game.FuelCoal]; got != 85 {
			t.Fatalf("refueled coal to %v%%, want 85", got)
		}
		if !result.Refueled[game.FuelCoal].Refueled {
			t.Fatalf("refuel not recorded: %+v", result.Refueled)
		}
	})

	t.Run("tank already at max skips the refuel", func(t *testing.T) {
		ctl := newFakeController()
		ctl.gauges[game.FuelCoal] = game.FuelGauge{CurrentPct: 85, MaxPct: 85}
		Manage(context.Background(), ctl, lifecycleSnapshot(), nil, cfg)

		if _, ok := ctl.refuels[game.FuelCoal]; ok {
			t.Fatal("refuel attempted with no headroom")
		}
	})

	t.Run("refuel failure counts as out of fuel", func(t *testing.T) {
		ctl := newFakeController()
		ctl.gauges[game.FuelCoal] = game.FuelGauge{CurrentPct: 10, MaxPct: 85}
		ctl.failRefuel = true
		result := Manage(context.Background(), ctl, lifecycleSnapshot(), nil, cfg)

		if result.TotalOutOfFuel != 1 {
			t.Fatalf("TotalOutOfFuel = %d, want 1", result.TotalOutOfFuel)
		}
	})

	t.Run("enables healthy offline plants, skips dry ones", func(t *testing.T) {
		ctl := newFakeController()
		result := Manage(context.Background(), ctl, lifecycleSnapshot(), nil, cfg)

		if result.TotalEnabled != 1 {
			t.Fatalf("TotalEnabled = %d, want 1 (wind-off)", result.TotalEnabled)
		}
		if result.TotalSkipped != 1 {
			t.Fatalf("TotalSkipped = %d, want 1 (coal-off-dry)", result.TotalSkipped)
		}
	})

	t.Run("discharging storage blocks the enable", func(t *testing.T) {
		snap := lifecycleSnapshot()
		snap.Grids[0].Storages[1].Discharging = true
		ctl := newFakeController()
		result := Manage(context.Background(), ctl, snap, nil, cfg)

		if result.TotalEnabled != 0 || result.TotalSkipped != 2 {
			t.Fatalf("result = %+v, want all offline plants skipped", result)
		}
	})

	t.Run("enable failure counts as an error", func(t *testing.T) {
		ctl := newFakeController()
		ctl.failEnable["wind-off"] = true
		result := Manage(context.Background(), ctl, lifecycleSnapshot(), nil, cfg)

		if result.TotalErrors != 1 || result.TotalEnabled != 0 {
			t.Fatalf("result = %+v, want one error and no enables", result)
		}
	})

	t.Run("every offline plant lands in exactly one counter", func(t *testing.T) {
		ctl := newFakeController()
		result := Manage(context.Background(), ctl, lifecycleSnapshot(), nil, cfg)

		offline := 2 // wind-off, coal-off-dry
		if got := result.TotalEnabled + result.TotalSkipped + result.TotalErrors; got != offline {
			t.Fatalf("enable accounting covers %d plants, want %d", got, offline)
		}
	})

	t.Run("re-enables flagged solar plants", func(t *testing.T) {
		ctl := newFakeController()
		result := Manage(context.Background(), ctl, lifecycleSnapshot(), []string{"sol1", "sol2"}, cfg)

		if result.SolarReenabled != 2 {
			t.Fatalf("SolarReenabled = %d, want 2", result.SolarReenabled)
		}
	})
}

func TestSwitchFuelPlantOnFullStorage(t *testing.T) {
	cfg := config.Default()

	snap := &game.Snapshot{
		Plants: []game.Plant{
			{ID: "fossil1", Type: game.PlantFossil, Online: true, StorageID: "full", FuelHolding: 50},
		},
		Grids: []game.GridStorage{{
			GridID: "g1",
			Storages: []game.StorageInfo{
				{ID: "full", Type: game.StorageGravity, CurrentCharge: 1000, Capacity: 1000},
				// Preferred: no plants connected yet.
				{ID: "fresh", Type: game.StorageGravity, Capacity: 2_000_000, PlantsConnected: 0, Lat: 55.0, Lon: 9.0},
				// Bigger but already loaded.
				{ID: "busy", Type: game.StorageGravity, Capacity: 5_000_000, PlantsConnected: 3, Lat: 55.0, Lon: 9.0},
				// Under the capacity floor.
				{ID: "tiny", Type: game.StorageGravity, Capacity: 10_000, PlantsConnected: 0, Lat: 55.0, Lon: 9.0},
				// Out of range.
				{ID: "far", Type: game.StorageGravity, Capacity: 9_000_000, PlantsConnected: 0, Lat: 80.0, Lon: 170.0},
			},
		}},
	}

	ctl := newFakeController()
	ctl.connInfo["fossil1"] = &game.PlantConnection{
		PlantID: "fossil1", Lat: 55.0, Lon: 9.0, MaxDistanceKm: 100, CurrentStorageID: "full",
	}
	ctl.slots["fresh"] = game.StorageSlots{PlantsConnected: 0, MaxConnections: 6}
	ctl.slots["busy"] = game.StorageSlots{PlantsConnected: 3, MaxConnections: 6}

	result := Manage(context.Background(), ctl, snap, nil, cfg)

	if result.TotalSwitched != 1 {
		t.Fatalf("TotalSwitched = %d, want 1", result.TotalSwitched)
	}
	if got := ctl.switches["fossil1"]; got != "fresh" {
		t.Fatalf("switched to %q, want the unconnected storage %q", got, "fresh")
	}
}

func TestSwitchPrefersLiveSlotCheck(t *testing.T) {
	cfg := config.Default()

	snap := &game.Snapshot{
		Plants: []game.Plant{
			{ID: "fossil1", Type: game.PlantFossil, Online: true, StorageID: "full", FuelHolding: 50},
		},
		Grids: []game.GridStorage{{
			GridID: "g1",
			Storages: []game.StorageInfo{
				{ID: "full", Type: game.StorageGravity, CurrentCharge: 1000, Capacity: 1000},
				{ID: "fresh", Type: game.StorageGravity, Capacity: 2_000_000, PlantsConnected: 0, Lat: 55.0, Lon: 9.0},
				{ID: "next", Type: game.StorageGravity, Capacity: 1_500_000, PlantsConnected: 1, Lat: 55.0, Lon: 9.0},
			},
		}},
	}

	ctl := newFakeController()
	ctl.connInfo["fossil1"] = &game.PlantConnection{
		PlantID: "fossil1", Lat: 55.0, Lon: 9.0, MaxDistanceKm: 100, CurrentStorageID: "full",
	}
	// Snapshot says fresh is empty but the live check says it filled up.
	ctl.slots["fresh"] = game.StorageSlots{PlantsConnected: 6, MaxConnections: 6}
	ctl.slots["next"] = game.StorageSlots{PlantsConnected: 1, MaxConnections: 6}

	result := Manage(context.Background(), ctl, snap, nil, cfg)

	if result.TotalSwitched != 1 || ctl.switches["fossil1"] != "next" {
		t.Fatalf("switched to %q (result %+v), want fallback to %q", ctl.switches["fossil1"], result, "next")
	}
}
