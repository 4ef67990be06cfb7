// Package sim is a self-contained simulated exchange: it satisfies the same
// collaborator contracts as the live client, so the whole decision core can
// run offline. Prices and demand drift on smooth noise so consecutive cycles
// see plausible, continuous markets rather than white noise.
package sim

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/acasperw/energy-manager-game-automation-tools/internal/game"
)

// World is the simulated game state. All methods are safe for concurrent
// use; the collector and action calls share one lock.
type World struct {
	mu    sync.Mutex
	noise opensimplex.Noise
	tick  float64

	money          float64
	emissionPerKwh float64

	plants []game.Plant
	grids  []gridState

	hydrogenSilo    float64
	hydrogenSiloCap float64
	p2xCharge       map[string]float64

	oilOnshore    float64
	oilOnshoreCap float64

	vessels      map[string]*vesselState
	drillLog     []game.DrillHistoryEntry
	researchDone map[int]bool
}

type gridState struct {
	id       string
	name     string
	baseMwh  float64
	demand   float64
	storages []game.StorageInfo
}

type vesselState struct {
	info     game.VesselInfo
	maxSpeed float64
}

// NewWorld seeds a small but representative world: three grids with mixed
// storage, a fuel plant of each type, a p2x storage, and one idle vessel.
func NewWorld(seed int64) *World {
	w := &World{
		noise:           opensimplex.NewNormalized(seed),
		money:           5_000_000,
		emissionPerKwh:  0.35,
		hydrogenSiloCap: 50_000,
		p2xCharge:       map[string]float64{},
		oilOnshoreCap:   2_000_000,
		oilOnshore:      400_000,
		vessels:         map[string]*vesselState{},
		researchDone:    map[int]bool{},
	}

	w.grids = []gridState{
		{
			id: "g-north", name: "Northern Grid", baseMwh: 120, demand: 45_000,
			storages: []game.StorageInfo{
				{ID: "s-n1", Type: game.StorageGravity, Capacity: 8_000_000, CurrentCharge: 7_200_000, PlantsConnected: 2, Lat: 58.2, Lon: 6.1},
				{ID: "s-n2", Type: game.StorageChemical, Capacity: 2_000_000, CurrentCharge: 600_000, PlantsConnected: 1, Lat: 58.4, Lon: 6.4},
			},
		},
		{
			id: "g-central", name: "Central Grid", baseMwh: 95, demand: 8_000,
			storages: []game.StorageInfo{
				{ID: "s-c1", Type: game.StorageGravity, Capacity: 5_000_000, CurrentCharge: 4_600_000, PlantsConnected: 3, Lat: 55.1, Lon: 9.8},
			},
		},
		{
			id: "g-coast", name: "Coastal Grid", baseMwh: 140, demand: 60_000,
			storages: []game.StorageInfo{
				{ID: "s-p2x", Type: game.StorageP2X, Capacity: 1_200_000, CurrentCharge: 900_000, PlantsConnected: 1, Lat: 54.0, Lon: 7.7},
			},
		},
	}
	w.p2xCharge["s-p2x"] = 900_000

	w.plants = []game.Plant{
		{ID: "p-wind1", Type: game.PlantWind, Online: true, Output: 4200, Capacity: 5000, StorageID: "s-n1", Lat: 58.2, Lon: 6.0},
		{ID: "p-solar1", Type: game.PlantSolar, Online: true, Output: 900, Capacity: 3000, StorageID: "s-n2", Lat: 58.3, Lon: 6.2},
		{ID: "p-fossil1", Type: game.PlantFossil, Online: true, Output: 3800, Capacity: 4000, StorageID: "s-c1", FuelCapacity: 100, FuelHolding: 62, Lat: 55.0, Lon: 9.7},
		{ID: "p-coal1", Type: game.PlantCoal, Online: true, Output: 3500, Capacity: 4000, StorageID: "s-c1", FuelCapacity: 100, FuelHolding: 18, Lat: 55.2, Lon: 9.9},
		{ID: "p-nuke1", Type: game.PlantNuclear, Online: false, Output: 0, Capacity: 9000, StorageID: "s-c1", FuelCapacity: 100, FuelHolding: 0, Lat: 55.3, Lon: 10.0},
		{ID: "p-wind2", Type: game.PlantWind, Online: true, Output: 2400, Capacity: 3000, StorageID: "s-p2x", Lat: 54.1, Lon: 7.6},
	}

	w.vessels["v-1"] = &vesselState{
		info: game.VesselInfo{
			ID: "v-1", Name: "MV Surveyor", Status: game.VesselInPort,
			Lat: 54.3, Lon: 7.9, OilCapacity: 500_000,
		},
		maxSpeed: 18,
	}
	return w
}

// wobble maps smooth noise at the current tick onto [lo, hi].
func (w *World) wobble(channel, lo, hi float64) float64 {
	n := w.noise.Eval2(w.tick/12, channel)
	return lo + n*(hi-lo)
}

// CollectSnapshot builds a fresh snapshot and advances the simulated clock
// one tick.
func (w *World) CollectSnapshot(ctx context.Context) (*game.Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tick++

	snap := &game.Snapshot{
		EmissionPerKwh: w.emissionPerKwh,
		CO2Price:       w.wobble(1, 12, 30),
		OilPrice:       w.wobble(2, 1.5, 4.0),
		CoalPrice:      w.wobble(3, 0.08, 0.25),
		UraniumPrice:   w.wobble(4, 3200, 7800),
		UserMoney:      w.money,
		CollectedAt:    time.Now(),
	}

	snap.Plants = append([]game.Plant(nil), w.plants...)

	for i, g := range w.grids {
		mwh := g.baseMwh * w.wobble(10+float64(i), 0.6, 1.5)
		grid := game.GridStorage{
			GridID:           g.id,
			GridName:         g.name,
			MwhValue:         mwh,
			AvgMwhValue:      g.baseMwh,
			UpcomingMwhValue: g.baseMwh * w.wobble(20+float64(i), 0.6, 1.5),
			PctOfMaxPrice:    w.wobble(30+float64(i), 40, 100),
			Demand:           g.demand * w.wobble(40+float64(i), 0.7, 1.3),
			Storages:         append([]game.StorageInfo(nil), g.storages...),
		}
		for _, s := range grid.Storages {
			if s.PlantsConnected > 0 {
				grid.TotalCurrentCharge += s.CurrentCharge
				grid.TotalCapacity += s.Capacity
			}
		}
		if grid.TotalCapacity > 0 {
			grid.ChargePercentage = grid.TotalCurrentCharge / grid.TotalCapacity * 100
		}
		grid.IsLowDemand = grid.Demand < 10000 || grid.Demand < grid.TotalCurrentCharge
		snap.Grids = append(snap.Grids, grid)
	}

	snap.Hydrogen = game.Hydrogen{
		PricePerKg:   w.wobble(5, 40, 320),
		SiloHolding:  w.hydrogenSilo,
		SiloCapacity: w.hydrogenSiloCap,
	}
	for id, charge := range w.p2xCharge {
		snap.Hydrogen.P2XStorageIDs = append(snap.Hydrogen.P2XStorageIDs, id)
		snap.Hydrogen.CurrentStorageCharge += charge
	}
	snap.Hydrogen.SellValue = snap.Hydrogen.CurrentStorageCharge * snap.Hydrogen.PricePerKg
	snap.Hydrogen.SiloSellValue = snap.Hydrogen.SiloHolding * snap.Hydrogen.PricePerKg

	snap.Research = game.Research{AvailableStations: 2}
	for _, cand := range []game.ResearchInfo{
		{ID: 182, Price: 120_000},
		{ID: 3, Price: 340_000},
		{ID: 57, Price: 95_000},
	} {
		if !w.researchDone[cand.ID] {
			snap.Research.Candidates = append(snap.Research.Candidates, cand)
		}
	}

	for _, v := range w.vessels {
		snap.Vessels = append(snap.Vessels, v.info)
	}
	return snap, nil
}

func (w *World) findGrid(gridID string) (*gridState, error) {
	for i := range w.grids {
		if w.grids[i].id == gridID {
			return &w.grids[i], nil
		}
	}
	return nil, fmt.Errorf("unknown grid %s", gridID)
}

// SellGridLocal sells all connected charge at the grid's current price.
func (w *World) SellGridLocal(ctx context.Context, gridID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	g, err := w.findGrid(gridID)
	if err != nil {
		return err
	}
	for i := range g.storages {
		s := &g.storages[i]
		if s.PlantsConnected == 0 || s.Type == game.StorageP2X {
			continue
		}
		w.money += s.CurrentCharge / 1000 * g.baseMwh
		s.CurrentCharge = 0
	}
	return nil
}

// SellGridTo moves charge to the buyer grid's market, paying the transfer fee.
func (w *World) SellGridTo(ctx context.Context, gridID, buyerGridID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	g, err := w.findGrid(gridID)
	if err != nil {
		return err
	}
	buyer, err := w.findGrid(buyerGridID)
	if err != nil {
		return err
	}
	for i := range g.storages {
		s := &g.storages[i]
		if s.PlantsConnected == 0 || s.Type == game.StorageP2X {
			continue
		}
		w.money += s.CurrentCharge / 1000 * buyer.baseMwh * 0.9
		s.CurrentCharge = 0
	}
	return nil
}

// SellHydrogen sells the listed p2x storages' charge.
func (w *World) SellHydrogen(ctx context.Context, storageIDs []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	price := w.wobble(5, 40, 320)
	for _, id := range storageIDs {
		charge, ok := w.p2xCharge[id]
		if !ok {
			return fmt.Errorf("unknown p2x storage %s", id)
		}
		w.money += charge * price
		w.p2xCharge[id] = 0
		w.zeroStorage(id)
	}
	return nil
}

// SellHydrogenSilo sells the silo stockpile.
func (w *World) SellHydrogenSilo(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.money += w.hydrogenSilo * w.wobble(5, 40, 320)
	w.hydrogenSilo = 0
	return nil
}

// StoreHydrogen moves p2x charge into the silo up to its headroom.
func (w *World) StoreHydrogen(ctx context.Context, storageIDs []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, id := range storageIDs {
		charge, ok := w.p2xCharge[id]
		if !ok {
			return fmt.Errorf("unknown p2x storage %s", id)
		}
		headroom := w.hydrogenSiloCap - w.hydrogenSilo
		moved := math.Min(charge, headroom)
		w.hydrogenSilo += moved
		w.p2xCharge[id] = charge - moved
		w.zeroStorage(id)
	}
	return nil
}

func (w *World) zeroStorage(storageID string) {
	for gi := range w.grids {
		for si := range w.grids[gi].storages {
			if w.grids[gi].storages[si].ID == storageID {
				w.grids[gi].storages[si].CurrentCharge = w.p2xCharge[storageID]
			}
		}
	}
}

// BuyCO2Quotas debits the quota purchase.
func (w *World) BuyCO2Quotas(ctx context.Context, amount float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	cost := amount * w.wobble(1, 12, 30)
	if cost > w.money {
		return fmt.Errorf("insufficient funds for %0.f quotas", amount)
	}
	w.money -= cost
	return nil
}

// MaxPurchasable caps a single fuel purchase.
func (w *World) MaxPurchasable(ctx context.Context, fuel game.FuelType) (float64, error) {
	switch fuel {
	case game.FuelOil:
		return 250_000, nil
	case game.FuelCoal:
		return 1_000_000, nil
	case game.FuelUranium:
		return 40, nil
	}
	return 0, fmt.Errorf("unknown fuel %s", fuel)
}

// BuyCommodity debits a fuel purchase at the current price.
func (w *World) BuyCommodity(ctx context.Context, fuel game.FuelType, amount float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var price float64
	switch fuel {
	case game.FuelOil:
		price = w.wobble(2, 1.5, 4.0)
	case game.FuelCoal:
		price = w.wobble(3, 0.08, 0.25)
	case game.FuelUranium:
		price = w.wobble(4, 3200, 7800)
	default:
		return fmt.Errorf("unknown fuel %s", fuel)
	}
	cost := amount * price
	if cost > w.money {
		return fmt.Errorf("insufficient funds for %0.f %s", amount, fuel)
	}
	w.money -= cost
	return nil
}

func (w *World) findPlant(plantID string) (*game.Plant, error) {
	for i := range w.plants {
		if w.plants[i].ID == plantID {
			return &w.plants[i], nil
		}
	}
	return nil, fmt.Errorf("unknown plant %s", plantID)
}

// EnablePlant brings a plant online; a dry fuel plant stays offline.
func (w *World) EnablePlant(ctx context.Context, plantID string, fuelBased bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, err := w.findPlant(plantID)
	if err != nil {
		return err
	}
	if fuelBased && p.FuelHolding <= 0 {
		return fmt.Errorf("plant %s has no fuel", plantID)
	}
	p.Online = true
	p.Output = p.Capacity * 0.9
	return nil
}

// DisablePlant takes a plant offline.
func (w *World) DisablePlant(ctx context.Context, plantID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, err := w.findPlant(plantID)
	if err != nil {
		return err
	}
	p.Online = false
	p.Output = 0
	return nil
}

// FuelGauge aggregates the fill state of all plants burning the fuel.
func (w *World) FuelGauge(ctx context.Context, fuel game.FuelType) (game.FuelGauge, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var holding, capacity float64
	for _, p := range w.plants {
		if game.FuelFor[p.Type] == fuel {
			holding += p.FuelHolding
			capacity += p.FuelCapacity
		}
	}
	if capacity == 0 {
		return game.FuelGauge{}, nil
	}
	current := holding / capacity * 100
	// Onshore stock is treated as ample in the sim.
	return game.FuelGauge{CurrentPct: current, MaxPct: 100}, nil
}

// Refuel fills all plants of the fuel type to the percentage.
func (w *World) Refuel(ctx context.Context, fuel game.FuelType, pct float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range w.plants {
		p := &w.plants[i]
		if game.FuelFor[p.Type] == fuel {
			p.FuelHolding = p.FuelCapacity * pct / 100
		}
	}
	return nil
}

// PlantConnection reports the plant's current hookup.
func (w *World) PlantConnection(ctx context.Context, plantID string) (*game.PlantConnection, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, err := w.findPlant(plantID)
	if err != nil {
		return nil, err
	}
	return &game.PlantConnection{
		PlantID:          p.ID,
		Lat:              p.Lat,
		Lon:              p.Lon,
		MaxDistanceKm:    50,
		CurrentStorageID: p.StorageID,
		LandID:           "sim",
	}, nil
}

// StorageSlots reports a storage's live occupancy.
func (w *World) StorageSlots(ctx context.Context, storageID string, conn game.PlantConnection) (*game.StorageSlots, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, g := range w.grids {
		for _, s := range g.storages {
			if s.ID == storageID {
				return &game.StorageSlots{
					PlantsConnected: s.PlantsConnected,
					MaxConnections:  6,
					Lat:             s.Lat,
					Lon:             s.Lon,
				}, nil
			}
		}
	}
	return nil, fmt.Errorf("unknown storage %s", storageID)
}

// ConnectStorage rewires the plant onto the storage.
func (w *World) ConnectStorage(ctx context.Context, plantID, storageID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, err := w.findPlant(plantID)
	if err != nil {
		return err
	}
	p.StorageID = storageID
	return nil
}

// RouteOptions offers two fixed oil fields plus the home port.
func (w *World) RouteOptions(ctx context.Context, vesselID string) (*game.RouteOptions, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	v, ok := w.vessels[vesselID]
	if !ok {
		return nil, fmt.Errorf("unknown vessel %s", vesselID)
	}
	return &game.RouteOptions{
		Destinations: []game.Destination{
			{ID: "field-alpha", Name: "Alpha Field", DistanceNm: 140},
			{ID: "field-beta", Name: "Beta Field", DistanceNm: 320},
			{ID: "port-home", Name: "Home Port", DistanceNm: 12},
		},
		MaxSpeed: v.maxSpeed,
	}, nil
}

// Depart sends the vessel enroute with an arrival time from distance and
// speed.
func (w *World) Depart(ctx context.Context, vesselID, destinationID string, speed float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	v, ok := w.vessels[vesselID]
	if !ok {
		return fmt.Errorf("unknown vessel %s", vesselID)
	}
	opts := map[string]float64{"field-alpha": 140, "field-beta": 320, "port-home": 12}
	dist, ok := opts[destinationID]
	if !ok {
		return fmt.Errorf("unknown destination %s", destinationID)
	}
	if speed <= 0 {
		return fmt.Errorf("invalid speed %0.f", speed)
	}
	at := time.Now().Add(time.Duration(dist / speed * float64(time.Hour)))
	v.info.Status = game.VesselEnroute
	v.info.RouteID = destinationID
	v.info.ArrivalTime = &at
	return nil
}

// ScanStatus reports a fixed survey rectangle around the vessel.
func (w *World) ScanStatus(ctx context.Context, vesselID string) (*game.ScanStatus, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	v, ok := w.vessels[vesselID]
	if !ok {
		return nil, fmt.Errorf("unknown vessel %s", vesselID)
	}
	return &game.ScanStatus{
		Area: game.ScanArea{
			North: v.info.Lat + 0.5, South: v.info.Lat - 0.5,
			East: v.info.Lon + 0.5, West: v.info.Lon - 0.5,
		},
		MaxRadiusMeters: 25_000,
	}, nil
}

// StartScan records the scan site and puts the vessel into the scanning
// state.
func (w *World) StartScan(ctx context.Context, vesselID string, lat, lon, radiusMeters float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	v, ok := w.vessels[vesselID]
	if !ok {
		return fmt.Errorf("unknown vessel %s", vesselID)
	}
	v.info.Status = game.VesselScanning
	w.drillLog = append(w.drillLog, game.DrillHistoryEntry{Lat: lat, Lon: lon, RadiusMeters: radiusMeters})
	return nil
}

// DrillHistory returns all recorded scan and drill sites.
func (w *World) DrillHistory(ctx context.Context) ([]game.DrillHistoryEntry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]game.DrillHistoryEntry(nil), w.drillLog...), nil
}

// OilHoldings reports the oil position for the first docked vessel.
func (w *World) OilHoldings(ctx context.Context) (*game.OilHoldings, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	h := &game.OilHoldings{
		OnshoreHolding:  w.oilOnshore,
		OnshoreCapacity: w.oilOnshoreCap,
	}
	for _, v := range w.vessels {
		if v.info.Status == game.VesselInPortWithOil {
			h.BarrelsOnboard = v.info.OilOnboard
			break
		}
	}
	return h, nil
}

// SellOil sells barrels off the docked vessel.
func (w *World) SellOil(ctx context.Context, barrels float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.money += barrels * w.wobble(2, 1.5, 4.0) * 100
	w.drainDockedVessel(barrels)
	return nil
}

// TransferOil moves barrels into onshore storage.
func (w *World) TransferOil(ctx context.Context, barrels float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.oilOnshore+barrels > w.oilOnshoreCap {
		return fmt.Errorf("onshore storage overflow: %0.f + %0.f > %0.f", w.oilOnshore, barrels, w.oilOnshoreCap)
	}
	w.oilOnshore += barrels
	w.drainDockedVessel(barrels)
	return nil
}

func (w *World) drainDockedVessel(barrels float64) {
	for _, v := range w.vessels {
		if v.info.Status == game.VesselInPortWithOil {
			v.info.OilOnboard = math.Max(0, v.info.OilOnboard-barrels)
			if v.info.OilOnboard == 0 {
				v.info.Status = game.VesselInPort
			}
			return
		}
	}
}

// StartResearch marks the item funded; refunding an already-funded item
// fails the way the game does.
func (w *World) StartResearch(ctx context.Context, id int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.researchDone[id] {
		return fmt.Errorf("research %d already funded", id)
	}
	w.researchDone[id] = true
	return nil
}
