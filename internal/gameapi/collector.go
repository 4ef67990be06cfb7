package gameapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/acasperw/energy-manager-game-automation-tools/internal/game"
	"github.com/acasperw/energy-manager-game-automation-tools/internal/store"
)

// lowDemandFloor marks a grid as low demand regardless of stored charge.
const lowDemandFloor = 10000

// priceHistoryDepth is how many recorded cycles feed a grid's rolling
// average price.
const priceHistoryDepth = 24

// Collector assembles the per-cycle snapshot by fanning out over the game's
// data endpoints concurrently. A failure on any required endpoint fails the
// whole collection; the runner retries the cycle.
type Collector struct {
	client *Client
	db     *store.DB
}

// NewCollector creates a snapshot collector. db may be nil, in which case no
// price history is recorded and rolling averages fall back to spot prices.
func NewCollector(client *Client, db *store.DB) *Collector {
	return &Collector{client: client, db: db}
}

// userData is the account-wide state endpoint.
type userData struct {
	UserData struct {
		Account        string  `json:"account"`
		EmissionPerKwh float64 `json:"emissionPerKwh"`
	} `json:"userData"`
	Plants map[string]struct {
		PlantType    string  `json:"plantType"`
		Online       int     `json:"online"`
		Wear         float64 `json:"wear"`
		Output       float64 `json:"output"`
		Capacity     float64 `json:"capacity"`
		StorageID    string  `json:"storageId"`
		FuelCapacity float64 `json:"fuelCapacity"`
		FuelHolding  float64 `json:"fuelHolding"`
		Lat          float64 `json:"lat"`
		Lon          float64 `json:"lon"`
	} `json:"plants"`
	Storage map[string]struct {
		Discharging int `json:"discharging"`
	} `json:"storage"`
	Grid map[string]struct {
		GridName string `json:"gridName"`
	} `json:"grid"`
	Vessels map[string]struct {
		Name        string  `json:"name"`
		Status      string  `json:"status"`
		Lat         float64 `json:"lat"`
		Lon         float64 `json:"lon"`
		OilOnboard  float64 `json:"oilOnboard"`
		OilCapacity float64 `json:"oilCapacity"`
		FieldLoc    string  `json:"fieldLoc"`
		RouteID     string  `json:"routeId"`
		Arrival     int64   `json:"arrival"`
	} `json:"vessels"`
}

// productionEntry is one storage's row in the production endpoint.
type productionEntry struct {
	LandID        string  `json:"landId"`
	Value         float64 `json:"value"`
	Upcoming      float64 `json:"upcoming"`
	PctOfMaxPrice float64 `json:"pctOfMaxPrice"`
	CurrentCharge float64 `json:"currentCharge"`
	Capacity      float64 `json:"capacity"`
	Type          string  `json:"type"`
	ChargePerSec  float64 `json:"chargePerSec"`
	Lat           float64 `json:"lat"`
	Lon           float64 `json:"lon"`
}

// CollectSnapshot implements engine.Collector against the live game.
func (col *Collector) CollectSnapshot(ctx context.Context) (*game.Snapshot, error) {
	var (
		user       userData
		production map[string]productionEntry
		demand     map[string]float64
		hydrogen   game.Hydrogen
		research   game.Research

		pricesMu sync.Mutex
		prices   = map[string]float64{}
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return col.client.getJSON(gctx, "/api/user.data.php", &user)
	})
	g.Go(func() error {
		return col.client.getJSON(gctx, "/api/production.php", &production)
	})
	g.Go(func() error {
		body, err := col.client.post(gctx, "/api/demand.update.php")
		if err != nil {
			return err
		}
		return decodeDemand(body, &demand)
	})
	for _, target := range []string{"hydrogen", "co2", "oil", "coal", "uranium"} {
		target := target
		g.Go(func() error {
			price, err := col.currentPrice(gctx, target)
			if err != nil {
				return err
			}
			pricesMu.Lock()
			prices[target] = price
			pricesMu.Unlock()
			return nil
		})
	}
	g.Go(func() error {
		var err error
		hydrogen, err = col.collectHydrogen(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		research, err = col.collectResearch(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("collect snapshot: %w", err)
	}

	now := time.Now()
	snap := &game.Snapshot{
		Hydrogen:       hydrogen,
		Research:       research,
		EmissionPerKwh: user.UserData.EmissionPerKwh,
		CO2Price:       prices["co2"],
		OilPrice:       prices["oil"],
		CoalPrice:      prices["coal"],
		UraniumPrice:   prices["uranium"],
		UserMoney:      parseMoney(user.UserData.Account),
		CollectedAt:    now,
	}
	snap.Hydrogen.PricePerKg = prices["hydrogen"]

	snap.Plants = buildPlants(user)
	snap.Grids = col.buildGrids(user, production, demand, now)
	snap.Vessels = buildVessels(user)

	// p2x storages feed the hydrogen decisions.
	for _, grid := range snap.Grids {
		for _, s := range grid.Storages {
			if s.Type == game.StorageP2X {
				snap.Hydrogen.P2XStorageIDs = append(snap.Hydrogen.P2XStorageIDs, s.ID)
				snap.Hydrogen.CurrentStorageCharge += s.CurrentCharge
			}
		}
	}
	snap.Hydrogen.SellValue = snap.Hydrogen.CurrentStorageCharge * snap.Hydrogen.PricePerKg
	snap.Hydrogen.SiloSellValue = snap.Hydrogen.SiloHolding * snap.Hydrogen.PricePerKg

	slog.Debug("snapshot collected",
		"plants", len(snap.Plants),
		"grids", len(snap.Grids),
		"vessels", len(snap.Vessels),
		"research_candidates", len(snap.Research.Candidates),
	)
	return snap, nil
}

func buildPlants(user userData) []game.Plant {
	plants := make([]game.Plant, 0, len(user.Plants))
	for id, p := range user.Plants {
		plants = append(plants, game.Plant{
			ID:           id,
			Type:         game.PlantType(p.PlantType),
			Online:       p.Online == 1,
			WearPct:      p.Wear,
			Output:       p.Output,
			Capacity:     p.Capacity,
			StorageID:    p.StorageID,
			FuelCapacity: p.FuelCapacity,
			FuelHolding:  p.FuelHolding,
			Lat:          p.Lat,
			Lon:          p.Lon,
		})
	}
	sort.Slice(plants, func(i, j int) bool { return plants[i].ID < plants[j].ID })
	return plants
}

// buildGrids groups storages by grid and derives the aggregate fields the
// decision core reads. Only storages with at least one connected plant count
// toward charge totals; an orphaned storage can hold charge that no sale
// can move.
func (col *Collector) buildGrids(user userData, production map[string]productionEntry, demand map[string]float64, now time.Time) []game.GridStorage {
	byGrid := map[string]*game.GridStorage{}

	storageIDs := make([]string, 0, len(production))
	for id := range production {
		storageIDs = append(storageIDs, id)
	}
	sort.Strings(storageIDs)

	connected := map[string]int{}
	expected := map[string]float64{}
	for _, p := range user.Plants {
		connected[p.StorageID]++
		if p.Online == 1 {
			expected[p.StorageID] += p.Output / 1000
		}
	}

	for _, storageID := range storageIDs {
		entry := production[storageID]
		grid, ok := byGrid[entry.LandID]
		if !ok {
			grid = &game.GridStorage{
				GridID:           entry.LandID,
				GridName:         user.Grid[entry.LandID].GridName,
				MwhValue:         entry.Value * 1000,
				UpcomingMwhValue: entry.Upcoming * 1000,
				PctOfMaxPrice:    entry.PctOfMaxPrice,
				Demand:           demand[entry.LandID],
			}
			byGrid[entry.LandID] = grid
		}

		discharging := user.Storage[storageID].Discharging == 1
		grid.Storages = append(grid.Storages, game.StorageInfo{
			ID:                   storageID,
			Type:                 game.StorageType(entry.Type),
			CurrentCharge:        entry.CurrentCharge,
			Capacity:             entry.Capacity,
			PlantsConnected:      connected[storageID],
			ChargePerSec:         entry.ChargePerSec,
			ExpectedChargePerSec: expected[storageID],
			Discharging:          discharging,
			Lat:                  entry.Lat,
			Lon:                  entry.Lon,
		})
		if connected[storageID] > 0 {
			grid.TotalCurrentCharge += entry.CurrentCharge
			grid.TotalCapacity += entry.Capacity
		}
		if discharging {
			grid.Discharging = true
		}
	}

	gridIDs := make([]string, 0, len(byGrid))
	for id := range byGrid {
		gridIDs = append(gridIDs, id)
	}
	sort.Strings(gridIDs)

	grids := make([]game.GridStorage, 0, len(byGrid))
	for _, id := range gridIDs {
		grid := byGrid[id]
		if grid.TotalCapacity > 0 {
			grid.ChargePercentage = grid.TotalCurrentCharge / grid.TotalCapacity * 100
		}
		grid.IsLowDemand = grid.Demand < lowDemandFloor || grid.Demand < grid.TotalCurrentCharge
		grid.AvgMwhValue = col.rollingAverage(grid.GridID, grid.MwhValue, now)
		grids = append(grids, *grid)
	}
	return grids
}

// rollingAverage records this cycle's price and returns the rolling average
// over recent cycles, falling back to the spot price without history.
func (col *Collector) rollingAverage(gridID string, mwhValue float64, now time.Time) float64 {
	if col.db == nil {
		return mwhValue
	}
	if err := col.db.RecordPrice(gridID, mwhValue, now); err != nil {
		slog.Warn("record grid price", "grid", gridID, "error", err)
	}
	avg, ok, err := col.db.AveragePrice(gridID, priceHistoryDepth)
	if err != nil {
		slog.Warn("read grid price average", "grid", gridID, "error", err)
		return mwhValue
	}
	if !ok {
		return mwhValue
	}
	return avg
}

func buildVessels(user userData) []game.VesselInfo {
	vessels := make([]game.VesselInfo, 0, len(user.Vessels))
	for id, v := range user.Vessels {
		info := game.VesselInfo{
			ID:          id,
			Name:        v.Name,
			Status:      game.VesselStatus(v.Status),
			Lat:         v.Lat,
			Lon:         v.Lon,
			OilOnboard:  v.OilOnboard,
			OilCapacity: v.OilCapacity,
			FieldLoc:    v.FieldLoc,
			RouteID:     v.RouteID,
		}
		if v.Arrival > 0 {
			at := time.Unix(v.Arrival, 0)
			info.ArrivalTime = &at
		}
		vessels = append(vessels, info)
	}
	sort.Slice(vessels, func(i, j int) bool { return vessels[i].ID < vessels[j].ID })
	return vessels
}

// currentPrice reads the last entry of a commodity's price history series.
func (col *Collector) currentPrice(ctx context.Context, target string) (float64, error) {
	var series []float64
	if err := col.client.getJSON(ctx, "/api/price.history.api.php?target="+target, &series); err != nil {
		return 0, err
	}
	if len(series) == 0 {
		return 0, fmt.Errorf("empty %s price history", target)
	}
	return series[len(series)-1], nil
}

var (
	siloHoldingRe  = regexp.MustCompile(`id="siloHolding"[^>]*>([\d,.]+)`)
	siloCapacityRe = regexp.MustCompile(`id="siloCapacity"[^>]*>([\d,.]+)`)
)

func (col *Collector) collectHydrogen(ctx context.Context) (game.Hydrogen, error) {
	body, err := col.client.do(ctx, "GET", "/hydrogen-exchange.php")
	if err != nil {
		return game.Hydrogen{}, err
	}
	var h game.Hydrogen
	if m := siloHoldingRe.FindStringSubmatch(body); m != nil {
		h.SiloHolding = parseMoney(m[1])
	}
	if m := siloCapacityRe.FindStringSubmatch(body); m != nil {
		h.SiloCapacity = parseMoney(m[1])
	}
	return h, nil
}

var (
	researchItemRe     = regexp.MustCompile(`data-research-id="(\d+)"\s+data-price="([\d.]+)"`)
	researchStationsRe = regexp.MustCompile(`id="availableStations"[^>]*>(\d+)`)
)

func (col *Collector) collectResearch(ctx context.Context) (game.Research, error) {
	body, err := col.client.do(ctx, "GET", "/research.php")
	if err != nil {
		return game.Research{}, err
	}
	var r game.Research
	if m := researchStationsRe.FindStringSubmatch(body); m != nil {
		r.AvailableStations, _ = strconv.Atoi(m[1])
	}
	for _, m := range researchItemRe.FindAllStringSubmatch(body, -1) {
		id, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		price, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		r.Candidates = append(r.Candidates, game.ResearchInfo{ID: id, Price: price})
	}
	return r, nil
}

// decodeDemand tolerates both a bare map and a {gridList: {...}} wrapper.
func decodeDemand(body string, demand *map[string]float64) error {
	if err := json.Unmarshal([]byte(body), demand); err == nil && len(*demand) > 0 {
		return nil
	}
	var wrapped struct {
		GridList map[string]float64 `json:"gridList"`
	}
	if err := json.Unmarshal([]byte(body), &wrapped); err != nil {
		return fmt.Errorf("decode demand: %w", err)
	}
	*demand = wrapped.GridList
	return nil
}

// parseMoney strips thousands separators and currency prefixes from a
// display amount.
func parseMoney(s string) float64 {
	cleaned := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= '0' && c <= '9') || c == '.' || c == '-' {
			cleaned = append(cleaned, c)
		}
	}
	v, _ := strconv.ParseFloat(string(cleaned), 64)
	return v
}
