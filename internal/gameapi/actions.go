package gameapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/acasperw/energy-manager-game-automation-tools/internal/game"
)

// SellGridLocal sells a grid's charge into its own demand zone.
func (c *Client) SellGridLocal(ctx context.Context, gridID string) error {
	_, err := c.post(ctx, "/api/energy.sell.php?mode=local&gridId="+url.QueryEscape(gridID))
	return err
}

// SellGridTo transfers a grid's charge to the buyer grid's market.
func (c *Client) SellGridTo(ctx context.Context, gridID, buyerGridID string) error {
	_, err := c.post(ctx, fmt.Sprintf("/api/energy.sell.php?mode=transfer&gridId=%s&buyerId=%s",
		url.QueryEscape(gridID), url.QueryEscape(buyerGridID)))
	return err
}

// SellHydrogen sells the charge of the given p2x storages at the spot price.
func (c *Client) SellHydrogen(ctx context.Context, storageIDs []string) error {
	for _, id := range storageIDs {
		if _, err := c.post(ctx, "/api/hydrogen.sell.php?storageId="+url.QueryEscape(id)); err != nil {
			return fmt.Errorf("sell hydrogen storage %s: %w", id, err)
		}
	}
	return nil
}

// SellHydrogenSilo sells the silo stockpile.
func (c *Client) SellHydrogenSilo(ctx context.Context) error {
	_, err := c.post(ctx, "/api/hydrogen.sell.php?silo=1")
	return err
}

// StoreHydrogen transfers p2x charge into the silo instead of selling it.
func (c *Client) StoreHydrogen(ctx context.Context, storageIDs []string) error {
	for _, id := range storageIDs {
		if _, err := c.post(ctx, "/api/hydrogen.store.php?storageId="+url.QueryEscape(id)); err != nil {
			return fmt.Errorf("store hydrogen storage %s: %w", id, err)
		}
	}
	return nil
}

// BuyCO2Quotas purchases the given amount of emission quotas.
func (c *Client) BuyCO2Quotas(ctx context.Context, amount float64) error {
	_, err := c.post(ctx, "/api/co2.buy.php?amount="+formatAmount(amount))
	return err
}

// MaxPurchasable reads the market-side cap on one purchase of the fuel from
// the fuel market page's quantity slider.
func (c *Client) MaxPurchasable(ctx context.Context, fuel game.FuelType) (float64, error) {
	body, err := c.do(ctx, "GET", "/fuel-market.php?type="+url.QueryEscape(string(fuel)))
	if err != nil {
		return 0, err
	}
	return parseSlider(body).Max, nil
}

// BuyCommodity purchases the given amount of fuel at the market price.
func (c *Client) BuyCommodity(ctx context.Context, fuel game.FuelType, amount float64) error {
	_, err := c.post(ctx, fmt.Sprintf("/api/fuel.buy.php?type=%s&amount=%s",
		url.QueryEscape(string(fuel)), formatAmount(amount)))
	return err
}

// EnablePlant brings a plant online. Fuel-based plants go through the fuel
// endpoint variant, which the game rejects when the plant is dry.
func (c *Client) EnablePlant(ctx context.Context, plantID string, fuelBased bool) error {
	path := "/api/plant.toggle.php?action=enable&id=" + url.QueryEscape(plantID)
	if fuelBased {
		path += "&fuel=1"
	}
	_, err := c.post(ctx, path)
	return err
}

// DisablePlant takes a plant offline.
func (c *Client) DisablePlant(ctx context.Context, plantID string) error {
	_, err := c.post(ctx, "/api/plant.toggle.php?action=disable&id="+url.QueryEscape(plantID))
	return err
}

// FuelGauge reads the refuel slider for one fuel type: the current fill
// percentage and the maximum reachable given onshore stock.
func (c *Client) FuelGauge(ctx context.Context, fuel game.FuelType) (game.FuelGauge, error) {
	body, err := c.do(ctx, "GET", "/fuel-management.php?type="+url.QueryEscape(string(fuel)))
	if err != nil {
		return game.FuelGauge{}, err
	}
	slider := parseSlider(body)
	return game.FuelGauge{CurrentPct: slider.From, MaxPct: slider.Max}, nil
}

// Refuel fills all plants of the fuel type to the given percentage.
func (c *Client) Refuel(ctx context.Context, fuel game.FuelType, pct float64) error {
	_, err := c.post(ctx, fmt.Sprintf("/api/fuel.refill.php?type=%s&pct=%s",
		url.QueryEscape(string(fuel)), formatAmount(pct)))
	return err
}

// PlantConnection scrapes a plant's detail page for its storage hookup and
// the maximum connection distance.
func (c *Client) PlantConnection(ctx context.Context, plantID string) (*game.PlantConnection, error) {
	body, err := c.do(ctx, "GET", "/plant.php?id="+url.QueryEscape(plantID))
	if err != nil {
		return nil, err
	}
	conn, ok := parseConnectionInfo(body)
	if !ok {
		return nil, fmt.Errorf("plant %s: no connection info on page", plantID)
	}
	return conn, nil
}

// StorageSlots reads a storage's live connection occupancy.
func (c *Client) StorageSlots(ctx context.Context, storageID string, conn game.PlantConnection) (*game.StorageSlots, error) {
	var resp struct {
		Connected int     `json:"connected"`
		Max       int     `json:"maxConnections"`
		Lat       float64 `json:"lat"`
		Lon       float64 `json:"lon"`
	}
	path := fmt.Sprintf("/api/storage.connections.php?id=%s&landId=%s",
		url.QueryEscape(storageID), url.QueryEscape(conn.LandID))
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &game.StorageSlots{
		PlantsConnected: resp.Connected,
		MaxConnections:  resp.Max,
		Lat:             resp.Lat,
		Lon:             resp.Lon,
	}, nil
}

// ConnectStorage rewires a plant onto the given storage.
func (c *Client) ConnectStorage(ctx context.Context, plantID, storageID string) error {
	_, err := c.post(ctx, fmt.Sprintf("/api/storage.connect.php?plantId=%s&storageId=%s",
		url.QueryEscape(plantID), url.QueryEscape(storageID)))
	return err
}

// RouteOptions scrapes the route plotter for a vessel's reachable
// destinations and its maximum speed in knots.
func (c *Client) RouteOptions(ctx context.Context, vesselID string) (*game.RouteOptions, error) {
	body, err := c.do(ctx, "GET", "/route-plotter.php?id="+url.QueryEscape(vesselID))
	if err != nil {
		return nil, err
	}
	return &game.RouteOptions{
		Destinations: parseDestinations(body),
		MaxSpeed:     parseSlider(body).Max,
	}, nil
}

// Depart sends a vessel toward the destination at the given speed.
func (c *Client) Depart(ctx context.Context, vesselID, destinationID string, speed float64) error {
	_, err := c.post(ctx, fmt.Sprintf("/api/route.start.php?vesselId=%s&destination=%s&speed=%s",
		url.QueryEscape(vesselID), url.QueryEscape(destinationID), formatAmount(speed)))
	return err
}

// ScanStatus scrapes the survey page for the vessel's scan boundary and the
// maximum scan radius.
func (c *Client) ScanStatus(ctx context.Context, vesselID string) (*game.ScanStatus, error) {
	body, err := c.do(ctx, "GET", "/oil-survey.php?id="+url.QueryEscape(vesselID))
	if err != nil {
		return nil, err
	}
	area, ok := parseScanArea(body)
	if !ok {
		return nil, fmt.Errorf("vessel %s: no scan boundary on survey page", vesselID)
	}
	return &game.ScanStatus{
		Area:            area,
		MaxRadiusMeters: parseSlider(body).Max,
	}, nil
}

// StartScan launches a survey centered at the point with the given radius.
func (c *Client) StartScan(ctx context.Context, vesselID string, lat, lon, radiusMeters float64) error {
	_, err := c.post(ctx, fmt.Sprintf("/api/scan.start.php?vesselId=%s&lat=%s&lon=%s&radius=%s",
		url.QueryEscape(vesselID), formatAmount(lat), formatAmount(lon), formatAmount(radiusMeters)))
	return err
}

// DrillHistory returns every prior drill site with its exclusion radius.
func (c *Client) DrillHistory(ctx context.Context) ([]game.DrillHistoryEntry, error) {
	var resp []struct {
		Lat    float64 `json:"lat"`
		Lon    float64 `json:"lon"`
		Radius float64 `json:"radius"`
	}
	if err := c.getJSON(ctx, "/api/drill.history.php", &resp); err != nil {
		return nil, err
	}
	entries := make([]game.DrillHistoryEntry, 0, len(resp))
	for _, e := range resp {
		entries = append(entries, game.DrillHistoryEntry{
			Lat:          e.Lat,
			Lon:          e.Lon,
			RadiusMeters: e.Radius,
		})
	}
	return entries, nil
}

// OilHoldings reads the oil position: barrels on the docked vessel plus
// onshore holding and capacity.
func (c *Client) OilHoldings(ctx context.Context) (*game.OilHoldings, error) {
	body, err := c.do(ctx, "GET", "/oil-management.php")
	if err != nil {
		return nil, err
	}
	var h game.OilHoldings
	if m := bblCapacityRe.FindStringSubmatch(body); m != nil {
		h.OnshoreCapacity, _ = strconv.ParseFloat(m[1], 64)
	}
	slider := parseSlider(body)
	h.BarrelsOnboard = slider.Max
	h.OnshoreHolding = slider.From
	return &h, nil
}

// SellOil sells barrels from the docked vessel at the spot price.
func (c *Client) SellOil(ctx context.Context, barrels float64) error {
	_, err := c.post(ctx, "/api/oil.sell.php?amount="+formatAmount(barrels))
	return err
}

// TransferOil moves barrels from the docked vessel into onshore storage.
func (c *Client) TransferOil(ctx context.Context, barrels float64) error {
	_, err := c.post(ctx, "/api/oil.transfer.php?amount="+formatAmount(barrels))
	return err
}

// StartResearch funds one research item.
func (c *Client) StartResearch(ctx context.Context, id int) error {
	_, err := c.post(ctx, "/api/research.start.php?id="+strconv.Itoa(id))
	return err
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
