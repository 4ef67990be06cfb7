package market

import (
	"context"
	"log/slog"
	"math"

	"github.com/acasperw/energy-manager-game-automation-tools/internal/config"
	"github.com/acasperw/energy-manager-game-automation-tools/internal/game"
)

// CommodityTrader executes CO2 quota and fuel commodity purchases.
type CommodityTrader interface {
	BuyCO2Quotas(ctx context.Context, amount float64) error
	// MaxPurchasable is the market-side cap on one purchase of the fuel.
	MaxPurchasable(ctx context.Context, fuel game.FuelType) (float64, error)
	BuyCommodity(ctx context.Context, fuel game.FuelType, amount float64) error
}

// quotasPerGram sizes a CO2 quota purchase from the current emission rate.
const quotasPerGram = 1.65e8

// BuyCO2Quotas purchases emission quotas sized to the current emission per
// kWh. Returns the quota amount bought, zero on failure.
func BuyCO2Quotas(ctx context.Context, trader CommodityTrader, snap *game.Snapshot) float64 {
	amount := math.Round(quotasPerGram*snap.EmissionPerKwh) - 1000
	if amount <= 0 {
		return 0
	}
	if err := trader.BuyCO2Quotas(ctx, amount); err != nil {
		slog.Error("co2 quota purchase failed", "error", err)
		return 0
	}
	return amount
}

type commodity struct {
	fuel     game.FuelType
	price    func(*game.Snapshot) float64
	maxPrice func(config.Thresholds) float64
}

var commodities = []commodity{
	{game.FuelOil, func(s *game.Snapshot) float64 { return s.OilPrice }, func(t config.Thresholds) float64 { return t.OilPriceMax }},
	{game.FuelCoal, func(s *game.Snapshot) float64 { return s.CoalPrice }, func(t config.Thresholds) float64 { return t.CoalPriceMax }},
	{game.FuelUranium, func(s *game.Snapshot) float64 { return s.UraniumPrice }, func(t config.Thresholds) float64 { return t.UraniumPriceMax }},
}

// BuyCommodities purchases each fuel trading below its price ceiling, capped
// by both the market limit and remaining money. One commodity's failure
// never blocks the others.
func BuyCommodities(ctx context.Context, trader CommodityTrader, snap *game.Snapshot, cfg *config.Config) map[game.FuelType]float64 {
	bought := make(map[game.FuelType]float64, len(commodities))
	money := snap.UserMoney

	for _, c := range commodities {
		bought[c.fuel] = 0

		price := c.price(snap)
		if price <= 0 || price >= c.maxPrice(cfg.Thresholds) {
			continue
		}

		marketMax, err := trader.MaxPurchasable(ctx, c.fuel)
		if err != nil {
			slog.Error("commodity limit query failed", "fuel", c.fuel, "error", err)
			continue
		}

		affordable := math.Floor(money / price)
		amount := math.Min(marketMax, affordable)
		if amount <= 0 {
			continue
		}

		if err := trader.BuyCommodity(ctx, c.fuel, amount); err != nil {
			slog.Error("commodity purchase failed", "fuel", c.fuel, "error", err)
			continue
		}

		bought[c.fuel] = amount
		money -= amount * price
	}

	return bought
}
