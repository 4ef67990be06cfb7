package market

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/acasperw/energy-manager-game-automation-tools/internal/config"
	"github.com/acasperw/energy-manager-game-automation-tools/internal/game"
)

type fakeCommodityTrader struct {
	co2Bought float64
	bought    map[game.FuelType]float64
	limits    map[game.FuelType]float64

	failCO2  bool
	failFuel game.FuelType
}

func newFakeCommodityTrader() *fakeCommodityTrader {
	return &fakeCommodityTrader{
		bought: map[game.FuelType]float64{},
		limits: map[game.FuelType]float64{
			game.FuelOil:     1_000_000,
			game.FuelCoal:    1_000_000,
			game.FuelUranium: 1_000_000,
		},
	}
}

func (f *fakeCommodityTrader) BuyCO2Quotas(ctx context.Context, amount float64) error {
	if f.failCO2 {
		return errors.New("quota purchase rejected")
	}
	f.co2Bought = amount
	return nil
}

func (f *fakeCommodityTrader) MaxPurchasable(ctx context.Context, fuel game.FuelType) (float64, error) {
	return f.limits[fuel], nil
}

func (f *fakeCommodityTrader) BuyCommodity(ctx context.Context, fuel game.FuelType, amount float64) error {
	if fuel == f.failFuel {
		return errors.New("purchase rejected")
	}
	f.bought[fuel] = amount
	return nil
}

func TestBuyCO2Quotas(t *testing.T) {
	t.Run("amount follows the emission rate", func(t *testing.T) {
		snap := &game.Snapshot{EmissionPerKwh: 2}
		trader := newFakeCommodityTrader()
		got := BuyCO2Quotas(context.Background(), trader, snap)

		want := math.Round(1.65e8*2) - 1000
		if got != want || trader.co2Bought != want {
			t.Fatalf("bought %v, want %v", got, want)
		}
	})

	t.Run("zero emission buys nothing", func(t *testing.T) {
		if got := BuyCO2Quotas(context.Background(), newFakeCommodityTrader(), &game.Snapshot{}); got != 0 {
			t.Fatalf("bought %v with no emissions", got)
		}
	})

	t.Run("failed purchase reports zero", func(t *testing.T) {
		trader := newFakeCommodityTrader()
		trader.failCO2 = true
		snap := &game.Snapshot{EmissionPerKwh: 2}
		if got := BuyCO2Quotas(context.Background(), trader, snap); got != 0 {
			t.Fatalf("failed purchase reported %v", got)
		}
	})
}

func TestBuyCommodities(t *testing.T) {
	cfg := config.Default()

	t.Run("buys only fuels under their ceiling", func(t *testing.T) {
		snap := &game.Snapshot{
			UserMoney:    1_000_000,
			OilPrice:     cfg.Thresholds.OilPriceMax / 2,
			CoalPrice:    cfg.Thresholds.CoalPriceMax * 2,
			UraniumPrice: cfg.Thresholds.UraniumPriceMax * 2,
		}
		trader := newFakeCommodityTrader()
		bought := BuyCommodities(context.Background(), trader, snap, cfg)

		if bought[game.FuelOil] <= 0 {
			t.Error("cheap oil must be bought")
		}
		if bought[game.FuelCoal] != 0 || bought[game.FuelUranium] != 0 {
			t.Errorf("expensive fuels bought: %v", bought)
		}
	})

	t.Run("market cap bounds the amount", func(t *testing.T) {
		snap := &game.Snapshot{UserMoney: 1_000_000, OilPrice: 1}
		trader := newFakeCommodityTrader()
		trader.limits[game.FuelOil] = 500
		bought := BuyCommodities(context.Background(), trader, snap, cfg)

		if bought[game.FuelOil] != 500 {
			t.Fatalf("bought %v oil, want market cap 500", bought[game.FuelOil])
		}
	})

	t.Run("money bounds the amount", func(t *testing.T) {
		snap := &game.Snapshot{UserMoney: 100, OilPrice: 2}
		trader := newFakeCommodityTrader()
		bought := BuyCommodities(context.Background(), trader, snap, cfg)

		if bought[game.FuelOil] != 50 {
			t.Fatalf("bought %v oil, want 50 with $100 at $2", bought[game.FuelOil])
		}
	})

	t.Run("earlier purchases shrink the later budget", func(t *testing.T) {
		snap := &game.Snapshot{
			UserMoney: 1000,
			OilPrice:  1,
			CoalPrice: 0.125,
		}
		trader := newFakeCommodityTrader()
		trader.limits[game.FuelOil] = 600
		bought := BuyCommodities(context.Background(), trader, snap, cfg)

		if bought[game.FuelOil] != 600 {
			t.Fatalf("bought %v oil, want 600", bought[game.FuelOil])
		}
		// $400 left at $0.125: 3200 coal.
		if bought[game.FuelCoal] != 3200 {
			t.Fatalf("bought %v coal, want 3200", bought[game.FuelCoal])
		}
	})

	t.Run("one failure never blocks the others", func(t *testing.T) {
		snap := &game.Snapshot{UserMoney: 1000, OilPrice: 1, CoalPrice: 0.1}
		trader := newFakeCommodityTrader()
		trader.failFuel = game.FuelOil
		bought := BuyCommodities(context.Background(), trader, snap, cfg)

		if bought[game.FuelOil] != 0 {
			t.Errorf("failed oil purchase reported %v", bought[game.FuelOil])
		}
		if bought[game.FuelCoal] <= 0 {
			t.Error("coal purchase must proceed after the oil failure")
		}
	})
}
