package market

import (
	"context"
	"log/slog"

	"github.com/acasperw/energy-manager-game-automation-tools/internal/game"
)

// HydrogenTrader executes hydrogen sales and silo transfers.
type HydrogenTrader interface {
	SellHydrogen(ctx context.Context, storageIDs []string) error
	SellHydrogenSilo(ctx context.Context) error
	StoreHydrogen(ctx context.Context, storageIDs []string) error
}

// HydrogenSales reports the hydrogen sale pass.
type HydrogenSales struct {
	Sale          float64
	IncludingSilo bool
}

// SellHydrogen sells grid hydrogen and, when flagged, the silo stockpile.
// Each leg fails independently.
func SellHydrogen(ctx context.Context, trader HydrogenTrader, snap *game.Snapshot, sellGrid, sellSilo bool) HydrogenSales {
	var sales HydrogenSales

	if sellGrid && snap.Hydrogen.SellValue > 0 {
		if err := trader.SellHydrogen(ctx, snap.Hydrogen.P2XStorageIDs); err != nil {
			slog.Error("hydrogen sale failed", "error", err)
		} else {
			sales.Sale += snap.Hydrogen.SellValue
		}
	}

	if sellSilo && snap.Hydrogen.SiloSellValue > 0 {
		if err := trader.SellHydrogenSilo(ctx); err != nil {
			slog.Error("hydrogen silo sale failed", "error", err)
		} else {
			sales.Sale += snap.Hydrogen.SiloSellValue
			sales.IncludingSilo = true
		}
	}

	return sales
}

// StoreHydrogen transfers grid hydrogen into the silo when there is charge
// to move and headroom to receive it. Reports whether a transfer happened.
func StoreHydrogen(ctx context.Context, trader HydrogenTrader, snap *game.Snapshot) bool {
	h := snap.Hydrogen
	if h.CurrentStorageCharge <= 0 || h.SiloHolding >= h.SiloCapacity {
		return false
	}
	if err := trader.StoreHydrogen(ctx, h.P2XStorageIDs); err != nil {
		slog.Error("hydrogen silo transfer failed", "error", err)
		return false
	}
	return true
}
