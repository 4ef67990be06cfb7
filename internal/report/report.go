// Package report renders the human-readable cycle summary. Pure sink: it
// consumes the snapshot, decisions, and results and feeds nothing back.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"github.com/acasperw/energy-manager-game-automation-tools/internal/config"
	"github.com/acasperw/energy-manager-game-automation-tools/internal/engine"
	"github.com/acasperw/energy-manager-game-automation-tools/internal/game"
	"github.com/acasperw/energy-manager-game-automation-tools/internal/market"
)

// Writer renders cycle summaries to an io.Writer.
type Writer struct {
	out io.Writer
	cfg *config.Config
}

// NewWriter creates a summary writer; a nil out defaults to stdout.
func NewWriter(out io.Writer, cfg *config.Config) *Writer {
	if out == nil {
		out = os.Stdout
	}
	return &Writer{out: out, cfg: cfg}
}

// ReportCycleSummary implements engine.Reporter.
func (w *Writer) ReportCycleSummary(snap *game.Snapshot, decisions engine.TaskDecisions, results *engine.CycleResults) {
	fmt.Fprintf(w.out, "\n-------- Cycle summary %s -------- %s --------\n",
		results.CycleID, results.StartedAt.Format("2006-01-02 15:04:05"))

	w.writeEnergySales(results.EnergySales)
	w.writeHydrogen(snap, decisions, results)
	w.writePurchases(snap, results)
	w.writePlants(results)
	w.writeResearch(results)
	w.writeVessels(results)
}

func (w *Writer) writeEnergySales(sales market.SalesSummary) {
	if len(sales.Results) == 0 {
		return
	}

	sold := 0
	var profit float64
	for _, r := range sales.Results {
		if r.Action == market.ActionSold {
			sold++
			profit += r.AdditionalProfit
		}
	}
	fmt.Fprintf(w.out, "\nEnergy sales: processed %d grids, sold %d for %s", sales.ProcessedGrids, sold, currency(sales.TotalSales()))
	if profit > 0 {
		fmt.Fprintf(w.out, " (%s additional profit)", currency(profit))
	}
	fmt.Fprintln(w.out)

	table := tablewriter.NewTable(w.out,
		tablewriter.WithHeader([]string{"Grid", "Action", "Sold To", "Sale", "Extra Profit"}),
	)
	for _, r := range sales.Results {
		note := string(r.Action)
		if r.HighUpcomingValue {
			note = "keep (higher upcoming value)"
		}
		_ = table.Append([]string{
			r.GridName,
			note,
			r.SoldTo,
			currency(r.Sale),
			currency(r.AdditionalProfit),
		})
	}
	_ = table.Render()
}

func (w *Writer) writeHydrogen(snap *game.Snapshot, decisions engine.TaskDecisions, results *engine.CycleResults) {
	if !decisions.SellHydrogen && !decisions.SellHydrogenSilo && !results.StoredHydrogen {
		return
	}
	fmt.Fprintf(w.out, "\nHydrogen: price %s/kg (threshold %s)\n",
		currency(snap.Hydrogen.PricePerKg), currency(w.cfg.Thresholds.HydrogenPriceMin))
	if results.HydrogenSales.Sale > 0 {
		suffix := ""
		if results.HydrogenSales.IncludingSilo {
			suffix = " (including silo)"
		}
		fmt.Fprintf(w.out, "Sold for %s%s\n", currency(results.HydrogenSales.Sale), suffix)
	}
	if results.StoredHydrogen {
		fmt.Fprintln(w.out, "Transferred hydrogen into silo")
	}
}

func (w *Writer) writePurchases(snap *game.Snapshot, results *engine.CycleResults) {
	if results.CO2QuotasBought > 0 {
		fmt.Fprintf(w.out, "\nCO2 quotas bought at %s: %s\n",
			currency(snap.CO2Price), humanize.Commaf(results.CO2QuotasBought))
	}

	prices := map[game.FuelType]float64{
		game.FuelOil:     snap.OilPrice,
		game.FuelCoal:    snap.CoalPrice,
		game.FuelUranium: snap.UraniumPrice,
	}
	wroteHeader := false
	for _, fuel := range []game.FuelType{game.FuelOil, game.FuelCoal, game.FuelUranium} {
		amount := results.CommoditiesBought[fuel]
		if amount <= 0 {
			continue
		}
		if !wroteHeader {
			fmt.Fprintln(w.out, "\nFuel purchased:")
			wroteHeader = true
		}
		fmt.Fprintf(w.out, "  %s: %s at %s\n", fuel, humanize.Commaf(amount), currency(prices[fuel]))
	}
}

func (w *Writer) writePlants(results *engine.CycleResults) {
	p := results.Plants
	if p.TotalEnabled+p.TotalDisabled+p.TotalSwitched+p.TotalSkipped+p.TotalErrors+p.SolarReenabled == 0 {
		return
	}
	fmt.Fprintf(w.out, "\nPlants: enabled %d, disabled %d, switched %d, skipped %d, errors %d\n",
		p.TotalEnabled, p.TotalDisabled, p.TotalSwitched, p.TotalSkipped, p.TotalErrors)
	for fuel, outcome := range p.Refueled {
		if outcome.Refueled {
			fmt.Fprintf(w.out, "  refueled %s to %.0f%%\n", fuel, outcome.Pct)
		}
	}
	if p.TotalOutOfFuel > 0 {
		fmt.Fprintf(w.out, "  out of fuel: %d\n", p.TotalOutOfFuel)
	}
	if p.SolarReenabled > 0 {
		fmt.Fprintf(w.out, "  solar plants re-enabled: %d\n", p.SolarReenabled)
	}
}

func (w *Writer) writeResearch(results *engine.CycleResults) {
	if results.ResearchStarted > 0 {
		fmt.Fprintf(w.out, "\nResearch: started %d items\n", results.ResearchStarted)
	}
}

func (w *Writer) writeVessels(results *engine.CycleResults) {
	if len(results.VesselReports) == 0 {
		return
	}
	fmt.Fprintln(w.out, "\nVessels:")
	for _, r := range results.VesselReports {
		line := fmt.Sprintf("  %s: %s → %s — %s", r.VesselName, r.PreviousStatus, r.NewStatus, r.Action)
		if r.Destination != nil {
			line += fmt.Sprintf(" (%s, %.1f nm)", r.Destination.Name, r.Destination.DistanceNm)
		}
		if r.SoldValue > 0 {
			line += fmt.Sprintf(", sold for %s", currency(r.SoldValue))
		}
		if r.BarrelsRemaining > 0 {
			line += fmt.Sprintf(", %s bbl left onboard", humanize.Commaf(r.BarrelsRemaining))
		}
		fmt.Fprintln(w.out, line)
	}
}

func currency(v float64) string {
	return "$" + humanize.CommafWithDigits(v, 2)
}
