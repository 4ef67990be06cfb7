// Package vessels advances each vessel through its port → scan → drill →
// return cycle. Vessels that are enroute, scanning, or drilling are
// mid-operation and left alone; everything else gets exactly one transition
// per cycle. The depleted-field memory is the only state the decision core
// carries across cycles.
package vessels

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/acasperw/energy-manager-game-automation-tools/internal/config"
	"github.com/acasperw/energy-manager-game-automation-tools/internal/game"
)

// Controller executes vessel actions against the game.
type Controller interface {
	RouteOptions(ctx context.Context, vesselID string) (*game.RouteOptions, error)
	Depart(ctx context.Context, vesselID, destinationID string, speed float64) error
	ScanStatus(ctx context.Context, vesselID string) (*game.ScanStatus, error)
	StartScan(ctx context.Context, vesselID string, lat, lon, radiusMeters float64) error
	DrillHistory(ctx context.Context) ([]game.DrillHistoryEntry, error)
	OilHoldings(ctx context.Context) (*game.OilHoldings, error)
	SellOil(ctx context.Context, barrels float64) error
	TransferOil(ctx context.Context, barrels float64) error
}

// DepletedFieldStore is the durable memory of exhausted oil fields. Lookups
// purge entries older than the depletion window before checking membership.
type DepletedFieldStore interface {
	IsDepleted(fieldID string) (bool, error)
	MarkDepleted(fieldID string) error
	Prune(olderThan time.Time) error
}

// Report records one vessel's transition this cycle.
type Report struct {
	VesselID         string
	VesselName       string
	PreviousStatus   game.VesselStatus
	NewStatus        game.VesselStatus
	Action           string
	Destination      *game.Destination
	SoldValue        float64
	BarrelsRemaining float64
}

// Manager drives the vessel state machine.
type Manager struct {
	ctl    Controller
	fields DepletedFieldStore
	cfg    *config.Config
}

// NewManager creates a vessel manager.
func NewManager(ctl Controller, fields DepletedFieldStore, cfg *config.Config) *Manager {
	return &Manager{ctl: ctl, fields: fields, cfg: cfg}
}

// Process advances every actionable vessel by one transition. A vessel's
// failure is reported and does not abort the batch.
func (m *Manager) Process(ctx context.Context, snap *game.Snapshot) []Report {
	var reports []Report
	for _, v := range snap.Vessels {
		if v.Status.MidOperation() {
			continue
		}
		report, err := m.processVessel(ctx, v, snap)
		if err != nil {
			slog.Error("vessel transition failed", "vessel", v.ID, "status", v.Status, "error", err)
			reports = append(reports, Report{
				VesselID:       v.ID,
				VesselName:     v.Name,
				PreviousStatus: v.Status,
				NewStatus:      v.Status,
				Action:         fmt.Sprintf("error: %v", err),
			})
			continue
		}
		reports = append(reports, report...)
	}
	return reports
}

func (m *Manager) processVessel(ctx context.Context, v game.VesselInfo, snap *game.Snapshot) ([]Report, error) {
	switch v.Status {
	case game.VesselInPort:
		r, err := m.dispatch(ctx, v, "Sent to oil field")
		if err != nil {
			return nil, err
		}
		return []Report{r}, nil

	case game.VesselAnchored:
		return m.scan(ctx, v)

	case game.VesselAnchoredWithOil:
		r, err := m.dispatch(ctx, v, "Returning with oil")
		if err != nil {
			return nil, err
		}
		return []Report{r}, nil

	case game.VesselInPortWithOil:
		return m.unload(ctx, v, snap)

	default:
		return nil, fmt.Errorf("unhandled vessel status %q", v.Status)
	}
}

// dispatch sends the vessel to the nearest non-depleted destination at its
// maximum allowed speed.
func (m *Manager) dispatch(ctx context.Context, v game.VesselInfo, action string) (Report, error) {
	route, err := m.ctl.RouteOptions(ctx, v.ID)
	if err != nil {
		return Report{}, fmt.Errorf("route options: %w", err)
	}

	dest, err := m.nearestValidDestination(route.Destinations)
	if err != nil {
		return Report{}, err
	}
	if dest == nil {
		return Report{}, fmt.Errorf("no valid destination for vessel %s", v.ID)
	}

	speed := route.MaxSpeed
	if speed <= 0 {
		speed = m.cfg.Vessels.DefaultSpeed
	}

	if err := m.ctl.Depart(ctx, v.ID, dest.ID, speed); err != nil {
		return Report{}, fmt.Errorf("depart to %s: %w", dest.Name, err)
	}

	return Report{
		VesselID:       v.ID,
		VesselName:     v.Name,
		PreviousStatus: v.Status,
		NewStatus:      game.VesselEnroute,
		Action:         action,
		Destination:    dest,
	}, nil
}

// nearestValidDestination picks the closest destination whose field is not
// inside the depletion window; ties break toward the smallest distance by
// scan order.
func (m *Manager) nearestValidDestination(dests []game.Destination) (*game.Destination, error) {
	var best *game.Destination
	for i := range dests {
		d := dests[i]
		depleted, err := m.fields.IsDepleted(d.ID)
		if err != nil {
			return nil, fmt.Errorf("depletion lookup for %s: %w", d.ID, err)
		}
		if depleted {
			continue
		}
		if best == nil || d.DistanceNm < best.DistanceNm {
			best = &dests[i]
		}
	}
	return best, nil
}

// scan surveys the vessel's current field. When no untested point remains
// the field is marked depleted and the vessel sails on instead.
func (m *Manager) scan(ctx context.Context, v game.VesselInfo) ([]Report, error) {
	if v.OilCapacity > 0 && v.OilOnboard >= v.OilCapacity {
		r, err := m.dispatch(ctx, v, "Hold full, returning")
		if err != nil {
			return nil, err
		}
		return []Report{r}, nil
	}

	if v.FieldLoc != "" {
		depleted, err := m.fields.IsDepleted(v.FieldLoc)
		if err != nil {
			return nil, fmt.Errorf("depletion lookup: %w", err)
		}
		if depleted {
			r, err := m.dispatch(ctx, v, "Field depleted, moving on")
			if err != nil {
				return nil, err
			}
			return []Report{r}, nil
		}
	}

	status, err := m.ctl.ScanStatus(ctx, v.ID)
	if err != nil {
		return nil, fmt.Errorf("scan status: %w", err)
	}
	radius := status.MaxRadiusMeters
	if radius <= 0 {
		radius = m.cfg.Vessels.FallbackScanRadiusMeters
	}

	history, err := m.ctl.DrillHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("drill history: %w", err)
	}

	point, ok := FindScanPoint(status.Area, history, radius)
	if !ok {
		if v.FieldLoc != "" {
			if err := m.fields.MarkDepleted(v.FieldLoc); err != nil {
				return nil, fmt.Errorf("mark depleted: %w", err)
			}
			slog.Info("field marked depleted", "vessel", v.ID, "field", v.FieldLoc)
		}
		r, err := m.dispatch(ctx, v, "Field exhausted, moving on")
		if err != nil {
			return nil, err
		}
		return []Report{r}, nil
	}

	if err := m.ctl.StartScan(ctx, v.ID, point.Lat, point.Lon, radius); err != nil {
		return nil, fmt.Errorf("start scan: %w", err)
	}

	return []Report{{
		VesselID:       v.ID,
		VesselName:     v.Name,
		PreviousStatus: v.Status,
		NewStatus:      game.VesselScanning,
		Action:         fmt.Sprintf("Scanning at (%.4f, %.4f)", point.Lat, point.Lon),
	}}, nil
}

// unload sells the cargo when the per-barrel price clears the threshold,
// otherwise transfers what fits onshore. An emptied vessel is dispatched to
// its next field in the same cycle.
func (m *Manager) unload(ctx context.Context, v game.VesselInfo, snap *game.Snapshot) ([]Report, error) {
	holdings, err := m.ctl.OilHoldings(ctx)
	if err != nil {
		return nil, fmt.Errorf("oil holdings: %w", err)
	}

	report := Report{
		VesselID:       v.ID,
		VesselName:     v.Name,
		PreviousStatus: v.Status,
		NewStatus:      game.VesselInPort,
	}

	barrels := holdings.BarrelsOnboard
	pricePerBarrel := snap.OilPrice * 100

	switch {
	case barrels <= 0:
		report.Action = "Nothing to unload"

	case pricePerBarrel > m.cfg.Thresholds.OilSellPriceMin:
		if err := m.ctl.SellOil(ctx, barrels); err != nil {
			return nil, fmt.Errorf("sell oil: %w", err)
		}
		report.Action = "Sold oil"
		report.SoldValue = pricePerBarrel * barrels
		barrels = 0

	default:
		headroom := math.Max(holdings.OnshoreCapacity-holdings.OnshoreHolding, 0)
		transfer := math.Min(barrels, headroom)
		if transfer > 0 {
			if err := m.ctl.TransferOil(ctx, transfer); err != nil {
				return nil, fmt.Errorf("transfer oil: %w", err)
			}
		}
		barrels -= transfer
		report.Action = "Transferred oil"
		report.BarrelsRemaining = barrels
	}

	reports := []Report{report}

	if barrels <= 0 {
		next := v
		next.Status = game.VesselInPort
		r, err := m.dispatch(ctx, next, "Sent to next oil field")
		if err != nil {
			slog.Error("post-unload dispatch failed", "vessel", v.ID, "error", err)
			return reports, nil
		}
		reports = append(reports, r)
	}

	return reports, nil
}
