package vessels

import (
	"github.com/acasperw/energy-manager-game-automation-tools/internal/game"
	"github.com/acasperw/energy-manager-game-automation-tools/internal/geo"
)

// ScanPoint is a candidate drilling location.
type ScanPoint struct {
	Lat float64
	Lon float64
}

// FindScanPoint tiles the scan rectangle with a square grid whose cell size
// equals the scan radius, so adjacent scan circles sit edge to edge, and
// returns the first cell center outside every prior drill circle. Scan order
// is north to south, west to east, making the result deterministic.
//
// The step is clamped to a tenth of the rectangle's extent so tiny fields
// still yield interior points. For non-square rectangles the tiling can
// leave slivers near the boundary uncovered; that matches the game's
// observed behavior and is deliberately not corrected.
func FindScanPoint(area game.ScanArea, history []game.DrillHistoryEntry, radiusMeters float64) (ScanPoint, bool) {
	radiusNm := radiusMeters / geo.MetersPerNm
	stepDeg := radiusNm / geo.NmPerDegreeLat

	latExtent := area.North - area.South
	lonExtent := area.East - area.West
	if latExtent/10 < stepDeg {
		stepDeg = latExtent / 10
	}
	if lonExtent/10 < stepDeg {
		stepDeg = lonExtent / 10
	}
	if stepDeg <= 0 {
		return ScanPoint{}, false
	}

	for lat := area.North; lat >= area.South; lat -= stepDeg {
		for lon := area.West; lon <= area.East; lon += stepDeg {
			p := ScanPoint{Lat: lat, Lon: lon}
			if !withinDrillHistory(p, history) {
				return p, true
			}
		}
	}
	return ScanPoint{}, false
}

// withinDrillHistory reports whether the point falls inside any previously
// drilled circle.
func withinDrillHistory(p ScanPoint, history []game.DrillHistoryEntry) bool {
	for _, h := range history {
		if geo.DistanceNm(p.Lat, p.Lon, h.Lat, h.Lon) <= h.RadiusMeters/geo.MetersPerNm {
			return true
		}
	}
	return false
}
