package geo

import (
	"math"
	"testing"
)

func TestDistanceNm(t *testing.T) {
	t.Run("one degree of latitude is sixty nautical miles", func(t *testing.T) {
		got := DistanceNm(54.0, 7.0, 55.0, 7.0)
		if math.Abs(got-60) > 0.1 {
			t.Fatalf("DistanceNm(1° lat) = %v, want ~60", got)
		}
	})

	t.Run("zero distance", func(t *testing.T) {
		if got := DistanceNm(54.0, 7.0, 54.0, 7.0); got != 0 {
			t.Fatalf("DistanceNm(same point) = %v", got)
		}
	})

	t.Run("symmetric", func(t *testing.T) {
		a := DistanceNm(54.0, 7.0, 56.5, 9.25)
		b := DistanceNm(56.5, 9.25, 54.0, 7.0)
		if math.Abs(a-b) > 1e-9 {
			t.Fatalf("distance not symmetric: %v vs %v", a, b)
		}
	})

	t.Run("longitude shrinks with latitude", func(t *testing.T) {
		atEquator := DistanceNm(0, 0, 0, 1)
		atSixty := DistanceNm(60, 0, 60, 1)
		if atSixty >= atEquator {
			t.Fatalf("1° lon at 60°N (%v nm) must be shorter than at the equator (%v nm)", atSixty, atEquator)
		}
	})
}

func TestDistanceKm(t *testing.T) {
	// Hamburg to Copenhagen, roughly 288 km great-circle.
	got := DistanceKm(53.55, 9.99, 55.68, 12.57)
	if got < 280 || got > 300 {
		t.Fatalf("DistanceKm(HAM, CPH) = %v, want ~288", got)
	}
}
