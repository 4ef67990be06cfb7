// Package geo provides great-circle distance helpers for vessel routing and
// storage relocation checks.
package geo

import "math"

const (
	earthRadiusNm = 3440.065
	earthRadiusKm = 6371.0

	// MetersPerNm converts scan radii quoted in meters to nautical miles.
	MetersPerNm = 1852.0

	// NmPerDegreeLat is the latitude extent of one degree in nautical miles.
	NmPerDegreeLat = 60.0
)

// DistanceNm returns the haversine distance between two points in nautical
// miles.
func DistanceNm(lat1, lon1, lat2, lon2 float64) float64 {
	return haversine(lat1, lon1, lat2, lon2, earthRadiusNm)
}

// DistanceKm returns the haversine distance between two points in kilometers.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	return haversine(lat1, lon1, lat2, lon2, earthRadiusKm)
}

func haversine(lat1, lon1, lat2, lon2, radius float64) float64 {
	dLat := deg2rad(lat2 - lat1)
	dLon := deg2rad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(deg2rad(lat1))*math.Cos(deg2rad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return radius * c
}

func deg2rad(deg float64) float64 {
	return deg * (math.Pi / 180)
}
