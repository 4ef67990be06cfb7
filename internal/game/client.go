package game

// Shared payload types for the collaborator contracts. The consuming
// subsystems each declare the narrow interface they need; both the live
// client (internal/gameapi) and the simulated exchange (internal/sim)
// satisfy them.

// FuelGauge is the refuel slider for one fuel type: the current fill
// percentage across that fuel's plants and the maximum percentage reachable
// given onshore stock.
type FuelGauge struct {
	CurrentPct float64
	MaxPct     float64
}

// PlantConnection describes a plant's current storage hookup and how far a
// replacement storage may be.
type PlantConnection struct {
	PlantID          string
	Lat              float64
	Lon              float64
	MaxDistanceKm    float64
	CurrentStorageID string
	LandID           string
}

// StorageSlots is the live connection capacity of a storage.
type StorageSlots struct {
	PlantsConnected int
	MaxConnections  int
	Lat             float64
	Lon             float64
}

// Destination is one port or oil field a vessel may sail to.
type Destination struct {
	ID         string
	Name       string
	DistanceNm float64
}

// RouteOptions is the set of destinations available to a vessel plus its
// maximum allowed speed in knots.
type RouteOptions struct {
	Destinations []Destination
	MaxSpeed     float64
}

// ScanArea is the rectangular boundary a vessel may survey.
type ScanArea struct {
	North float64
	South float64
	East  float64
	West  float64
}

// ScanStatus is a vessel's survey boundary and maximum scan radius.
type ScanStatus struct {
	Area            ScanArea
	MaxRadiusMeters float64
}

// OilHoldings is the oil position relevant to unloading a vessel.
type OilHoldings struct {
	BarrelsOnboard  float64
	OnshoreHolding  float64
	OnshoreCapacity float64
}
