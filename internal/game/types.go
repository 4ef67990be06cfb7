// Package game defines the per-cycle snapshot of the player's world and the
// narrow contracts the decision core uses to act on it. A Snapshot is
// assembled fresh each cycle, read-only while the cycle runs, and discarded
// at cycle end.
package game

import "time"

// PlantType identifies a generation asset's technology.
type PlantType string

const (
	PlantWind    PlantType = "wind"
	PlantSolar   PlantType = "solar"
	PlantFossil  PlantType = "fossil"
	PlantNuclear PlantType = "nuclear"
	PlantCoal    PlantType = "coal"
)

// FuelPlantTypes lists the plant types that consume fuel and can run dry.
var FuelPlantTypes = []PlantType{PlantFossil, PlantNuclear, PlantCoal}

// FuelType is the commodity a fuel-based plant burns.
type FuelType string

const (
	FuelOil     FuelType = "oil"
	FuelUranium FuelType = "uranium"
	FuelCoal    FuelType = "coal"
)

// FuelFor maps a fuel-based plant type to the commodity it burns.
var FuelFor = map[PlantType]FuelType{
	PlantFossil:  FuelOil,
	PlantNuclear: FuelUranium,
	PlantCoal:    FuelCoal,
}

// IsFuelBased reports whether the plant type burns a commodity.
func (t PlantType) IsFuelBased() bool {
	_, ok := FuelFor[t]
	return ok
}

// Plant is a single generation asset connected to one storage.
type Plant struct {
	ID           string
	Type         PlantType
	Online       bool
	WearPct      float64
	Output       float64
	Capacity     float64
	StorageID    string
	FuelCapacity float64
	FuelHolding  float64
	Lat          float64
	Lon          float64
}

// StorageType identifies a charge-holding asset's technology.
type StorageType string

const (
	StorageGravity  StorageType = "gravity"
	StorageChemical StorageType = "chemical"
	StorageP2X      StorageType = "p2x"
)

// StorageInfo is one charge-holding asset feeding a grid.
type StorageInfo struct {
	ID                  string
	Type                StorageType
	CurrentCharge       float64
	Capacity            float64
	PlantsConnected     int
	ChargePerSec        float64
	ExpectedChargePerSec float64
	Discharging         bool
	Lat                 float64
	Lon                 float64
}

// Full reports whether the storage has no remaining headroom.
func (s StorageInfo) Full() bool {
	return s.Capacity > 0 && s.CurrentCharge >= s.Capacity
}

// GridStorage is one market/demand zone and the storages feeding it.
type GridStorage struct {
	GridID   string
	GridName string
	Storages []StorageInfo

	// MwhValue is the grid's current sale price per MWh; AvgMwhValue is the
	// rolling average recorded across prior cycles (falls back to MwhValue
	// when no history exists).
	MwhValue    float64
	AvgMwhValue float64
	// UpcomingMwhValue is the forecast price for the next period; zero when
	// the game exposes no forecast for the grid.
	UpcomingMwhValue float64

	PctOfMaxPrice float64
	Demand        float64
	IsLowDemand   bool

	TotalCurrentCharge float64
	TotalCapacity      float64
	ChargePercentage   float64
	Discharging        bool
}

// Hydrogen aggregates the hydrogen market and silo state.
type Hydrogen struct {
	PricePerKg           float64
	SiloHolding          float64
	SiloCapacity         float64
	CurrentStorageCharge float64
	P2XStorageIDs        []string
	SellValue            float64
	SiloSellValue        float64
}

// ResearchInfo is one fundable research item.
type ResearchInfo struct {
	ID    int
	Price float64
}

// Research aggregates research availability for the cycle.
type Research struct {
	AvailableStations int
	Candidates        []ResearchInfo
}

// VesselStatus enumerates the vessel lifecycle states.
type VesselStatus string

const (
	VesselInPort        VesselStatus = "InPort"
	VesselInPortWithOil VesselStatus = "InPortWithOil"
	VesselEnroute       VesselStatus = "Enroute"
	VesselScanning      VesselStatus = "Scanning"
	VesselDrilling      VesselStatus = "Drilling"
	VesselAnchored      VesselStatus = "Anchored"
	VesselAnchoredWithOil VesselStatus = "AnchoredWithOil"
)

// MidOperation reports whether the vessel is busy and must be left alone
// this cycle.
func (s VesselStatus) MidOperation() bool {
	return s == VesselEnroute || s == VesselScanning || s == VesselDrilling
}

// VesselInfo is one vessel's state for the cycle.
type VesselInfo struct {
	ID          string
	Name        string
	Status      VesselStatus
	Lat         float64
	Lon         float64
	OilOnboard  float64
	OilCapacity float64
	FieldLoc    string
	RouteID     string
	ArrivalTime *time.Time
}

// Snapshot is the immutable per-cycle view of the player's world.
type Snapshot struct {
	Plants      []Plant
	Grids       []GridStorage
	Hydrogen    Hydrogen
	Research    Research
	Vessels     []VesselInfo

	EmissionPerKwh float64
	CO2Price       float64
	OilPrice       float64
	CoalPrice      float64
	UraniumPrice   float64
	UserMoney      float64

	CollectedAt time.Time
}

// DrillHistoryEntry is one prior drill site; scan points must fall outside
// its circle.
type DrillHistoryEntry struct {
	Lat          float64
	Lon          float64
	RadiusMeters float64
}
