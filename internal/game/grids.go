package game

// StorageFilter selects a subset of a grid's storages by type.
type StorageFilter int

const (
	// NonP2X selects gravity and chemical storages (energy sales).
	NonP2X StorageFilter = iota
	// P2XOnly selects hydrogen-producing storages.
	P2XOnly
)

func (f StorageFilter) matches(t StorageType) bool {
	if f == P2XOnly {
		return t == StorageP2X
	}
	return t != StorageP2X
}

// HasStorageType reports whether the grid owns at least one storage matching
// the filter.
func (g GridStorage) HasStorageType(f StorageFilter) bool {
	for _, s := range g.Storages {
		if f.matches(s.Type) {
			return true
		}
	}
	return false
}

// ChargePercentage computes the grid's charge percentage over the storages
// matching the filter. Zero-capacity grids report 0.
func ChargePercentage(g GridStorage, f StorageFilter) float64 {
	var charge, capacity float64
	for _, s := range g.Storages {
		if f.matches(s.Type) {
			charge += s.CurrentCharge
			capacity += s.Capacity
		}
	}
	if capacity <= 0 {
		return 0
	}
	return charge / capacity * 100
}

// ChargeAboveThreshold reports whether the grid's charge percentage over the
// filtered storages strictly exceeds the threshold.
func ChargeAboveThreshold(g GridStorage, f StorageFilter, threshold float64) bool {
	return ChargePercentage(g, f) > threshold
}

// FilterGrids returns the grids owning at least one storage matching the
// filter.
func FilterGrids(grids []GridStorage, f StorageFilter) []GridStorage {
	var out []GridStorage
	for _, g := range grids {
		if g.HasStorageType(f) {
			out = append(out, g)
		}
	}
	return out
}

// FindStorage locates a storage by ID across all grids. The second return
// value reports whether it was found.
func FindStorage(grids []GridStorage, storageID string) (StorageInfo, bool) {
	for _, g := range grids {
		for _, s := range g.Storages {
			if s.ID == storageID {
				return s, true
			}
		}
	}
	return StorageInfo{}, false
}

// GridOfStorage returns the grid owning the given storage.
func GridOfStorage(grids []GridStorage, storageID string) (GridStorage, bool) {
	for _, g := range grids {
		for _, s := range g.Storages {
			if s.ID == storageID {
				return g, true
			}
		}
	}
	return GridStorage{}, false
}
