package store

import "time"

// FieldMemory binds the depleted-field table to a fixed depletion window so
// callers get the plain IsDepleted/MarkDepleted/Prune contract.
type FieldMemory struct {
	db     *DB
	window time.Duration
}

// Fields returns a FieldMemory over this database with the given window.
func (db *DB) Fields(window time.Duration) *FieldMemory {
	return &FieldMemory{db: db, window: window}
}

// IsDepleted reports whether the field is currently excluded. Entries older
// than the window are purged before the check.
func (m *FieldMemory) IsDepleted(fieldID string) (bool, error) {
	return m.db.IsDepleted(fieldID, m.window)
}

// MarkDepleted records the field as exhausted as of now.
func (m *FieldMemory) MarkDepleted(fieldID string) error {
	return m.db.MarkDepleted(fieldID)
}

// Prune removes entries recorded before the cutoff.
func (m *FieldMemory) Prune(olderThan time.Time) error {
	return m.db.Prune(olderThan)
}
