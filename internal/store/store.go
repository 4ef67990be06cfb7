// Package store provides SQLite-backed durable state: the depleted oil
// field memory and the per-grid price history behind rolling averages.
package store

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection for agent state that must survive cycles.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates the agent database under dir.
func Open(dir string) (*DB, error) {
	path := filepath.Join(dir, "energyagent.db")
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS depleted_fields (
		field_id TEXT PRIMARY KEY,
		depleted_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS grid_prices (
		grid_id TEXT NOT NULL,
		recorded_at INTEGER NOT NULL,
		mwh_value REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_grid_prices_grid ON grid_prices(grid_id, recorded_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// MarkDepleted records a field as exhausted. Marking an already depleted
// field refreshes its timestamp; both paths leave one row behind.
func (db *DB) MarkDepleted(fieldID string) error {
	_, err := db.conn.Exec(
		`INSERT INTO depleted_fields (field_id, depleted_at) VALUES (?, ?)
		 ON CONFLICT(field_id) DO UPDATE SET depleted_at = excluded.depleted_at`,
		fieldID, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("mark depleted %s: %w", fieldID, err)
	}
	return nil
}

// IsDepleted reports whether the field is inside its depletion window.
// Expired entries are pruned on read, not on write.
func (db *DB) IsDepleted(fieldID string, window time.Duration) (bool, error) {
	if err := db.Prune(time.Now().Add(-window)); err != nil {
		return false, err
	}

	var n int
	err := db.conn.Get(&n, `SELECT COUNT(*) FROM depleted_fields WHERE field_id = ?`, fieldID)
	if err != nil {
		return false, fmt.Errorf("lookup depleted %s: %w", fieldID, err)
	}
	return n > 0, nil
}

// Prune removes depletion entries recorded before the cutoff.
func (db *DB) Prune(olderThan time.Time) error {
	_, err := db.conn.Exec(`DELETE FROM depleted_fields WHERE depleted_at < ?`, olderThan.Unix())
	if err != nil {
		return fmt.Errorf("prune depleted fields: %w", err)
	}
	return nil
}

// RecordPrice appends one observed grid price.
func (db *DB) RecordPrice(gridID string, mwhValue float64, at time.Time) error {
	_, err := db.conn.Exec(
		`INSERT INTO grid_prices (grid_id, recorded_at, mwh_value) VALUES (?, ?, ?)`,
		gridID, at.Unix(), mwhValue,
	)
	if err != nil {
		return fmt.Errorf("record price for %s: %w", gridID, err)
	}
	return nil
}

// AveragePrice returns the rolling average over the grid's last n recorded
// prices. With no history it returns 0 and false.
func (db *DB) AveragePrice(gridID string, n int) (float64, bool, error) {
	var row struct {
		Avg   *float64 `db:"avg"`
		Count int      `db:"count"`
	}
	err := db.conn.Get(&row,
		`SELECT AVG(mwh_value) AS avg, COUNT(*) AS count FROM (
			SELECT mwh_value FROM grid_prices
			WHERE grid_id = ? ORDER BY recorded_at DESC LIMIT ?
		)`, gridID, n)
	if err != nil {
		return 0, false, fmt.Errorf("average price for %s: %w", gridID, err)
	}
	if row.Count == 0 || row.Avg == nil {
		return 0, false, nil
	}
	return *row.Avg, true, nil
}

// TrimPrices drops price rows older than the cutoff, bounding table growth.
func (db *DB) TrimPrices(olderThan time.Time) error {
	_, err := db.conn.Exec(`DELETE FROM grid_prices WHERE recorded_at < ?`, olderThan.Unix())
	if err != nil {
		return fmt.Errorf("trim prices: %w", err)
	}
	return nil
}
