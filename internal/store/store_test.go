package store

import (
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDepletedFields(t *testing.T) {
	window := 30 * 24 * time.Hour

	t.Run("mark and lookup", func(t *testing.T) {
		db := openTestDB(t)

		depleted, err := db.IsDepleted("field-1", window)
		if err != nil {
			t.Fatalf("IsDepleted() = %v", err)
		}
		if depleted {
			t.Fatal("unmarked field reported depleted")
		}

		if err := db.MarkDepleted("field-1"); err != nil {
			t.Fatalf("MarkDepleted() = %v", err)
		}
		depleted, err = db.IsDepleted("field-1", window)
		if err != nil {
			t.Fatalf("IsDepleted() = %v", err)
		}
		if !depleted {
			t.Fatal("marked field not reported depleted")
		}
	})

	t.Run("marking twice is idempotent", func(t *testing.T) {
		db := openTestDB(t)
		if err := db.MarkDepleted("field-1"); err != nil {
			t.Fatalf("first MarkDepleted() = %v", err)
		}
		if err := db.MarkDepleted("field-1"); err != nil {
			t.Fatalf("second MarkDepleted() = %v", err)
		}
	})

	t.Run("entries expire with the window", func(t *testing.T) {
		db := openTestDB(t)
		if err := db.MarkDepleted("field-1"); err != nil {
			t.Fatalf("MarkDepleted() = %v", err)
		}

		// A lookup with a zero-length window prunes the fresh entry.
		depleted, err := db.IsDepleted("field-1", -time.Second)
		if err != nil {
			t.Fatalf("IsDepleted() = %v", err)
		}
		if depleted {
			t.Fatal("entry outside the window must be pruned on read")
		}
	})
}

func TestGridPrices(t *testing.T) {
	t.Run("no history", func(t *testing.T) {
		db := openTestDB(t)
		_, ok, err := db.AveragePrice("g1", 24)
		if err != nil {
			t.Fatalf("AveragePrice() = %v", err)
		}
		if ok {
			t.Fatal("empty history reported an average")
		}
	})

	t.Run("average over the last n", func(t *testing.T) {
		db := openTestDB(t)
		base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		for i, v := range []float64{100, 200, 300} {
			if err := db.RecordPrice("g1", v, base.Add(time.Duration(i)*time.Hour)); err != nil {
				t.Fatalf("RecordPrice() = %v", err)
			}
		}

		avg, ok, err := db.AveragePrice("g1", 24)
		if err != nil || !ok {
			t.Fatalf("AveragePrice() = %v, %v, %v", avg, ok, err)
		}
		if avg != 200 {
			t.Fatalf("avg = %v, want 200", avg)
		}

		// Only the two most recent rows.
		avg, _, err = db.AveragePrice("g1", 2)
		if err != nil {
			t.Fatalf("AveragePrice() = %v", err)
		}
		if avg != 250 {
			t.Fatalf("avg over last 2 = %v, want 250", avg)
		}
	})

	t.Run("grids are independent", func(t *testing.T) {
		db := openTestDB(t)
		now := time.Now()
		if err := db.RecordPrice("g1", 100, now); err != nil {
			t.Fatalf("RecordPrice() = %v", err)
		}
		if _, ok, _ := db.AveragePrice("g2", 24); ok {
			t.Fatal("other grid's history leaked")
		}
	})

	t.Run("trim drops old rows", func(t *testing.T) {
		db := openTestDB(t)
		old := time.Now().Add(-48 * time.Hour)
		if err := db.RecordPrice("g1", 100, old); err != nil {
			t.Fatalf("RecordPrice() = %v", err)
		}
		if err := db.TrimPrices(time.Now().Add(-24 * time.Hour)); err != nil {
			t.Fatalf("TrimPrices() = %v", err)
		}
		if _, ok, _ := db.AveragePrice("g1", 24); ok {
			t.Fatal("trimmed rows still feed the average")
		}
	})
}

func TestFieldMemoryAdapter(t *testing.T) {
	db := openTestDB(t)
	mem := db.Fields(30 * 24 * time.Hour)

	if err := mem.MarkDepleted("field-9"); err != nil {
		t.Fatalf("MarkDepleted() = %v", err)
	}
	depleted, err := mem.IsDepleted("field-9")
	if err != nil {
		t.Fatalf("IsDepleted() = %v", err)
	}
	if !depleted {
		t.Fatal("adapter lost the depletion mark")
	}
}
