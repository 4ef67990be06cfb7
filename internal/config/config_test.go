package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultValidates(t *testing.T) {
	if err := validate(Default()); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	t.Run("missing file falls back to defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		if err != nil {
			t.Fatalf("Load(missing) = %v", err)
		}
		if cfg.Thresholds.StorageChargeMin != 80 {
			t.Fatalf("StorageChargeMin = %v, want default 80", cfg.Thresholds.StorageChargeMin)
		}
	})

	t.Run("file overrides defaults, rest keeps them", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "energyagent.yaml")
		yaml := `
thresholds:
  hydrogen_price_min: 120
scheduler:
  interval: 30m
`
		if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() = %v", err)
		}
		if cfg.Thresholds.HydrogenPriceMin != 120 {
			t.Fatalf("HydrogenPriceMin = %v, want 120", cfg.Thresholds.HydrogenPriceMin)
		}
		if cfg.Scheduler.Interval != 30*time.Minute {
			t.Fatalf("Interval = %v, want 30m", cfg.Scheduler.Interval)
		}
		if cfg.Thresholds.CO2PriceMax != 21 {
			t.Fatalf("CO2PriceMax = %v, want untouched default 21", cfg.Thresholds.CO2PriceMax)
		}
	})

	t.Run("env overrides win", func(t *testing.T) {
		t.Setenv("ENERGYAGENT_BASE_URL", "https://example.test")
		t.Setenv("ENERGYAGENT_SESSION", "cookie=abc")

		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		if err != nil {
			t.Fatalf("Load() = %v", err)
		}
		if cfg.BaseURL != "https://example.test" || cfg.SessionCookie != "cookie=abc" {
			t.Fatalf("env overrides not applied: %+v", cfg)
		}
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "energyagent.yaml")
		yaml := `
thresholds:
  storage_charge_min: 150
`
		if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Fatal("out-of-range threshold must fail validation")
		}
	})
}
