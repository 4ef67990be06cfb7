// Package config loads agent configuration from a YAML file with
// environment overrides for credentials. Every decision threshold is
// configuration, not code: the numbers are game-specific heuristics.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full agent configuration.
type Config struct {
	BaseURL       string `yaml:"base_url"`
	SessionCookie string `yaml:"session_cookie"`
	DataDir       string `yaml:"data_dir"`

	Thresholds Thresholds      `yaml:"thresholds"`
	Optimizer  OptimizerConfig `yaml:"optimizer"`
	Plants     PlantsConfig    `yaml:"plants"`
	Vessels    VesselsConfig   `yaml:"vessels"`
	Research   ResearchConfig  `yaml:"research"`
	Scheduler  SchedulerConfig `yaml:"scheduler"`
}

// Thresholds gates the per-cycle task decisions.
type Thresholds struct {
	// StorageChargeMin is the charge percentage a grid must strictly exceed
	// before its energy (or hydrogen) is put up for sale.
	StorageChargeMin float64 `yaml:"storage_charge_min"`

	HydrogenPriceMin   float64 `yaml:"hydrogen_price_min"`
	// HydrogenSuperPrice forces a hydrogen sale regardless of charge level.
	HydrogenSuperPrice float64 `yaml:"hydrogen_super_price"`

	CO2PriceMax     float64 `yaml:"co2_price_max"`
	OilPriceMax     float64 `yaml:"oil_price_max"`
	CoalPriceMax    float64 `yaml:"coal_price_max"`
	UraniumPriceMax float64 `yaml:"uranium_price_max"`

	// OilSellPriceMin is the per-barrel price above which a returning vessel
	// sells its cargo instead of transferring it onshore.
	OilSellPriceMin float64 `yaml:"oil_sell_price_min"`
}

// OptimizerConfig tunes the grid sale optimizer. The constants are
// empirically tuned against the game; none has a derivation.
type OptimizerConfig struct {
	// PctOfMaxPriceMin is the minimum fraction of a grid's historical price
	// ceiling for it to qualify as an alternative buyer.
	PctOfMaxPriceMin float64 `yaml:"pct_of_max_price_min"`
	// TransferFee is the fraction of a sale retained when selling to an
	// alternative grid (0.9 = 10% fee).
	TransferFee float64 `yaml:"transfer_fee"`
	// ImprovementBar is the multiple an alternative sale must clear over the
	// local sale value to justify switching.
	ImprovementBar float64 `yaml:"improvement_bar"`
	// AverageGuard rejects sales priced below this fraction of the grid's
	// rolling average price.
	AverageGuard float64 `yaml:"average_guard"`
	// UpcomingBuffer discounts alternative prices when comparing against a
	// grid's forecast price.
	UpcomingBuffer float64 `yaml:"upcoming_buffer"`
}

// PlantsConfig tunes the storage and plant lifecycle manager.
type PlantsConfig struct {
	// MinStorageCapacity is the floor below which a storage is not worth
	// relocating a plant to.
	MinStorageCapacity float64 `yaml:"min_storage_capacity"`
	// SolarDiscrepancy flags a storage's solar plants for re-enable when its
	// actual charge rate falls this fraction below the expected rate.
	SolarDiscrepancy float64 `yaml:"solar_discrepancy"`
}

// VesselsConfig tunes vessel logistics.
type VesselsConfig struct {
	// DefaultSpeed is used when a vessel's status page exposes no maximum.
	DefaultSpeed float64 `yaml:"default_speed"`
	// DepletionWindow is how long a field stays excluded after being marked
	// depleted.
	DepletionWindow time.Duration `yaml:"depletion_window"`
	// FallbackScanRadiusMeters is used when the scan page exposes no radius.
	FallbackScanRadiusMeters float64 `yaml:"fallback_scan_radius_meters"`
}

// ResearchConfig tunes the research prioritizer.
type ResearchConfig struct {
	// BudgetPct of the player's money is spendable on research per cycle.
	BudgetPct float64 `yaml:"budget_pct"`
	// FixedFirstIDs are always funded first when affordable.
	FixedFirstIDs []int `yaml:"fixed_first_ids"`
	// VesselIDs are prioritized when the player owns vessels.
	VesselIDs []int `yaml:"vessel_ids"`
	// OilIDs are prioritized when the player owns fossil plants.
	OilIDs []int `yaml:"oil_ids"`
	// StockIDs always sort last.
	StockIDs []int `yaml:"stock_ids"`
	// MaxConcurrent bounds parallel research submissions.
	MaxConcurrent int `yaml:"max_concurrent"`
}

// SchedulerConfig tunes the cycle runner and rerun scheduler.
type SchedulerConfig struct {
	Interval            time.Duration `yaml:"interval"`
	HydrogenRerunDelay  time.Duration `yaml:"hydrogen_rerun_delay"`
	MaxHydrogenReruns   int           `yaml:"max_hydrogen_reruns"`
	RetryAttempts       int           `yaml:"retry_attempts"`
	RetryCooldown       time.Duration `yaml:"retry_cooldown"`
	// VesselRerunHorizon schedules an early cycle when a vessel arrives
	// within this window.
	VesselRerunHorizon time.Duration `yaml:"vessel_rerun_horizon"`
}

// Default returns the configuration with every threshold at the values the
// agent has been tuned with.
func Default() *Config {
	return &Config{
		BaseURL: "https://energymanagergame.com",
		DataDir: "energy_data",
		Thresholds: Thresholds{
			StorageChargeMin:   80,
			HydrogenPriceMin:   89,
			HydrogenSuperPrice: 267,
			CO2PriceMax:        21,
			OilPriceMax:        2.5,
			CoalPriceMax:       0.15,
			UraniumPriceMax:    5000,
			OilSellPriceMin:    300,
		},
		Optimizer: OptimizerConfig{
			PctOfMaxPriceMin: 70,
			TransferFee:      0.9,
			ImprovementBar:   1.10,
			AverageGuard:     0.9,
			UpcomingBuffer:   0.88,
		},
		Plants: PlantsConfig{
			MinStorageCapacity: 1_000_000,
			SolarDiscrepancy:   0.25,
		},
		Vessels: VesselsConfig{
			DefaultSpeed:             16,
			DepletionWindow:          30 * 24 * time.Hour,
			FallbackScanRadiusMeters: 25000,
		},
		Research: ResearchConfig{
			BudgetPct:     0.1,
			FixedFirstIDs: []int{182, 181, 3, 1},
			MaxConcurrent: 4,
		},
		Scheduler: SchedulerConfig{
			Interval:           time.Hour,
			HydrogenRerunDelay: 2 * time.Minute,
			MaxHydrogenReruns:  1,
			RetryAttempts:      2,
			RetryCooldown:      2 * time.Minute,
			VesselRerunHorizon: time.Hour,
		},
	}
}

// Load reads the YAML config at path, layered over Default. A missing file
// is not an error: defaults plus env overrides apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Fall through to env overrides.
	case err != nil:
		return nil, fmt.Errorf("loading config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	if v := os.Getenv("ENERGYAGENT_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("ENERGYAGENT_SESSION"); v != "" {
		cfg.SessionCookie = v
	}
	if v := os.Getenv("ENERGYAGENT_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if cfg.Thresholds.StorageChargeMin <= 0 || cfg.Thresholds.StorageChargeMin >= 100 {
		return fmt.Errorf("storage_charge_min must be between 0 and 100")
	}
	if cfg.Optimizer.TransferFee <= 0 || cfg.Optimizer.TransferFee > 1 {
		return fmt.Errorf("transfer_fee must be in (0, 1]")
	}
	if cfg.Optimizer.ImprovementBar < 1 {
		return fmt.Errorf("improvement_bar must be at least 1")
	}
	if cfg.Research.BudgetPct < 0 || cfg.Research.BudgetPct > 1 {
		return fmt.Errorf("research budget_pct must be in [0, 1]")
	}
	if cfg.Scheduler.RetryAttempts < 1 {
		return fmt.Errorf("retry_attempts must be at least 1")
	}
	if cfg.Vessels.DepletionWindow <= 0 {
		return fmt.Errorf("depletion_window must be positive")
	}
	return nil
}
