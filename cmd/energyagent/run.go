package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/acasperw/energy-manager-game-automation-tools/internal/config"
	"github.com/acasperw/energy-manager-game-automation-tools/internal/engine"
	"github.com/acasperw/energy-manager-game-automation-tools/internal/gameapi"
	"github.com/acasperw/energy-manager-game-automation-tools/internal/report"
	"github.com/acasperw/energy-manager-game-automation-tools/internal/store"
)

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run cycles continuously on the configured interval",
		RunE:  runLoop,
	}
}

func onceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Run a single cycle and exit",
		RunE:  runOnce,
	}
}

// buildAgent wires the live client, store, and engine from configuration.
func buildAgent(cmd *cobra.Command) (*engine.Runner, *config.Config, *store.DB, error) {
	setupLogging()

	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.SessionCookie == "" {
		return nil, nil, nil, fmt.Errorf("session cookie is required (set ENERGYAGENT_SESSION or session_cookie in %s)", path)
	}

	db, err := store.Open(cfg.DataDir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open store: %w", err)
	}

	client := gameapi.New(cfg.BaseURL, cfg.SessionCookie)
	collector := gameapi.NewCollector(client, db)
	fields := db.Fields(cfg.Vessels.DepletionWindow)
	reporter := report.NewWriter(os.Stdout, cfg)
	orch := engine.NewOrchestrator(client, fields, reporter, cfg)
	runner := engine.NewRunner(collector, orch, cfg)
	return runner, cfg, db, nil
}

func runOnce(cmd *cobra.Command, args []string) error {
	runner, _, db, err := buildAgent(cmd)
	if err != nil {
		return err
	}
	defer db.Close()
	return runner.RunCycle(cmd.Context())
}

func runLoop(cmd *cobra.Command, args []string) error {
	runner, cfg, db, err := buildAgent(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("energy agent starting",
		"base_url", cfg.BaseURL,
		"interval", cfg.Scheduler.Interval,
	)

	// First cycle immediately, then on the interval. Scheduled early reruns
	// fire between ticks; the in-flight guard keeps them from overlapping.
	cycle := func() {
		if err := runner.RunCycle(context.Background()); err != nil {
			slog.Error("cycle failed", "error", err)
		}
	}
	cycle()

	ticker := time.NewTicker(cfg.Scheduler.Interval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			cycle()
		case sig := <-sigCh:
			slog.Info("received signal, shutting down", "signal", sig)
			fmt.Println("Energy agent stopped.")
			return nil
		}
	}
}

func setupLogging() {
	level := slog.LevelInfo
	if os.Getenv("ENERGYAGENT_DEBUG") != "" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}
