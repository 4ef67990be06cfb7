package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/acasperw/energy-manager-game-automation-tools/internal/config"
	"github.com/acasperw/energy-manager-game-automation-tools/internal/engine"
	"github.com/acasperw/energy-manager-game-automation-tools/internal/report"
	"github.com/acasperw/energy-manager-game-automation-tools/internal/sim"
)

func simulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run cycles against a simulated exchange (no game account needed)",
		RunE:  runSimulate,
	}
	cmd.Flags().Int("cycles", 5, "number of cycles to simulate")
	cmd.Flags().Int64("seed", 42, "world noise seed")
	return cmd
}

func runSimulate(cmd *cobra.Command, args []string) error {
	setupLogging()

	cycles, _ := cmd.Flags().GetInt("cycles")
	seed, _ := cmd.Flags().GetInt64("seed")

	cfg := config.Default()
	world := sim.NewWorld(seed)
	fields := newMemoryFields()
	reporter := report.NewWriter(os.Stdout, cfg)
	orch := engine.NewOrchestrator(world, fields, reporter, cfg)

	for i := 0; i < cycles; i++ {
		snap, err := world.CollectSnapshot(cmd.Context())
		if err != nil {
			return fmt.Errorf("simulate cycle %d: %w", i+1, err)
		}
		decisions := engine.Decide(snap, cfg)
		orch.Execute(cmd.Context(), snap, decisions)
	}
	return nil
}

// memoryFields is an in-memory depleted-field store for simulation runs.
type memoryFields struct {
	marked map[string]time.Time
}

func newMemoryFields() *memoryFields {
	return &memoryFields{marked: map[string]time.Time{}}
}

func (m *memoryFields) IsDepleted(fieldID string) (bool, error) {
	_, ok := m.marked[fieldID]
	return ok, nil
}

func (m *memoryFields) MarkDepleted(fieldID string) error {
	m.marked[fieldID] = time.Now()
	return nil
}

func (m *memoryFields) Prune(olderThan time.Time) error {
	for id, at := range m.marked {
		if at.Before(olderThan) {
			delete(m.marked, id)
		}
	}
	return nil
}
