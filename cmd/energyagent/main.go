// Command energyagent runs the autonomous energy manager. It observes the
// player's grids, plants, and vessels each cycle, decides which tasks need
// attention, and acts through the game's web API.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "energyagent",
		Short: "Autonomous agent for the energy manager game",
	}
	root.PersistentFlags().StringP("config", "c", "energyagent.yaml", "path to the YAML config file")
	root.AddCommand(runCmd())
	root.AddCommand(onceCmd())
	root.AddCommand(simulateCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
