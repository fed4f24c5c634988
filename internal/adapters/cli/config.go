package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/warehouse-go/internal/infrastructure/config"
)

// NewConfigCommand creates the config command with subcommands
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
		Long: `Inspect warehouse-sim configuration.

Configuration is loaded from multiple sources with priority:
1. Environment variables (WH_* prefix, DATABASE_URL)
2. Config file (config.yaml)
3. Default values

Examples:
  warehouse-sim config show
  WH_WAREHOUSE_QUEUE_CAPACITY=4 warehouse-sim config show`,
	}

	cmd.AddCommand(newConfigShowCommand())

	return cmd
}

// newConfigShowCommand creates the config show subcommand
func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				fmt.Printf("Warning: Failed to load config: %v\n", err)
				fmt.Println("Using default configuration.")
				cfg = config.LoadConfigOrDefault("")
			}

			printConfig(cfg)
			return nil
		},
	}
}

func printConfig(cfg *config.Config) {
	fmt.Println("Warehouse Configuration")
	fmt.Println("=======================")

	fmt.Println("\nWarehouse:")
	fmt.Printf("  Name:            %s\n", cfg.Warehouse.Name)
	fmt.Printf("  Queue capacity:  %d\n", cfg.Warehouse.QueueCapacity)
	fmt.Printf("  Poll interval:   %s\n", cfg.Warehouse.PollInterval)
	fmt.Printf("  Block latency:   %s\n", cfg.Warehouse.BlockLatency)
	fmt.Printf("  Initial blocks:  %d\n", cfg.Warehouse.InitialBlocks)

	fmt.Println("\nSimulation:")
	fmt.Printf("  Trucks:          %d\n", cfg.Simulation.Trucks)
	fmt.Printf("  Rounds:          %d\n", cfg.Simulation.Rounds)
	fmt.Printf("  Truck capacity:  %d\n", cfg.Simulation.TruckCapacity)
	fmt.Printf("  Arrival rate:    %.1f/s (burst %d)\n", cfg.Simulation.ArrivalsPerSecond, cfg.Simulation.Burst)
	if cfg.Simulation.PIDFile != "" {
		fmt.Printf("  PID file:        %s\n", cfg.Simulation.PIDFile)
	}

	fmt.Println("\nJournal:")
	fmt.Printf("  Enabled:         %t\n", cfg.Database.Enabled)
	fmt.Printf("  Type:            %s\n", cfg.Database.Type)
	switch {
	case cfg.Database.Type == "sqlite":
		fmt.Printf("  Path:            %s\n", cfg.Database.Path)
	case cfg.Database.URL != "":
		fmt.Println("  URL:             (set)")
	default:
		fmt.Printf("  Host:            %s:%d/%s\n", cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)
	}

	fmt.Println("\nLogging:")
	fmt.Printf("  Level:           %s\n", cfg.Logging.Level)
	fmt.Printf("  Format:          %s\n", cfg.Logging.Format)
	fmt.Printf("  Output:          %s\n", cfg.Logging.Output)

	fmt.Println("\nMetrics:")
	fmt.Printf("  Enabled:         %t\n", cfg.Metrics.Enabled)
	fmt.Printf("  Endpoint:        http://%s%s\n", cfg.Metrics.Address(), cfg.Metrics.Path)
}
