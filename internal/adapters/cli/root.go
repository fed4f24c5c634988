package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/warehouse-go/internal/infrastructure/config"
)

var (
	// Global flags
	configPath string
	verbose    bool
)

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "warehouse-sim",
		Short: "Warehouse dock simulation",
		Long: `warehouse-sim runs a single-dock warehouse: trucks queue at the dock,
one worker loads empty trucks from storage and unloads full ones back into it.

Examples:
  warehouse-sim run
  warehouse-sim run --trucks 20 --rounds 10 --latency 0
  warehouse-sim run --journal --metrics
  warehouse-sim journal recent --limit 20
  warehouse-sim journal truck <truck-id>
  warehouse-sim config show`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to config file (default: search ./, ./configs, /etc/warehouse)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")

	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewJournalCommand())
	rootCmd.AddCommand(NewConfigCommand())

	return rootCmd
}

// loadConfig loads configuration honouring the global flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
