package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	logadapter "github.com/andrescamacho/warehouse-go/internal/adapters/logging"
	"github.com/andrescamacho/warehouse-go/internal/adapters/metrics"
	"github.com/andrescamacho/warehouse-go/internal/adapters/persistence"
	"github.com/andrescamacho/warehouse-go/internal/application/common"
	"github.com/andrescamacho/warehouse-go/internal/application/dock"
	"github.com/andrescamacho/warehouse-go/internal/application/logging"
	"github.com/andrescamacho/warehouse-go/internal/application/simulation"
	"github.com/andrescamacho/warehouse-go/internal/domain/warehouse"
	"github.com/andrescamacho/warehouse-go/internal/infrastructure/config"
	"github.com/andrescamacho/warehouse-go/internal/infrastructure/database"
	"github.com/andrescamacho/warehouse-go/internal/infrastructure/pidfile"
	"github.com/andrescamacho/warehouse-go/pkg/utils"
)

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	var (
		trucks        int
		rounds        int
		truckCapacity int
		initialBlocks int
		queueCapacity int
		latency       time.Duration
		pollInterval  time.Duration
		arrivalRate   float64
		journal       bool
		serveMetrics  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a dock simulation",
		Long: `Start the dock worker and drive a fleet of trucks through it.

Each truck arrives once per round: empty trucks are loaded from storage,
loaded trucks are unloaded back into it. The run ends when every truck has
finished its rounds or on SIGINT/SIGTERM.

Flags override the matching config values.

Examples:
  warehouse-sim run
  warehouse-sim run --trucks 10 --rounds 4 --capacity 5
  warehouse-sim run --initial 3 --capacity 5 --rounds 1
  warehouse-sim run --journal --metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("trucks") {
				cfg.Simulation.Trucks = trucks
			}
			if flags.Changed("rounds") {
				cfg.Simulation.Rounds = rounds
			}
			if flags.Changed("capacity") {
				cfg.Simulation.TruckCapacity = truckCapacity
			}
			if flags.Changed("rate") {
				cfg.Simulation.ArrivalsPerSecond = arrivalRate
			}
			if flags.Changed("initial") {
				cfg.Warehouse.InitialBlocks = initialBlocks
			}
			if flags.Changed("queue") {
				cfg.Warehouse.QueueCapacity = queueCapacity
			}
			if flags.Changed("latency") {
				cfg.Warehouse.BlockLatency = latency
			}
			if flags.Changed("poll") {
				cfg.Warehouse.PollInterval = pollInterval
			}
			if flags.Changed("journal") {
				cfg.Database.Enabled = journal
			}
			if flags.Changed("metrics") {
				cfg.Metrics.Enabled = serveMetrics
			}
			if err := config.ValidateConfig(cfg); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			report, stats, err := runSimulation(ctx, cfg)
			if report != nil {
				printReport(report, stats)
			}
			return err
		},
	}

	cmd.Flags().IntVar(&trucks, "trucks", 0, "Number of trucks in the fleet")
	cmd.Flags().IntVar(&rounds, "rounds", 0, "Arrivals per truck")
	cmd.Flags().IntVar(&truckCapacity, "capacity", 0, "Blocks each truck can carry")
	cmd.Flags().IntVar(&initialBlocks, "initial", 0, "Blocks in storage at start")
	cmd.Flags().IntVar(&queueCapacity, "queue", 0, "Hand-off queue capacity")
	cmd.Flags().DurationVar(&latency, "latency", 0, "Simulated transfer time per block")
	cmd.Flags().DurationVar(&pollInterval, "poll", 0, "Worker idle backoff")
	cmd.Flags().Float64Var(&arrivalRate, "rate", 0, "Fleet-wide arrivals per second")
	cmd.Flags().BoolVar(&journal, "journal", false, "Record every service in the journal database")
	cmd.Flags().BoolVar(&serveMetrics, "metrics", false, "Serve Prometheus metrics while running")

	return cmd
}

// runSimulation wires the dock, its observers and the fleet, and runs them until
// the fleet finishes or ctx is cancelled
func runSimulation(ctx context.Context, cfg *config.Config) (*simulation.Report, dock.Stats, error) {
	logger, err := logadapter.NewLogrusLogger(cfg.Logging)
	if err != nil {
		return nil, dock.Stats{}, err
	}
	defer logger.Close()
	runID := utils.GenerateRunID(cfg.Warehouse.Name)
	ctx = logging.WithLogger(ctx, logger.With(map[string]interface{}{"run": runID}))

	if cfg.Simulation.PIDFile != "" {
		pf := pidfile.New(cfg.Simulation.PIDFile)
		if err := pf.Acquire(); err != nil {
			return nil, dock.Stats{}, err
		}
		defer func() {
			if err := pf.Release(); err != nil {
				logger.Log(logging.LevelWarn, "Failed to release PID file", map[string]interface{}{
					"path":  pf.Path(),
					"error": err.Error(),
				})
			}
		}()
	}

	var recorders dock.MultiRecorder

	if cfg.Database.Enabled {
		db, err := openJournal(&cfg.Database)
		if err != nil {
			return nil, dock.Stats{}, err
		}
		defer database.Close(db)
		recorders = append(recorders, dock.NewJournalRecorder(persistence.NewGormServiceJournalRepository(db)))
	}

	var wh *dock.Warehouse
	var collector *metrics.WarehouseMetricsCollector
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		collector = metrics.NewWarehouseMetricsCollector(func() dock.Stats { return wh.Stats() })
		if err := collector.Register(metrics.GetRegistry()); err != nil {
			return nil, dock.Stats{}, fmt.Errorf("failed to register metrics: %w", err)
		}
		recorders = append(recorders, collector)
	}

	wh, err = dock.NewWarehouse(cfg.Warehouse.Name,
		dock.WithInitialStorage(warehouse.NewBlocks(cfg.Warehouse.InitialBlocks)),
		dock.WithQueueCapacity(cfg.Warehouse.QueueCapacity),
		dock.WithPollInterval(cfg.Warehouse.PollInterval),
		dock.WithBlockLatency(cfg.Warehouse.BlockLatency),
		dock.WithServiceRecorder(recorders),
	)
	if err != nil {
		return nil, dock.Stats{}, err
	}

	if collector != nil {
		collector.Start(ctx, time.Second)
		defer collector.Stop()

		srv := startMetricsServer(ctx, cfg.Metrics)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	m := common.NewMediator()
	m.Use(common.LoggingMiddleware)
	if err := common.RegisterHandler[*dock.ArriveTruckCommand](m, dock.NewArriveTruckHandler(wh)); err != nil {
		return nil, dock.Stats{}, err
	}
	if err := common.RegisterHandler[*simulation.RunSimulationCommand](m, simulation.NewRunSimulationHandler(wh, m)); err != nil {
		return nil, dock.Stats{}, err
	}

	trucks, err := simulation.NewTrucks(cfg.Simulation.Trucks, cfg.Simulation.TruckCapacity)
	if err != nil {
		return nil, dock.Stats{}, err
	}

	resp, err := m.Send(ctx, &simulation.RunSimulationCommand{
		Trucks:  trucks,
		Rounds:  cfg.Simulation.Rounds,
		Limiter: rate.NewLimiter(rate.Limit(cfg.Simulation.ArrivalsPerSecond), cfg.Simulation.Burst),
	})
	result, ok := resp.(*simulation.RunSimulationResponse)
	if !ok {
		if err == nil {
			err = fmt.Errorf("unexpected response type %T", resp)
		}
		return nil, wh.Stats(), err
	}
	return result.Report, result.Stats, err
}

func openJournal(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := database.NewConnection(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to journal database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("failed to migrate journal database: %w", err)
	}
	return db, nil
}

func startMetricsServer(ctx context.Context, cfg config.MetricsConfig) *http.Server {
	logger := logging.LoggerFromContext(ctx)

	mux := http.NewServeMux()
	mux.Handle(cfg.Path, metrics.Handler())
	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Log(logging.LevelInfo, "Metrics server listening", map[string]interface{}{
			"address": cfg.Address(),
			"path":    cfg.Path,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log(logging.LevelError, "Metrics server failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	return srv
}

func printReport(report *simulation.Report, stats dock.Stats) {
	fmt.Println()
	fmt.Printf("Simulation of %s finished in %s\n", stats.Name, report.Duration.Round(time.Millisecond))
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRUCK\tLOADS\tUNLOADS\tSHORTAGES\tCARGO")
	for _, t := range report.Trucks {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", t.Name, t.Loads, t.Unloads, t.Shortages, t.FinalCargo)
	}
	w.Flush()

	fmt.Println()
	fmt.Printf("Arrivals:          %d (%d shortages)\n", report.Arrivals, report.Shortages)
	fmt.Printf("Storage length:    %d\n", stats.Storage.Length)
	fmt.Printf("Storage cursor:    %d\n", stats.Storage.Cursor)
	fmt.Printf("Storage available: %d\n", stats.Storage.Available)
	fmt.Printf("Blocks on trucks:  %d\n", report.BlocksOnTrucks())
	if n := report.AbandonedTrucks(); n > 0 {
		fmt.Printf("Left at the dock:  %d trucks\n", n)
	}
}
