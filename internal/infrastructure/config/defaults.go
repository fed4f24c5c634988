package config

import "time"

// Fallback values applied by SetDefaults to anything left at its zero value
const (
	defaultQueueCapacity = 10
	defaultPollInterval  = 100 * time.Millisecond
	defaultBlockLatency  = 10 * time.Millisecond
	defaultInitialBlocks = 100
)

// SetDefaults fills every unset field. A zero duration or count is treated as unset.
func SetDefaults(cfg *Config) {
	cfg.Warehouse.setDefaults()
	cfg.Simulation.setDefaults(cfg.Warehouse.QueueCapacity)
	cfg.Database.setDefaults()
	cfg.Logging.setDefaults()
	cfg.Metrics.setDefaults()
}

func (w *WarehouseConfig) setDefaults() {
	orString(&w.Name, "warehouse")
	orInt(&w.QueueCapacity, defaultQueueCapacity)
	orDuration(&w.PollInterval, defaultPollInterval)
	orDuration(&w.BlockLatency, defaultBlockLatency)
	orInt(&w.InitialBlocks, defaultInitialBlocks)
}

// One truck per queue slot keeps the queue busy without starving arrivals
func (s *SimulationConfig) setDefaults(queueCapacity int) {
	orInt(&s.Trucks, queueCapacity)
	orInt(&s.Rounds, 4)
	orInt(&s.TruckCapacity, 5)
	if s.ArrivalsPerSecond == 0 {
		s.ArrivalsPerSecond = 20
	}
	orInt(&s.Burst, 5)
}

func (d *DatabaseConfig) setDefaults() {
	orString(&d.Type, "sqlite")
	orString(&d.Path, "warehouse.db")
	orString(&d.Host, "localhost")
	orInt(&d.Port, 5432)
	orString(&d.User, "warehouse")
	orString(&d.Name, "warehouse")
	orString(&d.SSLMode, "disable")
	orInt(&d.Pool.MaxOpen, 25)
	orInt(&d.Pool.MaxIdle, 5)
	orDuration(&d.Pool.MaxLifetime, 5*time.Minute)
}

func (l *LoggingConfig) setDefaults() {
	orString(&l.Level, "info")
	orString(&l.Format, "text")
	orString(&l.Output, "stdout")
}

func (m *MetricsConfig) setDefaults() {
	orString(&m.Host, "localhost")
	orInt(&m.Port, 9090)
	orString(&m.Path, "/metrics")
}

func orString(field *string, fallback string) {
	if *field == "" {
		*field = fallback
	}
}

func orInt(field *int, fallback int) {
	if *field == 0 {
		*field = fallback
	}
}

func orDuration(field *time.Duration, fallback time.Duration) {
	if *field == 0 {
		*field = fallback
	}
}
