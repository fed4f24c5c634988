package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/warehouse-go/internal/infrastructure/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestSetDefaults(t *testing.T) {
	cfg := &config.Config{}

	config.SetDefaults(cfg)

	assert.Equal(t, "warehouse", cfg.Warehouse.Name)
	assert.Equal(t, 10, cfg.Warehouse.QueueCapacity)
	assert.Equal(t, 100*time.Millisecond, cfg.Warehouse.PollInterval)
	assert.Equal(t, 10*time.Millisecond, cfg.Warehouse.BlockLatency)
	assert.Equal(t, 10, cfg.Simulation.Trucks, "fleet defaults to one truck per queue slot")
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.NoError(t, config.ValidateConfig(cfg))
}

func TestLoadConfig_FromFile(t *testing.T) {
	// Arrange
	path := writeConfig(t, `
warehouse:
  name: north
  queue_capacity: 4
  poll_interval: 5ms
  block_latency: 1ms
  initial_blocks: 12
simulation:
  trucks: 3
  rounds: 2
logging:
  level: debug
  format: json
`)

	// Act
	cfg, err := config.LoadConfig(path)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "north", cfg.Warehouse.Name)
	assert.Equal(t, 4, cfg.Warehouse.QueueCapacity)
	assert.Equal(t, 5*time.Millisecond, cfg.Warehouse.PollInterval)
	assert.Equal(t, time.Millisecond, cfg.Warehouse.BlockLatency)
	assert.Equal(t, 12, cfg.Warehouse.InitialBlocks)
	assert.Equal(t, 3, cfg.Simulation.Trucks)
	assert.Equal(t, 2, cfg.Simulation.Rounds)
	assert.Equal(t, 5, cfg.Simulation.TruckCapacity)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "warehouse:\n  queue_capacity: 4\n")
	t.Setenv("WH_WAREHOUSE_QUEUE_CAPACITY", "7")
	t.Setenv("DATABASE_URL", "postgres://wh@db/warehouse")

	cfg, err := config.LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Warehouse.QueueCapacity)
	assert.Equal(t, "postgres://wh@db/warehouse", cfg.Database.URL)
}

func TestLoadConfig_ValidationReportsConfigKey(t *testing.T) {
	path := writeConfig(t, "warehouse:\n  queue_capacity: -1\n")

	_, err := config.LoadConfig(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "warehouse.queue_capacity")
}

func TestLoadConfig_FileOutputNeedsPath(t *testing.T) {
	path := writeConfig(t, "logging:\n  output: file\n")

	_, err := config.LoadConfig(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.file_path")
}

func TestLoadConfigOrDefault_FallsBack(t *testing.T) {
	path := writeConfig(t, "warehouse:\n  queue_capacity: -1\n")

	cfg := config.LoadConfigOrDefault(path)

	assert.Equal(t, 10, cfg.Warehouse.QueueCapacity)
}

func TestMetricsConfig_Address(t *testing.T) {
	m := config.MetricsConfig{Host: "0.0.0.0", Port: 9102}

	assert.Equal(t, "0.0.0.0:9102", m.Address())
}

func TestDatabaseConfig_DSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.DatabaseConfig
		want string
	}{
		{name: "sqlite path", cfg: config.DatabaseConfig{Type: "sqlite", Path: "journal.db"}, want: "journal.db"},
		{name: "sqlite default", cfg: config.DatabaseConfig{Type: "sqlite"}, want: ":memory:"},
		{name: "postgres url", cfg: config.DatabaseConfig{Type: "postgres", URL: "postgres://db/wh"}, want: "postgres://db/wh"},
		{
			name: "postgres fields",
			cfg: config.DatabaseConfig{
				Type: "postgres", Host: "db", Port: 5432, User: "wh", Password: "pw", Name: "journal", SSLMode: "disable",
			},
			want: "host=db port=5432 user=wh password=pw dbname=journal sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.DSN())
		})
	}
}
