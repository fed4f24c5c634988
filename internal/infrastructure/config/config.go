package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is everything warehouse-sim reads at startup
type Config struct {
	Warehouse  WarehouseConfig  `mapstructure:"warehouse"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// LoadConfig reads configPath (or the first config.yaml found on the search path),
// overlays WH_* environment variables, fills defaults and validates the result.
// A .env file in the working directory is loaded into the environment first.
func LoadConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/warehouse")
	}

	v.SetEnvPrefix("WH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// DATABASE_URL is honoured without the WH_ prefix
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		v.Set("database.url", dbURL)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	SetDefaults(&cfg)

	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// bindEnvKeys makes every key visible to Unmarshal so WH_* variables apply
// even when no config file mentions them
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"warehouse.name", "warehouse.queue_capacity", "warehouse.poll_interval",
		"warehouse.block_latency", "warehouse.initial_blocks",
		"simulation.trucks", "simulation.rounds", "simulation.truck_capacity",
		"simulation.arrivals_per_second", "simulation.burst", "simulation.pid_file",
		"database.enabled", "database.type", "database.url", "database.host", "database.port",
		"database.user", "database.password", "database.name", "database.sslmode", "database.path",
		"logging.level", "logging.format", "logging.output", "logging.file_path",
		"metrics.enabled", "metrics.host", "metrics.port", "metrics.path",
	}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// LoadConfigOrDefault is LoadConfig, falling back to pure defaults if anything fails
func LoadConfigOrDefault(configPath string) *Config {
	if cfg, err := LoadConfig(configPath); err == nil {
		return cfg
	}
	cfg := &Config{}
	SetDefaults(cfg)
	return cfg
}
