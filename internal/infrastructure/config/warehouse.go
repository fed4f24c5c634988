package config

import "time"

// WarehouseConfig holds dock and storage configuration
type WarehouseConfig struct {
	// Name identifies the warehouse in logs, metrics and the journal
	Name string `mapstructure:"name" validate:"required"`

	// Hand-off queue size; sized to the truck population, not to concurrency depth
	QueueCapacity int `mapstructure:"queue_capacity" validate:"min=1"`

	// Idle backoff between polls of an empty queue
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"required"`

	// Simulated time to move a single block across the dock
	BlockLatency time.Duration `mapstructure:"block_latency" validate:"min=0"`

	// Number of blocks storage starts with
	InitialBlocks int `mapstructure:"initial_blocks" validate:"min=0"`
}
