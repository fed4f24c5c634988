package config

// SimulationConfig holds the truck fleet that drives the warehouse in the simulator
type SimulationConfig struct {
	// Number of trucks arriving concurrently
	Trucks int `mapstructure:"trucks" validate:"min=1"`

	// Arrivals per truck; each truck alternates load and unload
	Rounds int `mapstructure:"rounds" validate:"min=1"`

	// Blocks each truck can carry
	TruckCapacity int `mapstructure:"truck_capacity" validate:"min=1"`

	// Arrival rate limiting across the whole fleet
	ArrivalsPerSecond float64 `mapstructure:"arrivals_per_second" validate:"gt=0"`

	// Burst size for token bucket
	Burst int `mapstructure:"burst" validate:"min=1"`

	// PID file location (empty disables single-instance enforcement)
	PIDFile string `mapstructure:"pid_file"`
}
