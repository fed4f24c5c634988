package config

import "fmt"

// MetricsConfig holds the Prometheus endpoint configuration
type MetricsConfig struct {
	// Enabled controls whether dock metrics are collected and served
	Enabled bool `mapstructure:"enabled"`

	// Host to bind the metrics HTTP server (default: localhost)
	Host string `mapstructure:"host"`

	// Port for the HTTP metrics server
	Port int `mapstructure:"port" validate:"omitempty,min=1024,max=65535"`

	// Path for the metrics endpoint (default: /metrics)
	Path string `mapstructure:"path" validate:"omitempty,startswith=/"`
}

// Address returns host:port for the metrics listener
func (m MetricsConfig) Address() string {
	return fmt.Sprintf("%s:%d", m.Host, m.Port)
}
