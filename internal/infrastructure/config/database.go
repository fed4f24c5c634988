package config

import (
	"fmt"
	"time"
)

// DatabaseConfig describes where the service journal lives.
// Storage itself is never persisted; only the record of serviced trucks is.
type DatabaseConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Type    string `mapstructure:"type" validate:"required,oneof=postgres sqlite"`

	// postgres: URL wins over the discrete fields
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode" validate:"omitempty,oneof=disable require verify-ca verify-full"`

	// sqlite: file path or ":memory:"
	Path string `mapstructure:"path"`

	Pool PoolConfig `mapstructure:"pool"`
}

// PoolConfig bounds the postgres connection pool
type PoolConfig struct {
	MaxOpen     int           `mapstructure:"max_open" validate:"min=1"`
	MaxIdle     int           `mapstructure:"max_idle" validate:"min=1"`
	MaxLifetime time.Duration `mapstructure:"max_lifetime"`
}

// DSN returns the driver connection string for the configured type
func (d DatabaseConfig) DSN() string {
	switch d.Type {
	case "sqlite":
		if d.Path == "" {
			return ":memory:"
		}
		return d.Path
	default:
		if d.URL != "" {
			return d.URL
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
	}
}
