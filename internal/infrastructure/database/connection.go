package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/andrescamacho/warehouse-go/internal/adapters/persistence"
	"github.com/andrescamacho/warehouse-go/internal/infrastructure/config"
)

// NewConnection opens the service journal database described by cfg
func NewConnection(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Type {
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported journal database type: %q", cfg.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s journal: %w", cfg.Type, err)
	}

	pool, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get journal connection pool: %w", err)
	}
	if cfg.Type == "sqlite" {
		// One connection keeps an in-memory database alive and serialises writers
		pool.SetMaxOpenConns(1)
	} else {
		pool.SetMaxOpenConns(cfg.Pool.MaxOpen)
		pool.SetMaxIdleConns(cfg.Pool.MaxIdle)
		pool.SetConnMaxLifetime(cfg.Pool.MaxLifetime)
	}

	return db, nil
}

// NewTestConnection opens a migrated in-memory SQLite journal
func NewTestConnection() (*gorm.DB, error) {
	db, err := NewConnection(&config.DatabaseConfig{Type: "sqlite", Path: ":memory:"})
	if err != nil {
		return nil, err
	}
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate test journal: %w", err)
	}
	return db, nil
}

// AutoMigrate creates or updates the journal schema
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&persistence.ServiceJournalModel{})
}

// Close releases the underlying connection pool
func Close(db *gorm.DB) error {
	pool, err := db.DB()
	if err != nil {
		return err
	}
	return pool.Close()
}
