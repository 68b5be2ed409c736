// Package storage provides the GORM-based persistence layer for pagewatch.
//
// It supports both SQLite (for development) and PostgreSQL (for production).
// The schema is created by GORM AutoMigrate and then adjusted by a small
// versioned migrator for indexes and data backfills.
package storage

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pagewatch/internal/config"
)

// Storage wraps the GORM database instance.
type Storage struct {
	db *gorm.DB
}

// New initializes a new Storage instance based on the provided configuration.
//
// Supported drivers:
//   - "sqlite": for development and single-node deployments
//   - "postgres": for production setups
//
// Connection pooling is configured from config.StorageConfig. All models are
// auto-migrated and pending versioned migrations are applied before New returns.
func New(cfg config.StorageConfig) (*Storage, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		// WAL and foreign keys are required for cascading deletes
		dsn := fmt.Sprintf("%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", cfg.DSN)
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve sql.DB from GORM: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.AutoMigrate(allModels()...); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to auto-migrate models: %w", err)
	}

	if _, err := NewMigrator(db).Migrate(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &Storage{db: db}, nil
}

// DB returns the underlying GORM database instance.
func (s *Storage) DB() *gorm.DB {
	return s.db
}

// Ping verifies the database connection is alive.
func (s *Storage) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to retrieve sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to retrieve sql.DB for closing: %w", err)
	}
	return sqlDB.Close()
}
