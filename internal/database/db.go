package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Config contains database connection options.
type Config struct {
	Driver      string
	Path        string        // SQLite database path; empty or ":memory:" opens a private in-memory database
	DSN         string        // Optional DSN override
	BusyTimeout time.Duration // How long a writer waits for a lock; defaults to five seconds
}

// Open initialises a gorm.DB using the provided configuration.
func Open(cfg Config) (*gorm.DB, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = "sqlite"
	}

	switch driver {
	case "sqlite":
		return openSQLite(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// MigrateAndSeed migrates the schema and runs seed when it is non-nil.
func MigrateAndSeed(db *gorm.DB, seed func(*gorm.DB) error, extra ...any) error {
	if db == nil {
		return errors.New("nil database handle")
	}

	if err := AutoMigrate(db, extra...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if seed != nil {
		if err := seed(db); err != nil {
			return fmt.Errorf("seed data: %w", err)
		}
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
