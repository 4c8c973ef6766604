// Package database opens the SQLite file backing the workflow store and keeps
// its schema current. Transaction management lives with the repositories under
// internal/infrastructure/persistence; this package only owns the handle.
package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Config holds the SQLite settings for the workflow store
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DB owns the store's sql.DB handle
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// Open opens (or creates) the workflow store. WAL keeps the CAS state updates
// from blocking readers; the busy timeout covers writer contention between the
// HTTP path and the background sweeps.
func Open(cfg Config, logger *zap.Logger) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on", cfg.Path)

	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open workflow store: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping workflow store: %w", err)
	}

	logger.Info("Workflow store opened", zap.String("path", cfg.Path))
	return &DB{DB: sqlDB, logger: logger}, nil
}

// Close closes the store handle
func (db *DB) Close() error {
	db.logger.Info("Closing workflow store")
	return db.DB.Close()
}
