// Package backend selects and constructs the record-store implementation
// from configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"worklog/internal/config"
	"worklog/internal/records"
	"worklog/internal/records/airtable"
	"worklog/internal/records/memory"
	"worklog/internal/records/sqlite"
)

// CleanupFunc releases backend resources at shutdown.
type CleanupFunc func() error

// Result holds the store and an optional cleanup function.
type Result struct {
	Store   records.Store
	Cleanup CleanupFunc
}

// Type is the configured record-store backend.
type Type string

const (
	Airtable Type = "airtable"
	SQLite   Type = "sqlite"
	Memory   Type = "memory"
)

func (t Type) IsValid() bool {
	switch t {
	case Airtable, SQLite, Memory:
		return true
	default:
		return false
	}
}

// Factory builds record stores.
type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// Create constructs the store named by cfg.RecordsBackend.
func (f *Factory) Create(_ context.Context, cfg *config.Config) (*Result, error) {
	t := Type(cfg.RecordsBackend)
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid records backend: %s", cfg.RecordsBackend)
	}

	switch t {
	case Airtable:
		cli, err := airtable.New(cfg.AirtableToken, cfg.AirtableBaseID)
		if err != nil {
			return nil, fmt.Errorf("initialize Airtable client: %w", err)
		}
		f.logger.Info("Initialized Airtable record store", "base_id", cfg.AirtableBaseID)
		return &Result{Store: cli}, nil

	case SQLite:
		store, err := sqlite.New(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize SQLite record store: %w", err)
		}
		f.logger.Info("Initialized SQLite record store", "db_path", cfg.SQLiteDBPath)
		return &Result{Store: store, Cleanup: store.Close}, nil

	default:
		f.logger.Info("Initialized in-memory record store")
		return &Result{Store: memory.New()}, nil
	}
}
