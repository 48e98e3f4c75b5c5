package entrypoint

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/mrlokans/choirbook/internal/config"
	"github.com/mrlokans/choirbook/internal/database"
	"github.com/mrlokans/choirbook/internal/events"
	"github.com/mrlokans/choirbook/internal/kvstore"
	"github.com/mrlokans/choirbook/internal/storage"
)

// NewBackend builds the storage backend named by STORAGE_BACKEND.
func NewBackend(cfg *config.Config) (storage.Backend, error) {
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		return database.NewBackend(database.Config{
			Driver:   database.DriverSQLite,
			Path:     cfg.Database.Path,
			LogLevel: cfg.Database.LogLevel,
		}), nil
	case config.BackendPostgres:
		return database.NewBackend(database.Config{
			Driver:   database.DriverPostgres,
			DSN:      cfg.Database.DSN,
			LogLevel: cfg.Database.LogLevel,
		}), nil
	case config.BackendKV:
		return kvstore.NewOsStore(cfg.KV.Dir), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// OpenLibrary creates and initializes the storage service for cfg.
func OpenLibrary(ctx context.Context, cfg *config.Config) (*storage.Service, error) {
	backend, err := NewBackend(cfg)
	if err != nil {
		return nil, err
	}
	library := storage.NewService(backend)
	if err := library.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize %s storage: %w", backend.Name(), err)
	}
	return library, nil
}

// TasksAnchorPath is the file the task queue database is placed next to.
// The kv backend has no database file of its own, so the queue lives in its
// data directory.
func TasksAnchorPath(cfg *config.Config) string {
	if cfg.Storage.Backend == config.BackendKV {
		return filepath.Join(cfg.KV.Dir, "choirbook.db")
	}
	return cfg.Database.Path
}

// logEvents writes one log line per bus event.
func logEvents(bus *events.Bus) func() {
	ch, cancel := bus.Subscribe(64)
	go func() {
		for ev := range ch {
			log.Printf("[EVENT] %s", ev.Name)
		}
	}()
	return cancel
}
