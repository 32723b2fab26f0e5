package kvstore

import (
	"context"
	"fmt"

	"github.com/hirelane/hirelane/internal/shared/infrastructure/database"
)

// Config selects and configures a backend.
type Config struct {
	// Driver is the backend. If empty it is detected from URL.
	Driver database.Driver
	// URL is the Redis or PostgreSQL connection string.
	URL string
	// SQLitePath is the database file for the SQLite driver.
	// Defaults to ~/.hirelane/state.db
	SQLitePath string
}

// Open creates the configured store.
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = database.DetectDriver(cfg.URL)
	}

	switch driver {
	case database.DriverSQLite:
		return OpenSQLiteStore(ctx, cfg.SQLitePath)
	case database.DriverRedis:
		return NewRedisStoreFromURL(ctx, cfg.URL)
	case database.DriverPostgres:
		return OpenPostgresStore(ctx, cfg.URL)
	case database.DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", driver)
	}
}
