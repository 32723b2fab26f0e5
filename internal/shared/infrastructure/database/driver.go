package database

import (
	"fmt"
	"strings"
)

// Driver represents a storage backend type.
type Driver string

const (
	// DriverSQLite is the embedded single-device store.
	DriverSQLite Driver = "sqlite"
	// DriverPostgres is a shared PostgreSQL store.
	DriverPostgres Driver = "postgres"
	// DriverRedis is a shared Redis store.
	DriverRedis Driver = "redis"
	// DriverMemory keeps state for the lifetime of the process only.
	DriverMemory Driver = "memory"
)

// String returns the string representation of the driver.
func (d Driver) String() string {
	return string(d)
}

// IsValid returns true if the driver is a known type.
func (d Driver) IsValid() bool {
	switch d {
	case DriverSQLite, DriverPostgres, DriverRedis, DriverMemory:
		return true
	default:
		return false
	}
}

// ParseDriver converts a configured driver name. An empty name selects SQLite.
func ParseDriver(name string) (Driver, error) {
	if name == "" {
		return DriverSQLite, nil
	}
	d := Driver(strings.ToLower(strings.TrimSpace(name)))
	if !d.IsValid() {
		return "", fmt.Errorf("unsupported store driver: %s", name)
	}
	return d, nil
}

// DetectDriver infers the driver from a connection string.
// Returns DriverSQLite for empty URLs to enable zero-config local mode.
func DetectDriver(url string) Driver {
	switch {
	case url == "":
		return DriverSQLite
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DriverPostgres
	case strings.HasPrefix(url, "redis://"), strings.HasPrefix(url, "rediss://"), strings.HasPrefix(url, "unix://"):
		return DriverRedis
	case url == ":memory:":
		return DriverMemory
	default:
		return DriverSQLite
	}
}
