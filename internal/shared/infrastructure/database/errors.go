package database

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
)

// IsNotFound reports whether err means the key or row does not exist, for
// every store backend: sql.ErrNoRows (SQLite), pgx.ErrNoRows (PostgreSQL)
// and redis.Nil.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, sql.ErrNoRows) ||
		errors.Is(err, pgx.ErrNoRows) ||
		errors.Is(err, redis.Nil)
}
