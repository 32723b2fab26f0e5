package kvstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hirelane/hirelane/internal/shared/infrastructure/database"
	"github.com/hirelane/hirelane/internal/shared/infrastructure/database/postgres"
	"github.com/hirelane/hirelane/internal/shared/infrastructure/migrations"
)

// PostgresStore keeps entries in a shared PostgreSQL table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgresStore connects to url and ensures the schema.
func OpenPostgresStore(ctx context.Context, url string) (*PostgresStore, error) {
	pool, err := postgres.Open(ctx, url, 4)
	if err != nil {
		return nil, err
	}
	s, err := NewPostgresStore(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStore wraps an existing pool and ensures the schema.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		return nil, fmt.Errorf("create kv schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := validateKey(key); err != nil {
		return "", false, err
	}
	var value string
	err := s.pool.QueryRow(ctx, `SELECT value FROM kv_entries WHERE key = $1`, key).Scan(&value)
	if database.IsNotFound(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	if err := validateEntry(key, value); err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, postgresUpsert, key, value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM kv_entries WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Update takes a transaction-scoped advisory lock per key, in sorted order so
// overlapping updates cannot deadlock, then locks existing rows FOR UPDATE.
// The advisory lock also covers keys that have no row yet.
func (s *PostgresStore) Update(ctx context.Context, keys []string, fn UpdateFunc) error {
	if err := validateKeys(keys); err != nil {
		return err
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback(ctx)

	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	for _, k := range sorted {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, k); err != nil {
			return fmt.Errorf("lock %s: %w", k, err)
		}
	}

	rows, err := tx.Query(ctx, `SELECT key, value FROM kv_entries WHERE key = ANY($1) FOR UPDATE`, keys)
	if err != nil {
		return fmt.Errorf("read keys: %w", err)
	}
	current := make(map[string]string, len(keys))
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			rows.Close()
			return fmt.Errorf("scan key: %w", err)
		}
		current[k] = v
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read keys: %w", err)
	}

	writes, err := fn(current)
	if err != nil {
		return err
	}
	if len(writes) == 0 {
		return nil
	}
	if err := checkWrites(keys, writes); err != nil {
		return err
	}

	for k, v := range writes {
		if _, err := tx.Exec(ctx, postgresUpsert, k, v); err != nil {
			return fmt.Errorf("write %s: %w", k, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit update: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const postgresUpsert = `
	INSERT INTO kv_entries (key, value) VALUES ($1, $2)
	ON CONFLICT (key) DO UPDATE SET
		value = EXCLUDED.value,
		updated_at = now()
`

var _ Store = (*PostgresStore)(nil)
