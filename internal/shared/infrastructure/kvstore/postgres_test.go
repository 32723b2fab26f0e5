package kvstore

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// Set HIRELANE_TEST_POSTGRES_URL to run against a real server.
func TestPostgresStore(t *testing.T) {
	url := os.Getenv("HIRELANE_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("HIRELANE_TEST_POSTGRES_URL not set")
	}

	runStoreContract(t, func(t *testing.T) Store {
		ctx := context.Background()
		s, err := OpenPostgresStore(ctx, url)
		require.NoError(t, err)
		_, err = s.pool.Exec(ctx, `TRUNCATE kv_entries`)
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}
