package app

import (
	"fmt"

	billingDomain "github.com/hirelane/hirelane/internal/billing/domain"
	"github.com/hirelane/hirelane/internal/billing/infrastructure/persistence"
	"github.com/hirelane/hirelane/internal/gateway"
	"github.com/hirelane/hirelane/internal/shared/infrastructure/crypto"
	"github.com/hirelane/hirelane/internal/shared/infrastructure/database"
	"github.com/hirelane/hirelane/internal/shared/infrastructure/kvstore"
	"github.com/hirelane/hirelane/pkg/config"
)

// StoreConfig maps the configured store onto a kvstore backend.
func StoreConfig(cfg *config.Config) (kvstore.Config, error) {
	driver, err := database.ParseDriver(cfg.Store.Driver)
	if err != nil {
		return kvstore.Config{}, err
	}

	sc := kvstore.Config{Driver: driver}
	switch driver {
	case database.DriverSQLite:
		sc.SQLitePath = cfg.Store.SQLitePath
	case database.DriverRedis:
		sc.URL = cfg.Store.RedisURL
	case database.DriverPostgres:
		sc.URL = cfg.Store.PostgresURL
	case database.DriverMemory:
	default:
		return kvstore.Config{}, fmt.Errorf("unsupported driver: %s", driver)
	}
	return sc, nil
}

// RepositoryFactory creates repositories on top of one key/value store.
type RepositoryFactory struct {
	store  kvstore.Store
	sealer *crypto.AESSealer
}

// NewRepositoryFactory creates a new repository factory.
func NewRepositoryFactory(store kvstore.Store) *RepositoryFactory {
	return &RepositoryFactory{store: store}
}

// WithTokenKey encrypts the stored bearer token with the given base64 key.
// An empty key leaves the token in plain text.
func (f *RepositoryFactory) WithTokenKey(encodedKey string) (*RepositoryFactory, error) {
	if encodedKey == "" {
		return f, nil
	}
	sealer, err := crypto.NewAESSealerFromBase64Key(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("store.token_key: %w", err)
	}
	f.sealer = sealer
	return f, nil
}

// RecordRepository creates the entitlement record repository.
func (f *RepositoryFactory) RecordRepository() billingDomain.RecordRepository {
	return persistence.NewKVRecordRepository(f.store)
}

// TokenStore creates the bearer token store.
func (f *RepositoryFactory) TokenStore() gateway.TokenStore {
	if f.sealer != nil {
		return gateway.NewKVTokenStore(f.store, gateway.WithSealer(f.sealer, crypto.IsSealed))
	}
	return gateway.NewKVTokenStore(f.store)
}
