package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/hirelane/hirelane/internal/billing/domain"
	"github.com/hirelane/hirelane/internal/shared/infrastructure/kvstore"
)

// KVRecordRepository implements RecordRepository on a key/value store using
// the cv_download_max_/cv_download_count_/cv_last_package_ key layout.
type KVRecordRepository struct {
	store kvstore.Store
}

// NewKVRecordRepository creates a new repository.
func NewKVRecordRepository(store kvstore.Store) *KVRecordRepository {
	return &KVRecordRepository{store: store}
}

// Load reads all fields of the record in one consistent step.
func (r *KVRecordRepository) Load(ctx context.Context, userID string) (domain.Record, error) {
	if strings.TrimSpace(userID) == "" {
		return domain.Record{}, domain.ErrInvalidArgument
	}

	var rec domain.Record
	err := r.store.Update(ctx, recordKeys(userID), func(current map[string]string) (map[string]string, error) {
		var err error
		rec, err = decodeRecord(userID, current)
		return nil, err
	})
	if err != nil {
		return domain.Record{}, err
	}
	return rec, nil
}

// Mutate applies fn under the store's atomic update.
func (r *KVRecordRepository) Mutate(ctx context.Context, userID string, fn domain.MutateFunc) (domain.Record, error) {
	if strings.TrimSpace(userID) == "" {
		return domain.Record{}, domain.ErrInvalidArgument
	}

	var result domain.Record
	err := r.store.Update(ctx, recordKeys(userID), func(current map[string]string) (map[string]string, error) {
		rec, err := decodeRecord(userID, current)
		if err != nil {
			return nil, err
		}
		next, changed, err := fn(rec)
		if err != nil {
			return nil, err
		}
		if !changed {
			result = rec
			return nil, nil
		}
		next.UserID = userID
		result = next
		return encodeRecord(next), nil
	})
	if err != nil {
		return domain.Record{}, err
	}
	return result, nil
}

// MutateOnce applies fn at most once per token. The marker holds the owning
// user and is written in the same atomic update as the record.
func (r *KVRecordRepository) MutateOnce(ctx context.Context, userID, token string, fn domain.MutateFunc) (domain.Record, bool, error) {
	token = strings.TrimSpace(token)
	if strings.TrimSpace(userID) == "" || token == "" {
		return domain.Record{}, false, domain.ErrInvalidArgument
	}

	marker := GrantOrderKey(token)
	keys := append(recordKeys(userID), marker)

	var (
		result  domain.Record
		applied bool
	)
	err := r.store.Update(ctx, keys, func(current map[string]string) (map[string]string, error) {
		applied = false
		rec, err := decodeRecord(userID, current)
		if err != nil {
			return nil, err
		}
		result = rec
		if owner, seen := current[marker]; seen {
			if owner != userID {
				return nil, fmt.Errorf("%w: %s", domain.ErrOrderClaimed, token)
			}
			return nil, nil
		}

		next, changed, err := fn(rec)
		if err != nil {
			return nil, err
		}
		if !changed {
			return nil, nil
		}
		next.UserID = userID
		result = next
		applied = true

		writes := encodeRecord(next)
		writes[marker] = userID
		return writes, nil
	})
	if err != nil {
		return domain.Record{}, false, err
	}
	return result, applied, nil
}

var _ domain.RecordRepository = (*KVRecordRepository)(nil)
