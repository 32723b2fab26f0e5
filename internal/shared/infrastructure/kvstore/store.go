// Package kvstore persists small string values for the local client: the
// bearer token and the per-user entitlement counters.
package kvstore

import (
	"context"
	"errors"
	"fmt"
)

const (
	// KeyMaxLength is the maximum length of a storage key.
	KeyMaxLength = 256
	// ValueMaxSize is the maximum size of a stored value in bytes.
	ValueMaxSize = 64 * 1024
)

var (
	// ErrKeyTooLong is returned when a key exceeds KeyMaxLength.
	ErrKeyTooLong = errors.New("kvstore: key too long")
	// ErrValueTooBig is returned when a value exceeds ValueMaxSize.
	ErrValueTooBig = errors.New("kvstore: value too big")
	// ErrEmptyKey is returned for an empty key.
	ErrEmptyKey = errors.New("kvstore: empty key")
	// ErrUndeclaredKey is returned when an update writes a key it did not read.
	ErrUndeclaredKey = errors.New("kvstore: update wrote an undeclared key")
	// ErrConflict is returned when an optimistic update kept losing races.
	ErrConflict = errors.New("kvstore: too many concurrent updates")
)

// UpdateFunc receives the current values of the declared keys (absent keys
// are missing from the map) and returns the values to write. Returning no
// writes leaves the store untouched. The function may be invoked more than
// once and must not have side effects.
type UpdateFunc func(current map[string]string) (map[string]string, error)

// Store is a string key/value store with an atomic multi-key update.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Update reads keys, applies fn and writes its result as one atomic step
	// with respect to every other Update on overlapping keys.
	Update(ctx context.Context, keys []string, fn UpdateFunc) error
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases the backend.
	Close() error
}

func validateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if len(key) > KeyMaxLength {
		return fmt.Errorf("%w: %d bytes", ErrKeyTooLong, len(key))
	}
	return nil
}

func validateEntry(key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if len(value) > ValueMaxSize {
		return fmt.Errorf("%w: %s", ErrValueTooBig, key)
	}
	return nil
}

func validateKeys(keys []string) error {
	for _, key := range keys {
		if err := validateKey(key); err != nil {
			return err
		}
	}
	return nil
}

// checkWrites rejects writes outside the declared key set.
func checkWrites(keys []string, writes map[string]string) error {
	declared := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		declared[k] = struct{}{}
	}
	for k, v := range writes {
		if _, ok := declared[k]; !ok {
			return fmt.Errorf("%w: %s", ErrUndeclaredKey, k)
		}
		if err := validateEntry(k, v); err != nil {
			return err
		}
	}
	return nil
}
