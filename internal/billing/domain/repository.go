package domain

import "context"

// MutateFunc computes the next record from the current one. Returning
// changed=false leaves storage untouched.
type MutateFunc func(current Record) (next Record, changed bool, err error)

// RecordRepository persists entitlement records.
type RecordRepository interface {
	// Load returns the user's record, or ZeroRecord when nothing is stored.
	Load(ctx context.Context, userID string) (Record, error)

	// Mutate applies fn to the current record as one atomic step with respect
	// to every other Mutate for the same user, and returns the resulting record.
	Mutate(ctx context.Context, userID string, fn MutateFunc) (Record, error)

	// MutateOnce behaves like Mutate but runs fn at most once per token,
	// across all users. Later calls by the same user return the current record
	// and applied=false; calls by any other user fail with ErrOrderClaimed.
	MutateOnce(ctx context.Context, userID, token string, fn MutateFunc) (rec Record, applied bool, err error)
}
