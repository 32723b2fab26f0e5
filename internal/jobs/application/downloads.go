// Package application coordinates job features with the local entitlement ledger.
package application

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hirelane/hirelane/pkg/observability"
)

// ErrQuotaExhausted is returned when the user has no CV downloads left.
var ErrQuotaExhausted = errors.New("cv download quota exhausted")

// QuotaConsumer spends one unit of a user's download allowance.
type QuotaConsumer interface {
	Consume(ctx context.Context, userID string) (bool, error)
}

// FetchFunc performs the actual download once a unit has been reserved.
type FetchFunc func(ctx context.Context) error

// Downloads gates CV downloads on the user's allowance.
type Downloads struct {
	quota  QuotaConsumer
	logger *zap.Logger
}

// NewDownloads creates a download gate.
func NewDownloads(quota QuotaConsumer, logger *zap.Logger) *Downloads {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Downloads{quota: quota, logger: logger}
}

// DownloadCV spends one unit and then runs fetch, which may be nil. A unit
// spent on a failed fetch is not refunded.
func (d *Downloads) DownloadCV(ctx context.Context, userID string, fetch FetchFunc) error {
	ok, err := d.quota.Consume(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrQuotaExhausted
	}
	if fetch == nil {
		return nil
	}
	if err := fetch(ctx); err != nil {
		observability.LoggerWithContext(ctx, d.logger).Warn("cv download failed after quota was spent",
			zap.String(observability.UserIDKey, userID),
			zap.Error(err),
		)
		return fmt.Errorf("download cv: %w", err)
	}
	return nil
}
