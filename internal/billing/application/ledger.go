package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hirelane/hirelane/internal/billing/domain"
	"github.com/hirelane/hirelane/pkg/observability"
)

// GrantResult describes the outcome of a grant.
type GrantResult struct {
	Snapshot domain.Snapshot
	// Granted is false when the package is unknown or the order was already granted.
	Granted bool
	// Duplicate is true when the order code had been granted before.
	Duplicate bool
}

// EventPublisher receives ledger change events.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
}

// Ledger tracks per-user CV download allowances.
type Ledger struct {
	records   domain.RecordRepository
	logger    *zap.Logger
	metrics   *observability.Metrics
	publisher EventPublisher
	now       func() time.Time
}

// NewLedger creates a ledger. logger and metrics may be nil.
func NewLedger(records domain.RecordRepository, logger *zap.Logger, metrics *observability.Metrics) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{records: records, logger: logger, metrics: metrics, now: time.Now}
}

// WithPublisher publishes an event after every committed change.
func (l *Ledger) WithPublisher(p EventPublisher) *Ledger {
	l.publisher = p
	return l
}

// publish emits an event for a committed change. Failures are logged only;
// the record is already stored.
func (l *Ledger) publish(ctx context.Context, routingKey string, snap domain.Snapshot, orderCode string) {
	if l.publisher == nil {
		return
	}
	event := domain.NewQuotaEvent(routingKey, snap, l.now())
	event.OrderCode = orderCode
	event.CorrelationID = observability.CorrelationIDFromContext(ctx)

	log := observability.LoggerWithContext(ctx, l.logger)
	payload, err := json.Marshal(event)
	if err != nil {
		log.Error("failed to encode ledger event", zap.String("routing_key", routingKey), zap.Error(err))
		return
	}
	if err := l.publisher.Publish(ctx, routingKey, payload); err != nil {
		log.Warn("failed to publish ledger event", zap.String("routing_key", routingKey), zap.Error(err))
	}
}

func validateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user id is required", domain.ErrInvalidArgument)
	}
	return nil
}

// GetQuota returns the user's current allowance. Users with nothing stored
// get the zero record.
func (l *Ledger) GetQuota(ctx context.Context, userID string) (domain.Snapshot, error) {
	if err := validateUserID(userID); err != nil {
		return domain.Snapshot{}, err
	}
	rec, err := l.records.Load(ctx, userID)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load quota for %s: %w", userID, err)
	}
	return rec.Snapshot(), nil
}

// Grant adds the package allowance to the user's maximum. Unknown package
// names are a no-op. Grant keeps no record of prior calls: calling it twice
// grants twice.
func (l *Ledger) Grant(ctx context.Context, userID, packageName string) (GrantResult, error) {
	if err := validateUserID(userID); err != nil {
		return GrantResult{}, err
	}

	pkg, known := domain.LookupPackage(packageName)
	rec, err := l.records.Mutate(ctx, userID, func(current domain.Record) (domain.Record, bool, error) {
		if !known {
			return current, false, nil
		}
		return current.Grant(pkg), true, nil
	})
	if err != nil {
		l.metrics.ObserveLedger("grant", "error")
		return GrantResult{}, fmt.Errorf("grant %s to %s: %w", packageName, userID, err)
	}

	log := observability.LoggerWithContext(ctx, l.logger)
	if !known {
		l.metrics.ObserveLedger("grant", "unknown_package")
		log.Warn("ignoring grant of unknown package",
			zap.String(observability.UserIDKey, userID),
			zap.String("package", packageName),
		)
		return GrantResult{Snapshot: rec.Snapshot()}, nil
	}

	l.metrics.ObserveLedger("grant", "granted")
	log.Info("quota granted",
		zap.String(observability.UserIDKey, userID),
		zap.String("package", pkg.Name),
		zap.Stringer("max_quota", rec.MaxQuota),
	)
	l.publish(ctx, domain.RoutingKeyQuotaGranted, rec.Snapshot(), "")
	return GrantResult{Snapshot: rec.Snapshot(), Granted: true}, nil
}

// GrantForOrder grants like Grant but at most once per payment order code.
func (l *Ledger) GrantForOrder(ctx context.Context, userID, packageName, orderCode string) (GrantResult, error) {
	if err := validateUserID(userID); err != nil {
		return GrantResult{}, err
	}
	orderCode = strings.TrimSpace(orderCode)
	if orderCode == "" {
		return GrantResult{}, fmt.Errorf("%w: order code is required", domain.ErrInvalidArgument)
	}

	pkg, known := domain.LookupPackage(packageName)
	if !known {
		l.metrics.ObserveLedger("grant", "unknown_package")
		snap, err := l.GetQuota(ctx, userID)
		return GrantResult{Snapshot: snap}, err
	}

	rec, applied, err := l.records.MutateOnce(ctx, userID, orderCode, func(current domain.Record) (domain.Record, bool, error) {
		return current.Grant(pkg), true, nil
	})
	if err != nil {
		outcome := "error"
		if errors.Is(err, domain.ErrOrderClaimed) {
			outcome = "claimed"
		}
		l.metrics.ObserveLedger("grant", outcome)
		return GrantResult{}, fmt.Errorf("grant order %s to %s: %w", orderCode, userID, err)
	}

	log := observability.LoggerWithContext(ctx, l.logger).With(
		zap.String(observability.UserIDKey, userID),
		zap.String("package", pkg.Name),
		zap.String("order_code", orderCode),
	)
	if !applied {
		l.metrics.ObserveLedger("grant", "duplicate")
		log.Info("order already granted")
		return GrantResult{Snapshot: rec.Snapshot(), Duplicate: true}, nil
	}

	l.metrics.ObserveLedger("grant", "granted")
	log.Info("quota granted", zap.Stringer("max_quota", rec.MaxQuota))
	l.publish(ctx, domain.RoutingKeyQuotaGranted, rec.Snapshot(), orderCode)
	return GrantResult{Snapshot: rec.Snapshot(), Granted: true}, nil
}

// Consume records one download if the allowance permits it. It returns false,
// leaving the record untouched, when the allowance is exhausted.
func (l *Ledger) Consume(ctx context.Context, userID string) (bool, error) {
	if err := validateUserID(userID); err != nil {
		return false, err
	}

	var allowed bool
	rec, err := l.records.Mutate(ctx, userID, func(current domain.Record) (domain.Record, bool, error) {
		var next domain.Record
		next, allowed = current.Consume()
		return next, allowed, nil
	})
	if err != nil {
		l.metrics.ObserveLedger("consume", "error")
		return false, fmt.Errorf("consume quota for %s: %w", userID, err)
	}

	log := observability.LoggerWithContext(ctx, l.logger)
	if !allowed {
		l.metrics.ObserveLedger("consume", "exhausted")
		log.Debug("quota exhausted",
			zap.String(observability.UserIDKey, userID),
			zap.Int("used", rec.UsedCount),
		)
		return false, nil
	}

	l.metrics.ObserveLedger("consume", "allowed")
	log.Debug("quota consumed",
		zap.String(observability.UserIDKey, userID),
		zap.Int("used", rec.UsedCount),
		zap.Stringer("remaining", rec.Remaining()),
	)
	l.publish(ctx, domain.RoutingKeyQuotaConsumed, rec.Snapshot(), "")
	return true, nil
}

// ResetQuota restores the free baseline: one download, none used.
func (l *Ledger) ResetQuota(ctx context.Context, userID string) (domain.Snapshot, error) {
	if err := validateUserID(userID); err != nil {
		return domain.Snapshot{}, err
	}

	rec, err := l.records.Mutate(ctx, userID, func(domain.Record) (domain.Record, bool, error) {
		return domain.BaselineRecord(userID), true, nil
	})
	if err != nil {
		l.metrics.ObserveLedger("reset", "error")
		return domain.Snapshot{}, fmt.Errorf("reset quota for %s: %w", userID, err)
	}

	l.metrics.ObserveLedger("reset", "reset")
	observability.LoggerWithContext(ctx, l.logger).Info("quota reset", zap.String(observability.UserIDKey, userID))
	l.publish(ctx, domain.RoutingKeyQuotaReset, rec.Snapshot(), "")
	return rec.Snapshot(), nil
}
