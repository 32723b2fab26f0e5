// Package events consumes ledger change events.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/hirelane/hirelane/internal/billing/domain"
	"github.com/hirelane/hirelane/internal/shared/infrastructure/eventbus"
	"github.com/hirelane/hirelane/pkg/observability"
)

// NewAuditHandler returns a handler that writes every quota event to logger.
func NewAuditHandler(logger *zap.Logger) eventbus.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(_ context.Context, routingKey string, payload []byte) error {
		var e domain.QuotaEvent
		if err := json.Unmarshal(payload, &e); err != nil {
			return fmt.Errorf("decode %s event: %w", routingKey, err)
		}

		fields := []zap.Field{
			zap.String("routing_key", routingKey),
			zap.String("event_id", e.EventID.String()),
			zap.String(observability.UserIDKey, e.UserID),
			zap.String("max_quota", e.MaxQuota),
			zap.Int("used", e.UsedCount),
			zap.String("remaining", e.Remaining),
		}
		if e.Package != "" {
			fields = append(fields, zap.String("package", e.Package))
		}
		if e.OrderCode != "" {
			fields = append(fields, zap.String("order_code", e.OrderCode))
		}
		if e.CorrelationID != "" {
			fields = append(fields, zap.String(observability.CorrelationIDKey, e.CorrelationID))
		}
		logger.Info("ledger event", fields...)
		return nil
	}
}
