package domain

import (
	"time"

	"github.com/google/uuid"
)

// Routing keys of ledger change events.
const (
	RoutingKeyQuotaGranted  = "billing.quota.granted"
	RoutingKeyQuotaConsumed = "billing.quota.consumed"
	RoutingKeyQuotaReset    = "billing.quota.reset"
)

// QuotaEvent records a committed change to a user's allowance.
type QuotaEvent struct {
	EventID       uuid.UUID `json:"event_id"`
	RoutingKey    string    `json:"routing_key"`
	UserID        string    `json:"user_id"`
	Package       string    `json:"package,omitempty"`
	OrderCode     string    `json:"order_code,omitempty"`
	MaxQuota      string    `json:"max_quota"`
	UsedCount     int       `json:"used_count"`
	Remaining     string    `json:"remaining"`
	OccurredAt    time.Time `json:"occurred_at"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// NewQuotaEvent describes snap after a change published under routingKey.
func NewQuotaEvent(routingKey string, snap Snapshot, occurredAt time.Time) QuotaEvent {
	return QuotaEvent{
		EventID:    uuid.New(),
		RoutingKey: routingKey,
		UserID:     snap.UserID,
		Package:    snap.LastPackageName,
		MaxQuota:   snap.MaxQuota.String(),
		UsedCount:  snap.UsedCount,
		Remaining:  snap.Remaining.String(),
		OccurredAt: occurredAt.UTC(),
	}
}
