package application

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hirelane/hirelane/internal/billing/domain"
	"github.com/hirelane/hirelane/pkg/observability"
)

// PaymentService is the remote side of a checkout.
type PaymentService interface {
	CreatePayment(ctx context.Context, subscriptionTypeID int) (domain.Payment, error)
	PaymentStatus(ctx context.Context, orderCode string) (domain.PaymentStatus, error)
}

// Checkout buys packages remotely and grants them locally once paid.
type Checkout struct {
	payments PaymentService
	ledger   *Ledger
	logger   *zap.Logger
}

// NewCheckout creates a checkout service.
func NewCheckout(payments PaymentService, ledger *Ledger, logger *zap.Logger) *Checkout {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checkout{payments: payments, ledger: ledger, logger: logger}
}

// Start creates a payment. The caller sends the user to its checkout URL
// and later calls Settle.
func (c *Checkout) Start(ctx context.Context, subscriptionTypeID int) (domain.Payment, error) {
	p, err := c.payments.CreatePayment(ctx, subscriptionTypeID)
	if err != nil {
		return domain.Payment{}, err
	}
	observability.LoggerWithContext(ctx, c.logger).Info("payment created",
		zap.String("order_code", string(p.OrderCode)),
		zap.Int("subscription_type_id", subscriptionTypeID),
	)
	return p, nil
}

// Settle grants the package of a paid order. The package named by the
// payment status wins; packageName is only used when the status names none,
// and a packageName that disagrees with the status is rejected. Settling an
// order twice grants once.
func (c *Checkout) Settle(ctx context.Context, userID, orderCode, packageName string) (GrantResult, error) {
	if err := validateUserID(userID); err != nil {
		return GrantResult{}, err
	}
	orderCode = strings.TrimSpace(orderCode)
	if orderCode == "" {
		return GrantResult{}, fmt.Errorf("%w: order code is required", domain.ErrInvalidArgument)
	}

	status, err := c.payments.PaymentStatus(ctx, orderCode)
	if err != nil {
		return GrantResult{}, err
	}
	if !status.Status.IsPaid() {
		return GrantResult{}, fmt.Errorf("%w: order %s is %s", domain.ErrPaymentNotPaid, orderCode, status.Status.Normalize())
	}

	requested := strings.TrimSpace(packageName)
	name := strings.TrimSpace(status.PackageName)
	switch {
	case name == "":
		name = requested
	case requested != "" && requested != name:
		return GrantResult{}, fmt.Errorf("%w: order %s was paid for %s, not %s", domain.ErrInvalidArgument, orderCode, name, requested)
	}
	if name == "" {
		return GrantResult{}, fmt.Errorf("%w: order %s names no package", domain.ErrInvalidArgument, orderCode)
	}

	return c.ledger.GrantForOrder(ctx, userID, name, orderCode)
}
