// Package paymentapi calls the backend's package and payment endpoints.
package paymentapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/hirelane/hirelane/internal/billing/domain"
	"github.com/hirelane/hirelane/internal/gateway"
)

const (
	packagesPath      = "/api/payment/packages"
	subscriptionPath  = "/api/payment/my-subscription"
	createPaymentPath = "/api/payment/create-payment"
	paymentStatusPath = "/api/payment/payment-status"
)

// Doer executes gateway requests.
type Doer interface {
	Do(ctx context.Context, req gateway.Request, out any) error
}

// Client is the typed client for the payment endpoints.
type Client struct {
	gw Doer
}

func NewClient(gw Doer) *Client {
	return &Client{gw: gw}
}

// ListPackages returns the purchasable packages.
func (c *Client) ListPackages(ctx context.Context) ([]domain.Offering, error) {
	var offerings []domain.Offering
	if err := c.gw.Do(ctx, gateway.Request{Path: packagesPath, Auth: true}, &offerings); err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	return offerings, nil
}

// MySubscription returns the user's current subscription.
func (c *Client) MySubscription(ctx context.Context) (domain.Subscription, error) {
	var sub domain.Subscription
	if err := c.gw.Do(ctx, gateway.Request{Path: subscriptionPath, Auth: true}, &sub); err != nil {
		return domain.Subscription{}, fmt.Errorf("my subscription: %w", err)
	}
	return sub, nil
}

type createPaymentRequest struct {
	SubscriptionTypeID int `json:"subscriptionTypeId"`
}

// CreatePayment starts a checkout for the given package type.
func (c *Client) CreatePayment(ctx context.Context, subscriptionTypeID int) (domain.Payment, error) {
	if subscriptionTypeID <= 0 {
		return domain.Payment{}, fmt.Errorf("%w: subscription type id must be positive", domain.ErrInvalidArgument)
	}

	var payment domain.Payment
	if err := c.gw.Do(ctx, gateway.Request{
		Method: http.MethodPost,
		Path:   createPaymentPath,
		JSON:   createPaymentRequest{SubscriptionTypeID: subscriptionTypeID},
		Auth:   true,
	}, &payment); err != nil {
		return domain.Payment{}, fmt.Errorf("create payment: %w", err)
	}
	return payment, nil
}

// PaymentStatus returns the settlement state of an order.
func (c *Client) PaymentStatus(ctx context.Context, orderCode string) (domain.PaymentStatus, error) {
	code := strings.TrimSpace(orderCode)
	if code == "" {
		return domain.PaymentStatus{}, fmt.Errorf("%w: order code is required", domain.ErrInvalidArgument)
	}

	var status domain.PaymentStatus
	if err := c.gw.Do(ctx, gateway.Request{
		Path: paymentStatusPath + "/" + url.PathEscape(code),
		Auth: true,
	}, &status); err != nil {
		return domain.PaymentStatus{}, fmt.Errorf("payment status %s: %w", code, err)
	}
	if status.OrderCode == "" {
		status.OrderCode = domain.OrderCode(code)
	}
	status.Status = status.Status.Normalize()
	return status, nil
}
