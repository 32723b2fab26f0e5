package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Offering is a package as listed by the payment API.
type Offering struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Description  string  `json:"description,omitempty"`
	DurationDays int     `json:"durationDays,omitempty"`
}

// Subscription is the user's current plan as reported by the payment API.
type Subscription struct {
	PackageName string     `json:"packageName"`
	Status      string     `json:"status"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
}

// OrderCode identifies a payment. The API sends it as a number or a string.
type OrderCode string

// UnmarshalJSON accepts both numeric and string order codes.
func (c *OrderCode) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = OrderCode(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("order code: %w", err)
	}
	*c = OrderCode(n.String())
	return nil
}

// Payment is a created payment awaiting checkout.
type Payment struct {
	OrderCode   OrderCode `json:"orderCode"`
	CheckoutURL string    `json:"checkoutUrl"`
	Amount      float64   `json:"amount,omitempty"`
}

// PaymentState is the settlement state of a payment.
type PaymentState string

const (
	PaymentPending   PaymentState = "PENDING"
	PaymentPaid      PaymentState = "PAID"
	PaymentCancelled PaymentState = "CANCELLED"
	PaymentExpired   PaymentState = "EXPIRED"
)

// Normalize upper-cases the state so comparisons ignore the API's casing.
func (s PaymentState) Normalize() PaymentState {
	return PaymentState(strings.ToUpper(strings.TrimSpace(string(s))))
}

// IsPaid reports whether the payment settled.
func (s PaymentState) IsPaid() bool {
	return s.Normalize() == PaymentPaid
}

// IsFinal reports whether the state can no longer change.
func (s PaymentState) IsFinal() bool {
	switch s.Normalize() {
	case PaymentPaid, PaymentCancelled, PaymentExpired:
		return true
	default:
		return false
	}
}

// PaymentStatus is the status of a payment as reported by the API.
type PaymentStatus struct {
	OrderCode   OrderCode    `json:"orderCode"`
	Status      PaymentState `json:"status"`
	PackageName string       `json:"packageName,omitempty"`
}
