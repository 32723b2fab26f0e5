package domain

import "errors"

var (
	// ErrInvalidArgument indicates caller misuse, such as an empty user id.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrCorruptRecord indicates a stored value that cannot be decoded.
	ErrCorruptRecord = errors.New("corrupt entitlement record")
)

// ErrPaymentNotPaid indicates a payment that has not settled.
var ErrPaymentNotPaid = errors.New("payment not paid")

// ErrOrderClaimed indicates an order code already granted to another user.
var ErrOrderClaimed = errors.New("order already granted to another user")
