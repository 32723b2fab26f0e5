package gateway

import (
	"context"
	"errors"
)

// Outcome is the terminal state of a call: Idle -> Sending -> one of these.
type Outcome string

const (
	OutcomeSuccess         Outcome = "success"
	OutcomeHTTPError       Outcome = "http_error"
	OutcomeNetworkError    Outcome = "network_error"
	OutcomeUnauthenticated Outcome = "unauthenticated"
	OutcomeInvalid         Outcome = "invalid"
)

// Result is the discriminated form of a call outcome.
type Result struct {
	Outcome Outcome
	// Status is set for OutcomeHTTPError.
	Status int
	// Message is the server message for OutcomeHTTPError.
	Message string
	Err     error
}

// OK reports whether the call succeeded.
func (r Result) OK() bool { return r.Outcome == OutcomeSuccess }

// Execute is Do returning a Result instead of an error.
func (c *Client) Execute(ctx context.Context, req Request, out any) Result {
	return Classify(c.Do(ctx, req, out))
}

// Classify maps an error returned by Do to its outcome.
func Classify(err error) Result {
	if err == nil {
		return Result{Outcome: OutcomeSuccess}
	}

	var httpErr *HTTPError
	var netErr *NetworkError
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return Result{Outcome: OutcomeUnauthenticated, Err: err}
	case errors.As(err, &httpErr):
		return Result{Outcome: OutcomeHTTPError, Status: httpErr.Status, Message: httpErr.Message, Err: err}
	case errors.As(err, &netErr):
		return Result{Outcome: OutcomeNetworkError, Err: err}
	default:
		return Result{Outcome: OutcomeInvalid, Err: err}
	}
}
