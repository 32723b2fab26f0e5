package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthenticated is returned before any network call when a request
	// needs a bearer token and none (or only an expired one) is stored.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInvalidRequest indicates a request that cannot be sent as built.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrCircuitOpen is wrapped in a NetworkError when the circuit breaker
	// refuses to send a request.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrDecodeResponse indicates a successful response whose body could not be decoded.
	ErrDecodeResponse = errors.New("decode response")
)

// HTTPError is returned when the server responds with a non-2xx status.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	prefix := fmt.Sprintf("HTTP %d", e.Status)
	if e.Message == "" || e.Message == prefix {
		return prefix
	}
	return prefix + ": " + e.Message
}

// NetworkError is returned when no HTTP response was obtained: DNS failure,
// refused connection, timeout, cancellation or an open circuit breaker.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status carried by err, if any.
func StatusCode(err error) (int, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status, true
	}
	return 0, false
}

// IsNetworkError reports whether err is a transport failure.
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// NeedsLogin reports whether the user has to obtain a fresh token: either no
// usable token was stored or the server rejected the one sent.
func NeedsLogin(err error) bool {
	if errors.Is(err, ErrUnauthenticated) {
		return true
	}
	status, ok := StatusCode(err)
	return ok && status == http.StatusUnauthorized
}
