// Package gateway performs authenticated calls to the remote REST API and
// classifies their outcome into the client's error taxonomy.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/hirelane/hirelane/pkg/observability"
)

const maxResponseBytes = 8 << 20

// Config configures a Client.
type Config struct {
	// BaseURL is the API root, e.g. https://api.example.com.
	BaseURL string
	// Timeout bounds a whole call. Zero means no client timeout.
	Timeout time.Duration
	// UserAgent is sent with every request when set.
	UserAgent string
	// Transport overrides http.DefaultTransport.
	Transport http.RoundTripper

	// BreakerEnabled turns on the circuit breaker.
	BreakerEnabled bool
	// BreakerFailureThreshold is the number of consecutive network or 5xx
	// failures that open the breaker. Default: 5.
	BreakerFailureThreshold uint32
	// BreakerTimeout is how long the breaker stays open. Default: 30s.
	BreakerTimeout time.Duration

	// RatePerSecond limits outgoing requests. Zero disables limiting.
	RatePerSecond float64
	// RateBurst is the limiter burst. Default: 1.
	RateBurst int

	// TracerProvider overrides the global OpenTelemetry provider.
	TracerProvider trace.TracerProvider
}

// Request describes one API call. JSON and Form are mutually exclusive.
type Request struct {
	Method string
	// Path is appended to the base URL. Callers escape path parameters.
	Path  string
	Query url.Values
	JSON  any
	Form  *Form
	// Auth requires a stored bearer token.
	Auth bool
}

// exchange is a fully read HTTP response.
type exchange struct {
	status int
	body   []byte
}

// errServerFailure marks 5xx responses so the breaker counts them.
var errServerFailure = errors.New("server failure")

// Client sends requests to the remote API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
	agent   string
	breaker *gobreaker.CircuitBreaker[*exchange]
	limiter *rate.Limiter
	tracer  trace.Tracer
	logger  *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// NewClient creates a client. tokens may be nil if no request needs auth;
// logger and metrics may be nil.
func NewClient(cfg Config, tokens TokenStore, logger *zap.Logger, metrics *observability.Metrics) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: base URL %q", ErrInvalidRequest, cfg.BaseURL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	c := &Client{
		baseURL: base,
		http:    &http.Client{Timeout: cfg.Timeout, Transport: transport},
		tokens:  tokens,
		agent:   cfg.UserAgent,
		tracer:  observability.Tracer(cfg.TracerProvider),
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}

	if cfg.BreakerEnabled {
		c.breaker = newBreaker(cfg, logger)
	}
	if cfg.RatePerSecond > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}

	return c, nil
}

func newBreaker(cfg Config, logger *zap.Logger) *gobreaker.CircuitBreaker[*exchange] {
	threshold := cfg.BreakerFailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	timeout := cfg.BreakerTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return gobreaker.NewCircuitBreaker[*exchange](gobreaker.Settings{
		Name:        "remote-api",
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// Do sends req and decodes a successful JSON response into out, which may be
// nil. Failures are ErrUnauthenticated, *HTTPError, *NetworkError,
// ErrInvalidRequest or ErrDecodeResponse.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	if req.JSON != nil && req.Form != nil {
		return fmt.Errorf("%w: JSON and multipart bodies are exclusive", ErrInvalidRequest)
	}

	// Resolve the token first so a missing token never reaches the network.
	var token *oauth2.Token
	if req.Auth {
		if c.tokens == nil {
			return fmt.Errorf("%w: no token store configured", ErrUnauthenticated)
		}
		var err error
		token, err = (&storedTokenSource{ctx: ctx, store: c.tokens, now: c.now}).Token()
		if err != nil {
			c.metrics.ObserveRequest(method, string(OutcomeUnauthenticated), 0)
			return err
		}
	}

	httpReq, err := c.newHTTPRequest(ctx, method, req)
	if err != nil {
		return err
	}
	if token != nil {
		token.SetAuthHeader(httpReq)
	}

	ctx, span := c.tracer.Start(ctx, "gateway "+method+" "+req.Path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", req.Path),
			attribute.String("hirelane.request_id", httpReq.Header.Get("X-Request-ID")),
		),
	)
	defer span.End()
	httpReq = httpReq.WithContext(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	log := observability.LoggerWithContext(ctx, c.logger).With(
		zap.String("method", method),
		zap.String("path", req.Path),
		zap.String(observability.RequestIDKey, httpReq.Header.Get("X-Request-ID")),
	)

	start := c.now()
	ex, err := c.send(ctx, httpReq)
	elapsed := time.Since(start)

	if err != nil {
		netErr := &NetworkError{Method: method, Path: req.Path, Err: err}
		span.RecordError(netErr)
		span.SetStatus(codes.Error, "network error")
		c.metrics.ObserveRequest(method, string(OutcomeNetworkError), elapsed)
		log.Warn("request failed", zap.Error(err), zap.Int64(observability.DurationKey, elapsed.Milliseconds()))
		return netErr
	}

	span.SetAttributes(attribute.Int("http.response.status_code", ex.status))

	if ex.status < 200 || ex.status > 299 {
		httpErr := &HTTPError{Status: ex.status, Message: errorMessage(ex.status, ex.body)}
		span.SetStatus(codes.Error, httpErr.Error())
		c.metrics.ObserveRequest(method, string(OutcomeHTTPError), elapsed)
		log.Info("request rejected",
			zap.Int("status", ex.status),
			zap.String("message", httpErr.Message),
			zap.Int64(observability.DurationKey, elapsed.Milliseconds()),
		)
		return httpErr
	}

	c.metrics.ObserveRequest(method, string(OutcomeSuccess), elapsed)
	log.Debug("request completed", zap.Int("status", ex.status), zap.Int64(observability.DurationKey, elapsed.Milliseconds()))

	if out == nil || len(bytes.TrimSpace(ex.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(ex.body, out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrDecodeResponse, method, req.Path, err)
	}
	return nil
}

func (c *Client) newHTTPRequest(ctx context.Context, method string, req Request) (*http.Request, error) {
	target := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("%w: path %q: %v", ErrInvalidRequest, req.Path, err)
	}
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case req.JSON != nil:
		payload, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, fmt.Errorf("%w: encode JSON body: %v", ErrInvalidRequest, err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	case req.Form != nil:
		buf, ct, err := req.Form.encode()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		body = buf
		contentType = ct
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if c.agent != "" {
		httpReq.Header.Set("User-Agent", c.agent)
	}

	requestID := observability.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	httpReq.Header.Set("X-Request-ID", requestID)

	return httpReq, nil
}

// send performs the round trip, through the breaker when enabled, and reads
// the whole body.
func (c *Client) send(ctx context.Context, req *http.Request) (*exchange, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	roundTrip := func() (*exchange, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, fmt.Errorf("read response body: %w", err)
		}
		ex := &exchange{status: resp.StatusCode, body: body}
		if resp.StatusCode >= 500 {
			return ex, errServerFailure
		}
		return ex, nil
	}

	var (
		ex  *exchange
		err error
	)
	if c.breaker != nil {
		ex, err = c.breaker.Execute(roundTrip)
	} else {
		ex, err = roundTrip()
	}

	switch {
	case errors.Is(err, errServerFailure):
		return ex, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, ErrCircuitOpen
	case err != nil:
		return nil, err
	}
	return ex, nil
}

// errorMessage extracts a human-readable message from an error body,
// falling back to "HTTP <status>".
func errorMessage(status int, body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"message", "Message", "title", "error", "detail"} {
			if s, ok := payload[key].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return fmt.Sprintf("HTTP %d", status)
}

// Ping checks that the backend answers at all. Any HTTP response, including
// an error status, counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	err := c.Do(ctx, Request{Method: http.MethodHead, Path: "/"}, nil)
	if IsNetworkError(err) {
		return err
	}
	return nil
}
