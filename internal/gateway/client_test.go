package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zaptest"

	"github.com/hirelane/hirelane/internal/shared/infrastructure/kvstore"
	"github.com/hirelane/hirelane/pkg/observability"
)

// countingTransport counts round trips and delegates to next.
type countingTransport struct {
	calls atomic.Int32
	next  http.RoundTripper
}

func (t *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.calls.Add(1)
	if t.next == nil {
		return nil, errors.New("unexpected round trip")
	}
	return t.next.RoundTrip(req)
}

func newTokenStore(t *testing.T, token string) *KVTokenStore {
	t.Helper()
	store := NewKVTokenStore(kvstore.NewMemoryStore())
	if token != "" {
		require.NoError(t, store.SetToken(context.Background(), token))
	}
	return store
}

func newTestClient(t *testing.T, cfg Config, tokens TokenStore) *Client {
	t.Helper()
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://api.invalid"
	}
	c, err := NewClient(cfg, tokens, zaptest.NewLogger(t), observability.NewMetrics())
	require.NoError(t, err)
	return c
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func TestDo_NoTokenNeverReachesNetwork(t *testing.T) {
	transport := &countingTransport{}
	c := newTestClient(t, Config{Transport: transport}, newTokenStore(t, ""))

	err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/api/payment/my-subscription", Auth: true}, nil)

	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.True(t, NeedsLogin(err))
	assert.Equal(t, int32(0), transport.calls.Load())
}

func TestDo_ExpiredJWTNeverReachesNetwork(t *testing.T) {
	transport := &countingTransport{}
	tokens := newTokenStore(t, signedToken(t, time.Now().Add(-time.Hour)))
	c := newTestClient(t, Config{Transport: transport}, tokens)

	err := c.Do(context.Background(), Request{Path: "/api/application/my-try-match-history", Auth: true}, nil)

	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, int32(0), transport.calls.Load())
}

func TestDo_NoTokenStore(t *testing.T) {
	c := newTestClient(t, Config{Transport: &countingTransport{}}, nil)

	err := c.Do(context.Background(), Request{Path: "/x", Auth: true}, nil)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestDo_SendsBearerAndDecodesJSON(t *testing.T) {
	token := signedToken(t, time.Now().Add(time.Hour))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+token, r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.Equal(t, "/api/payment/packages", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id": 2, "name": "Basic"}]`))
	}))
	defer server.Close()

	c := newTestClient(t, Config{BaseURL: server.URL}, newTokenStore(t, token))

	var out []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, c.Do(context.Background(), Request{Path: "/api/payment/packages", Auth: true}, &out))
	require.Len(t, out, 1)
	assert.Equal(t, "Basic", out[0].Name)
}

func TestDo_OpaqueTokenIsSent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer opaque-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := newTestClient(t, Config{BaseURL: server.URL}, newTokenStore(t, "opaque-token"))
	assert.NoError(t, c.Do(context.Background(), Request{Path: "/ping", Auth: true}, &struct{}{}))
}

func TestDo_UnauthenticatedRequestHasNoAuthorization(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
	}))
	defer server.Close()

	c := newTestClient(t, Config{BaseURL: server.URL}, newTokenStore(t, "stored"))
	assert.NoError(t, c.Do(context.Background(), Request{Path: "/public"}, nil))
}

func TestDo_JSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]int
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 3, body["subscriptionTypeId"])

		_, _ = w.Write([]byte(`{"orderCode": 123}`))
	}))
	defer server.Close()

	c := newTestClient(t, Config{BaseURL: server.URL}, newTokenStore(t, "tok"))

	var out map[string]any
	err := c.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/api/payment/create-payment",
		JSON:   map[string]int{"subscriptionTypeId": 3},
		Auth:   true,
	}, &out)
	require.NoError(t, err)
	assert.EqualValues(t, 123, out["orderCode"])
}

func TestDo_MultipartBoundaryMatchesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data; boundary="))
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "42", r.FormValue("JobId"))
		assert.Equal(t, "Dear team", r.FormValue("CoverLetter"))

		file, header, err := r.FormFile("CvFile")
		require.NoError(t, err)
		defer file.Close()
		content, _ := io.ReadAll(file)
		assert.Equal(t, "resume.pdf", header.Filename)
		assert.Equal(t, "application/pdf", header.Header.Get("Content-Type"))
		assert.Equal(t, "%PDF-1.7 fake", string(content))

		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	c := newTestClient(t, Config{BaseURL: server.URL}, newTokenStore(t, "tok"))

	form := NewForm().
		AddFile("CvFile", "/home/me/resume.pdf", strings.NewReader("%PDF-1.7 fake")).
		AddField("CoverLetter", "Dear team").
		AddField("JobId", "42")

	err := c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/api/Application/apply", Form: form, Auth: true}, nil)
	assert.NoError(t, err)
}

func TestDo_HTTPError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{name: "message field", status: http.StatusBadRequest, body: `{"message":"Job is closed"}`, message: "Job is closed"},
		{name: "problem details title", status: http.StatusNotFound, body: `{"title":"Not Found","status":404}`, message: "Not Found"},
		{name: "no JSON body", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, message: "HTTP 502"},
		{name: "empty message", status: http.StatusForbidden, body: `{"message":""}`, message: "HTTP 403"},
		{name: "unauthorized", status: http.StatusUnauthorized, body: ``, message: "HTTP 401"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := newTestClient(t, Config{BaseURL: server.URL}, newTokenStore(t, "tok"))
			err := c.Do(context.Background(), Request{Path: "/x", Auth: true}, nil)

			var httpErr *HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, tt.status, httpErr.Status)
			assert.Equal(t, tt.message, httpErr.Message)
			assert.Equal(t, 1, strings.Count(httpErr.Error(), "HTTP "))
			assert.False(t, IsNetworkError(err))

			status, ok := StatusCode(err)
			assert.True(t, ok)
			assert.Equal(t, tt.status, status)
		})
	}
}

func TestHTTPError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *HTTPError
		want string
	}{
		{name: "with message", err: &HTTPError{Status: 404, Message: "Job not found"}, want: "HTTP 404: Job not found"},
		{name: "fallback message", err: &HTTPError{Status: 500, Message: "HTTP 500"}, want: "HTTP 500"},
		{name: "empty message", err: &HTTPError{Status: 503}, want: "HTTP 503"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestDo_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := server.URL
	server.Close()

	c := newTestClient(t, Config{BaseURL: base}, newTokenStore(t, "tok"))
	err := c.Do(context.Background(), Request{Path: "/x", Auth: true}, nil)

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, "/x", netErr.Path)
	_, isHTTP := StatusCode(err)
	assert.False(t, isHTTP)
}

func TestDo_Cancellation(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	c := newTestClient(t, Config{BaseURL: server.URL}, newTokenStore(t, "tok"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := c.Do(ctx, Request{Path: "/slow", Auth: true}, nil)
	assert.True(t, IsNetworkError(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDo_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	c := newTestClient(t, Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond}, nil)
	err := c.Do(context.Background(), Request{Path: "/slow"}, nil)
	assert.True(t, IsNetworkError(err))
}

func TestDo_RejectsJSONAndForm(t *testing.T) {
	transport := &countingTransport{}
	c := newTestClient(t, Config{Transport: transport}, newTokenStore(t, "tok"))

	err := c.Do(context.Background(), Request{Path: "/x", JSON: map[string]string{}, Form: NewForm(), Auth: true}, nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Equal(t, int32(0), transport.calls.Load())
}

func TestDo_DecodeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	c := newTestClient(t, Config{BaseURL: server.URL}, nil)
	var out map[string]any
	err := c.Do(context.Background(), Request{Path: "/x"}, &out)
	assert.ErrorIs(t, err, ErrDecodeResponse)
}

func TestDo_QueryAndRequestID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "req-123", r.Header.Get("X-Request-ID"))
		assert.Equal(t, "hirelane-test", r.Header.Get("User-Agent"))
	}))
	defer server.Close()

	c := newTestClient(t, Config{BaseURL: server.URL + "/", UserAgent: "hirelane-test"}, nil)
	ctx := observability.WithRequestID(context.Background(), "req-123")
	assert.NoError(t, c.Do(ctx, Request{Path: "items", Query: url.Values{"page": {"2"}}}, nil))
}

func TestDo_CircuitBreaker(t *testing.T) {
	var hits atomic.Int32
	status := atomic.Int32{}
	status.Store(http.StatusInternalServerError)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(int(status.Load()))
	}))
	defer server.Close()

	c := newTestClient(t, Config{
		BaseURL:                 server.URL,
		BreakerEnabled:          true,
		BreakerFailureThreshold: 2,
		BreakerTimeout:          time.Minute,
	}, nil)

	for i := 0; i < 2; i++ {
		err := c.Do(context.Background(), Request{Path: "/x"}, nil)
		code, ok := StatusCode(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusInternalServerError, code)
	}

	err := c.Do(context.Background(), Request{Path: "/x"}, nil)
	assert.True(t, IsNetworkError(err))
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), hits.Load())
}

func TestDo_ClientErrorsDoNotTripBreaker(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := newTestClient(t, Config{BaseURL: server.URL, BreakerEnabled: true, BreakerFailureThreshold: 1}, nil)

	for i := 0; i < 3; i++ {
		_, ok := StatusCode(c.Do(context.Background(), Request{Path: "/missing"}, nil))
		assert.True(t, ok)
	}
	assert.Equal(t, int32(3), hits.Load())
}

func TestDo_RateLimiterHonoursCancellation(t *testing.T) {
	transport := &countingTransport{}
	c := newTestClient(t, Config{Transport: transport, RatePerSecond: 1, RateBurst: 1}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Do(ctx, Request{Path: "/x"}, nil)
	assert.True(t, IsNetworkError(err))
	assert.Equal(t, int32(0), transport.calls.Load())
}

func TestDo_RecordsSpan(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer server.Close()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	c := newTestClient(t, Config{BaseURL: server.URL, TracerProvider: tp}, nil)
	_ = c.Do(context.Background(), Request{Path: "/api/application/try-match/7"}, nil)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "gateway GET /api/application/try-match/7", spans[0].Name())
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "not a url"}, nil, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, OutcomeSuccess, Classify(nil).Outcome)
	assert.True(t, Classify(nil).OK())
	assert.Equal(t, OutcomeUnauthenticated, Classify(ErrUnauthenticated).Outcome)

	r := Classify(&HTTPError{Status: 409, Message: "Already applied"})
	assert.Equal(t, OutcomeHTTPError, r.Outcome)
	assert.Equal(t, 409, r.Status)
	assert.Equal(t, "Already applied", r.Message)

	assert.Equal(t, OutcomeNetworkError, Classify(&NetworkError{Err: errors.New("refused")}).Outcome)
	assert.Equal(t, OutcomeInvalid, Classify(ErrInvalidRequest).Outcome)
}

func TestExecute(t *testing.T) {
	transport := &countingTransport{}
	c := newTestClient(t, Config{Transport: transport}, newTokenStore(t, ""))

	r := c.Execute(context.Background(), Request{Path: "/x", Auth: true}, nil)
	assert.Equal(t, OutcomeUnauthenticated, r.Outcome)
	assert.False(t, r.OK())
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.WriteHeader(http.StatusNotFound)
	}))
	c := newTestClient(t, Config{BaseURL: server.URL}, nil)
	assert.NoError(t, c.Ping(context.Background()))

	server.Close()
	assert.True(t, IsNetworkError(c.Ping(context.Background())))
}
