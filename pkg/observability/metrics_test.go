package observability

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveRequest(t *testing.T) {
	m := NewMetrics()

	m.ObserveRequest("GET", "success", 20*time.Millisecond)
	m.ObserveRequest("GET", "success", 30*time.Millisecond)
	m.ObserveRequest("POST", "http_error", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.gatewayRequests.WithLabelValues("GET", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.gatewayRequests.WithLabelValues("POST", "http_error")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.gatewayDuration))
}

func TestMetrics_ObserveLedger(t *testing.T) {
	m := NewMetrics()

	m.ObserveLedger("consume", "granted")
	m.ObserveLedger("consume", "exhausted")
	m.ObserveLedger("consume", "granted")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ledgerOps.WithLabelValues("consume", "granted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ledgerOps.WithLabelValues("consume", "exhausted")))
}

func TestMetrics_WriteText(t *testing.T) {
	m := NewMetrics()
	m.ObserveLedger("grant", "granted")

	var sb strings.Builder
	require.NoError(t, m.WriteText(&sb))

	assert.Contains(t, sb.String(), "hirelane_ledger_operations_total")
	assert.Contains(t, sb.String(), `operation="grant"`)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	m.ObserveRequest("GET", "success", time.Second)
	m.ObserveLedger("consume", "granted")
	assert.Nil(t, m.Registry())
	assert.NoError(t, m.WriteText(&strings.Builder{}))
}

func TestHealthRegistry(t *testing.T) {
	r := NewHealthRegistry()
	r.Register("store", PingHealthChecker("store", HealthStatusUnhealthy, func(context.Context) error { return nil }))
	r.Register("cache", PingHealthChecker("cache", HealthStatusDegraded, func(context.Context) error {
		return errors.New("connection refused")
	}))

	results := r.Check(context.Background())
	require.Len(t, results, 2)

	assert.Equal(t, "cache", results[0].Name)
	assert.Equal(t, HealthStatusDegraded, results[0].Status)
	assert.Contains(t, results[0].Message, "connection refused")
	assert.Equal(t, "store", results[1].Name)
	assert.Equal(t, HealthStatusHealthy, results[1].Status)

	assert.Equal(t, HealthStatusDegraded, OverallStatus(results))
}

func TestOverallStatus(t *testing.T) {
	assert.Equal(t, HealthStatusHealthy, OverallStatus(nil))
	assert.Equal(t, HealthStatusUnhealthy, OverallStatus([]HealthCheckResult{
		{Status: HealthStatusDegraded},
		{Status: HealthStatusUnhealthy},
	}))
}
