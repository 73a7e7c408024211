package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCountIdentityAndGate(t *testing.T) {
	m := NewMetrics("test")

	m.RecordIdentityFetch("resolved")
	m.RecordIdentityFetch("resolved")
	m.RecordIdentityFetch("failed")
	m.RecordGateDecision("admin", "deny")
	m.RecordRequest("/api/me", "GET", 200, 5*time.Millisecond)
	m.RecordError("/api/me/refresh", "POST", "IDENTITY_REFRESH_FAILED")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.identityFetches.WithLabelValues("resolved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.identityFetches.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.gateDecisions.WithLabelValues("admin", "deny")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestCount.WithLabelValues("/api/me", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errorCount.WithLabelValues("/api/me/refresh", "POST", "IDENTITY_REFRESH_FAILED")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordIdentityFetch("resolved")
		m.RecordGateDecision("admin", "allow")
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.RecordError("/", "GET", "X")
	})
}
