package rest

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromeHttpMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	handler := PromeHttpMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/layout", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)

	assert.Equal(t, 1, testutil.CollectAndCount(m.ReqCount))
	assert.InDelta(t, 1.0, testutil.ToFloat64(
		m.ReqCount.WithLabelValues("/api/layout", http.MethodPost, "418")), 1e-9)
	assert.Equal(t, 1, testutil.CollectAndCount(m.Latency))
}

func TestNewMetricsRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	// histograms and counters only show up after first observation
	assert.Empty(t, mfs)

	// double registration must panic via MustRegister
	assert.Panics(t, func() { NewMetrics(reg) })
}
