package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	ReqCount *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ReqCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "magga",
			Name:      "http_requests_total",
			Help:      "number of http requests by path, method and status",
		}, []string{"path", "method", "status"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "magga",
			Name:      "http_request_duration_seconds",
			Help:      "http request latency by path and method",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "method"}),
	}
	reg.MustRegister(m.ReqCount, m.Latency)
	return m
}

// PromeHttpMiddleware records request counts and latencies for every route.
func PromeHttpMiddleware(m *Metrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			m.ReqCount.WithLabelValues(r.URL.Path, r.Method, strconv.Itoa(ww.Status())).Inc()
			m.Latency.WithLabelValues(r.URL.Path, r.Method).Observe(time.Since(start).Seconds())
		})
	}
}
