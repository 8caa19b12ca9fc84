package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests served.",
		},
		[]string{"route", "method", "status"},
	)
	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
)

func observeRequest(r *http.Request, status int, dur time.Duration) {
	route := routeLabel(r.URL.Path)
	httpRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
	httpRequestDurationSeconds.WithLabelValues(route, r.Method).Observe(dur.Seconds())
}

// routeLabel collapses paths with ids so metric cardinality stays bounded.
func routeLabel(path string) string {
	switch {
	case path == "/healthz":
		return "healthz"
	case path == "/metrics":
		return "metrics"
	case path == "/api/test-db":
		return "api_test_db"
	case path == "/api/schema":
		return "api_schema"
	case path == "/api/profiles":
		return "api_profiles"
	case strings.HasSuffix(path, "/initial-reading"):
		return "api_profile_initial_reading"
	case strings.HasPrefix(path, "/api/profiles/"):
		return "api_profile"
	case path == "/api/readings":
		return "api_readings"
	case strings.HasPrefix(path, "/api/readings/"):
		return "api_reading"
	default:
		return "other"
	}
}
