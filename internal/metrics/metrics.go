// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP holds the request collectors.
type HTTP struct {
	totalRequests   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	responseSize    *prometheus.HistogramVec
}

// NewHTTP registers the request collectors with reg.
func NewHTTP(reg prometheus.Registerer) *HTTP {
	f := promauto.With(reg)
	labels := []string{"method", "path", "status"}
	return &HTTP{
		totalRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, labels),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		}, labels),
		responseSize: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "Size of HTTP responses in bytes.",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8),
		}, labels),
	}
}

func (m *HTTP) Observe(method, path, status string, d time.Duration, size int) {
	m.totalRequests.WithLabelValues(method, path, status).Inc()
	m.requestDuration.WithLabelValues(method, path, status).Observe(d.Seconds())
	m.responseSize.WithLabelValues(method, path, status).Observe(float64(size))
}

// App holds the application event counters.
type App struct {
	LoginAttempts      *prometheus.CounterVec
	ResetCodes         *prometheus.CounterVec
	ContactSubmissions prometheus.Counter
	ContentChanges     *prometheus.CounterVec
}

func NewApp(reg prometheus.Registerer) *App {
	f := promauto.With(reg)
	return &App{
		LoginAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "labsite_login_attempts_total",
			Help: "Dashboard login attempts.",
		}, []string{"status"}), // success or failed
		ResetCodes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "labsite_reset_codes_total",
			Help: "Password reset codes by outcome.",
		}, []string{"result"}), // sent, rejected, send_failed, verified, invalid, expired
		ContactSubmissions: f.NewCounter(prometheus.CounterOpts{
			Name: "labsite_contact_submissions_total",
			Help: "Contact form submissions stored.",
		}),
		ContentChanges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "labsite_content_changes_total",
			Help: "Dashboard content mutations.",
		}, []string{"entity", "action"}),
	}
}

// Handler serves the collectors gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
