package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var serviceName = "socialx-api"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"service", "method", "path", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)

	// OTPIssuedTotal counts issued codes by delivery result ("sent" or "failed").
	OTPIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "otp_issued_total",
			Help: "Verification codes issued, by delivery result.",
		},
		[]string{"delivery"},
	)

	// OTPConfirmTotal counts confirmation attempts by outcome
	// ("ok", "not_found", "expired", "error").
	OTPConfirmTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "otp_confirm_total",
			Help: "Verification code confirmations, by outcome.",
		},
		[]string{"outcome"},
	)
)

// MustRegister registers every collector on the default registry and labels
// HTTP series with name. Call once at startup.
func MustRegister(name string) {
	serviceName = name
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		OTPIssuedTotal,
		OTPConfirmTotal,
	)
}

// ObserveHTTP records one finished request.
func ObserveHTTP(method, path string, status int, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(serviceName, method, path, strconv.Itoa(status)).Inc()
	HTTPRequestDurationSeconds.WithLabelValues(serviceName, method, path).Observe(d.Seconds())
}
