package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledrent",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status code.",
		},
		[]string{"endpoint", "status"},
	)

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ledrent",
			Name:      "bookings_created_total",
			Help:      "Bookings successfully created.",
		},
	)

	bookingsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ledrent",
			Name:      "maintenance_expired_total",
			Help:      "Bookings transitioned to returned by maintenance passes.",
		},
	)

	loginFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ledrent",
			Name:      "login_failures_total",
			Help:      "Rejected login attempts.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingsCreated, bookingsExpired, loginFailures)
	})
}

// IncHTTP increments the request counter for an endpoint/status pair.
func IncHTTP(endpoint, status string) {
	httpRequests.WithLabelValues(endpoint, status).Inc()
}

// IncBookingCreated counts one created booking.
func IncBookingCreated() {
	bookingsCreated.Inc()
}

// AddExpired counts bookings expired by a maintenance pass.
func AddExpired(n int) {
	if n > 0 {
		bookingsExpired.Add(float64(n))
	}
}

// IncLoginFailure counts one rejected login.
func IncLoginFailure() {
	loginFailures.Inc()
}
