package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Booking outcomes used as the "result" label.
const (
	BookingCreated   = "created"
	BookingConflict  = "conflict"
	BookingInvalid   = "invalid"
	BookingError     = "error"
	BookingCancelled = "cancelled"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	triageRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_requests_total",
			Help: "Triage requests by outcome path and department",
		},
		[]string{"path", "department"},
	)

	triageMatchedSymptoms = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "triage_matched_symptoms",
			Help:    "Number of vocabulary symptoms matched per triage request",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
		},
	)

	bookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appointment_bookings_total",
			Help: "Appointment booking attempts by result",
		},
		[]string{"result"},
	)

	storeOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Appointment store operation duration in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"driver", "operation"},
	)
)

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latencies keyed by the matched route
// template, so path parameters never become label values.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			httpRequestsInFlight.Inc()
			defer httpRequestsInFlight.Dec()

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			method := c.Request().Method
			httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
			httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// RecordTriage records a completed triage request.
func RecordTriage(path, department string, matched int) {
	triageRequests.WithLabelValues(path, department).Inc()
	triageMatchedSymptoms.Observe(float64(matched))
}

// RecordBooking records the result of a booking or cancellation.
func RecordBooking(result string) {
	bookingsTotal.WithLabelValues(result).Inc()
}

// ObserveStore records how long a store operation took.
func ObserveStore(driver, operation string, start time.Time) {
	storeOpDuration.WithLabelValues(driver, operation).Observe(time.Since(start).Seconds())
}
