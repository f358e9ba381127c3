// Package metrics exposes Prometheus instrumentation for the booking API.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	HTTPRequests        *prometheus.CounterVec
	HTTPDuration        *prometheus.HistogramVec
	BookingsCreated     prometheus.Counter
	BookingConflicts    prometheus.Counter
	BookingsDeleted     prometheus.Counter
	AvailabilityQueries prometheus.Counter
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "room_booking_http_requests_total",
			Help: "Total number of HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),

		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "room_booking_http_request_duration_seconds",
			Help:    "Duration of HTTP request handling",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),

		BookingsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "room_booking_bookings_created_total",
			Help: "Total number of bookings created",
		}),

		BookingConflicts: f.NewCounter(prometheus.CounterOpts{
			Name: "room_booking_conflicts_total",
			Help: "Total number of booking requests rejected for overlapping an existing booking",
		}),

		BookingsDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "room_booking_bookings_deleted_total",
			Help: "Total number of bookings deleted",
		}),

		AvailabilityQueries: f.NewCounter(prometheus.CounterOpts{
			Name: "room_booking_availability_queries_total",
			Help: "Total number of availability searches",
		}),
	}
}

func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func (m *Metrics) BookingCreated() {
	if m != nil {
		m.BookingsCreated.Inc()
	}
}

func (m *Metrics) BookingConflict() {
	if m != nil {
		m.BookingConflicts.Inc()
	}
}

func (m *Metrics) BookingDeleted() {
	if m != nil {
		m.BookingsDeleted.Inc()
	}
}

func (m *Metrics) AvailabilityQuery() {
	if m != nil {
		m.AvailabilityQueries.Inc()
	}
}
