package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hospital_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hospital_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	appointmentsBookedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hospital_appointments_booked_total",
			Help: "Appointments created, by initial status",
		},
		[]string{"status"},
	)

	appointmentsCancelledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hospital_appointments_cancelled_total",
			Help: "Appointments cancelled by their patient",
		},
	)

	labTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hospital_lab_request_transitions_total",
			Help: "Lab requests entering each workflow status",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		appointmentsBookedTotal,
		appointmentsCancelledTotal,
		labTransitionsTotal,
	)
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func AppointmentBooked(status string) {
	appointmentsBookedTotal.WithLabelValues(status).Inc()
}

func AppointmentCancelled() {
	appointmentsCancelledTotal.Inc()
}

// LabTransition counts a lab request entering status.
func LabTransition(status string) {
	labTransitionsTotal.WithLabelValues(status).Inc()
}
