package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SpinsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "luckywheel_spins_resolved_total",
		Help: "Resolved spins by outcome source",
	}, []string{"source"})

	SpinRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "luckywheel_spin_rejections_total",
		Help: "Rejected spin attempts by reason",
	}, []string{"reason"})

	Registrations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "luckywheel_registrations_total",
		Help: "Successful registrations",
	})

	CodeAttempts = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "luckywheel_code_generation_attempts",
		Help:    "Candidates drawn before a free registration code was found",
		Buckets: []float64{1, 2, 3, 5, 10, 20},
	})

	Assignments = promauto.NewCounter(prometheus.CounterOpts{
		Name: "luckywheel_assignments_total",
		Help: "Admin prize assignments",
	})

	FeedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "luckywheel_feed_clients",
		Help: "Connected live feed clients",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "luckywheel_http_request_duration_seconds",
		Help:    "HTTP request latency by route template",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

func IncSpin(source string) {
	SpinsResolved.WithLabelValues(source).Inc()
}

func IncRejection(reason string) {
	SpinRejections.WithLabelValues(reason).Inc()
}

func ObserveCodeAttempts(n int) {
	CodeAttempts.Observe(float64(n))
}

func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
