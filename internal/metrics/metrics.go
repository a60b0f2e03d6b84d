// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Verifications counts verification outcomes; outcome is "accepted" or a rejection reason.
	Verifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "verifications_total",
		Help:      "Attendance verification attempts by outcome.",
	}, []string{"outcome"})

	VerifyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "attendance",
		Name:      "verify_duration_seconds",
		Help:      "Time spent verifying one attendance attempt.",
		Buckets:   prometheus.DefBuckets,
	})

	TokensIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "qr_tokens_issued_total",
		Help:      "QR tokens issued to lecturers.",
	})

	PublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "event_publish_failures_total",
		Help:      "Attendance events that could not be queued.",
	})

	EventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "worker_events_total",
		Help:      "Queue events handled by the worker by result.",
	}, []string{"result"})
)

// ObserveVerify records one verification.
func ObserveVerify(outcome string, elapsed time.Duration) {
	Verifications.WithLabelValues(outcome).Inc()
	VerifyDuration.Observe(elapsed.Seconds())
}
