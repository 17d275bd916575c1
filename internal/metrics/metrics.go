// Package metrics holds the Prometheus collectors of a SiteScout process.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Interaction Metrics
	SurfaceClicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitescout_surface_clicks_total",
			Help: "Surface click events interpreted by the session, by tool mode",
		},
		[]string{"mode"},
	)

	PointsPlaced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sitescout_points_placed_total",
			Help: "Commercial points created by place-point clicks",
		},
	)

	StaleResults = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sitescout_stale_assessments_total",
			Help: "Assessments that resolved for a point that no longer exists",
		},
	)

	// Assessment Metrics
	Assessments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitescout_assessments_total",
			Help: "Completed assessments by the source that produced them",
		},
		[]string{"source"}, // "gemini", "overpass", "synthetic"
	)

	AssessmentFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitescout_assessment_fallbacks_total",
			Help: "Assessments served by the synthetic fallback, by reason",
		},
		[]string{"reason"}, // "no_provider", "remote_error", "invalid_payload", "circuit_open", "rate_limited"
	)

	AssessmentDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sitescout_assessment_duration_seconds",
			Help:    "Wall time of an assessment including any fallback",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	AssessmentsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sitescout_assessments_in_flight",
			Help: "Assessment requests dispatched but not yet resolved",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sitescout_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitescout_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)

// RecordAssessment records a finished assessment.
func RecordAssessment(source string, duration time.Duration) {
	Assessments.WithLabelValues(source).Inc()
	AssessmentDuration.Observe(duration.Seconds())
}

// RecordFallback records a synthetic fallback and its reason.
func RecordFallback(reason string) {
	AssessmentFallbacks.WithLabelValues(reason).Inc()
}
