package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the validation module.
type Metrics struct {
	// Validations by document type and outcome (pass, fatal)
	ValidationsTotal *prometheus.CounterVec

	// Findings by severity
	FindingsTotal *prometheus.CounterVec

	// Rule engine latency
	ValidateLatency prometheus.Histogram
}

// New creates a new Metrics instance with all validation module metrics registered.
func New() *Metrics {
	return &Metrics{
		ValidationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tribultz_validation_runs_total",
			Help: "Total XML validation runs by document type and outcome",
		}, []string{"document_type", "outcome"}),

		FindingsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tribultz_validation_findings_total",
			Help: "Total findings emitted by severity",
		}, []string{"severity"}),

		ValidateLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tribultz_validation_duration_seconds",
			Help:    "Duration of a full rule engine pass over one document",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
	}
}

// IncrementValidation records a completed validation run.
func (m *Metrics) IncrementValidation(documentType, outcome string) {
	if m != nil {
		m.ValidationsTotal.WithLabelValues(documentType, outcome).Inc()
	}
}

// AddFindings records emitted findings for one severity.
func (m *Metrics) AddFindings(severity string, n int) {
	if m != nil && n > 0 {
		m.FindingsTotal.WithLabelValues(severity).Add(float64(n))
	}
}

// ObserveValidateLatency records the rule engine duration.
func (m *Metrics) ObserveValidateLatency(d time.Duration) {
	if m != nil {
		m.ValidateLatency.Observe(d.Seconds())
	}
}
