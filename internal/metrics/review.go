package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/davidahmann/subscreen/internal/review"
)

// ReviewMetrics tracks pipeline outcomes.
//
// Metrics:
//   - <ns>_decisions_total: final decisions by stage and decision
//   - <ns>_records_total: records reviewed by mode
//   - <ns>_batch_duration_seconds: batch processing time by mode
type ReviewMetrics struct {
	registry      *prometheus.Registry
	decisions     *prometheus.CounterVec
	records       *prometheus.CounterVec
	batchDuration *prometheus.HistogramVec
}

func NewReviewMetrics(namespace string) *ReviewMetrics {
	if namespace == "" {
		namespace = "subscreen"
	}
	m := &ReviewMetrics{
		registry: prometheus.NewRegistry(),
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decisions_total",
				Help:      "Final questionnaire decisions by producing stage",
			},
			[]string{"stage", "decision"},
		),
		records: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_total",
				Help:      "Questionnaires reviewed",
			},
			[]string{"mode"},
		),
		batchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "batch_duration_seconds",
				Help:      "Time spent reviewing one batch",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"mode"},
		),
	}
	m.registry.MustRegister(m.decisions, m.records, m.batchDuration)
	return m
}

func (m *ReviewMetrics) ObserveBatch(mode review.Mode, outcomes []review.Outcome, elapsed time.Duration) {
	m.records.WithLabelValues(string(mode)).Add(float64(len(outcomes)))
	for _, o := range outcomes {
		m.decisions.WithLabelValues(string(o.Stage), string(o.Decision.Decision)).Inc()
	}
	m.batchDuration.WithLabelValues(string(mode)).Observe(elapsed.Seconds())
}

func (m *ReviewMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *ReviewMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
