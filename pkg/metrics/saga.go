package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SagaMetrics records checkout saga executions. The saga label names the
// flow ("process_payment", "cancel_order"), the outcome label records how
// it ended.
type SagaMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewSagaMetrics registers the saga metrics on the provided registerer.
func NewSagaMetrics(reg prometheus.Registerer) *SagaMetrics {
	if reg == nil {
		return &SagaMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "saga_duration_seconds",
		Help:    "Duration of checkout saga executions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"saga"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "saga_success",
		Help: "Saga executions that committed.",
	}, []string{"saga"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "saga_failure",
		Help: "Saga executions that ended in a business or system failure.",
	}, []string{"saga", "reason"})
	reg.MustRegister(duration, success, failure)
	return &SagaMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveDuration records the duration of the named saga.
func (s *SagaMetrics) ObserveDuration(saga string, duration time.Duration) {
	if s == nil || s.duration == nil {
		return
	}
	s.duration.WithLabelValues(normalizeLabel(saga)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named saga.
func (s *SagaMetrics) IncSuccess(saga string) {
	if s == nil || s.success == nil {
		return
	}
	s.success.WithLabelValues(normalizeLabel(saga)).Inc()
}

// IncFailure increments the failure counter for the named saga and reason.
func (s *SagaMetrics) IncFailure(saga, reason string) {
	if s == nil || s.failure == nil {
		return
	}
	s.failure.WithLabelValues(normalizeLabel(saga), normalizeLabel(reason)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
