// Package metrics exposes Prometheus instrumentation for the voice agent.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EHRMetrics exposes counters/histograms for EHR transport operations.
type EHRMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
}

func NewEHRMetrics(reg prometheus.Registerer) *EHRMetrics {
	m := &EHRMetrics{
		operationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voiceagent",
			Subsystem: "ehr",
			Name:      "operations_total",
			Help:      "Total EHR operations by outcome",
		}, []string{"operation", "status"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "voiceagent",
			Subsystem: "ehr",
			Name:      "operation_duration_seconds",
			Help:      "Latency of EHR operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.operationsTotal, m.operationDuration)
	return m
}

// ObserveOperation records one completed EHR operation.
func (m *EHRMetrics) ObserveOperation(operation, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}
