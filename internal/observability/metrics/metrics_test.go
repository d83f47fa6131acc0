package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestEHRMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewEHRMetrics(reg)
	m.ObserveOperation("find_patient", "ok", 120*time.Millisecond)
	m.ObserveOperation("find_patient", "ok", 80*time.Millisecond)
	m.ObserveOperation("create_appointment", "error", 3*time.Second)

	count := testutil.CollectAndCount(m.operationsTotal)
	if count != 2 {
		t.Fatalf("expected 2 counter series, got %d", count)
	}
	got := testutil.ToFloat64(m.operationsTotal.WithLabelValues("find_patient", "ok"))
	if got != 2 {
		t.Fatalf("find_patient ok count = %v, want 2", got)
	}
}

func TestEHRMetricsNilSafe(t *testing.T) {
	var m *EHRMetrics
	m.ObserveOperation("find_patient", "ok", time.Millisecond)
}
