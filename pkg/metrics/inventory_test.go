package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestInventoryMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewInventoryMetrics(reg)

	metrics.ObserveTransition("fulfill", nil, 250*time.Millisecond)
	metrics.ObserveTransition("release", errors.New("boom"), 5*time.Millisecond)
	metrics.AddExpiredReleased(3)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "inventory_transitions_total", "transition", "fulfill"); err != nil {
		t.Fatalf("fetch fulfill: %v", err)
	} else if got != 1 {
		t.Fatalf("expected fulfill=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "inventory_transitions_total", "transition", "release"); err != nil {
		t.Fatalf("fetch release: %v", err)
	} else if got != 1 {
		t.Fatalf("expected release=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "inventory_transition_duration_seconds", "transition", "fulfill"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestInventoryMetricsNilRegistererIsNoop(t *testing.T) {
	metrics := NewInventoryMetrics(nil)
	metrics.ObserveTransition("fulfill", nil, time.Second)
	metrics.AddExpiredReleased(1)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
