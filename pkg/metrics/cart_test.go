package metrics

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCartMetricsExportsCountersGaugeAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCartMetrics(reg)

	metrics.IncMutation("add_to_cart", OutcomeChanged)
	metrics.IncMutation("add_to_cart", OutcomeChanged)
	metrics.IncMutation("decrement", OutcomeNoop)
	metrics.ObservePayable(17800)
	metrics.SessionStarted()
	metrics.SessionStarted()
	metrics.SessionEnded()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "cart_mutations_total", map[string]string{"op": "add_to_cart", "outcome": OutcomeChanged}); err != nil {
		t.Fatalf("fetch add: %v", err)
	} else if got != 2 {
		t.Fatalf("expected add_to_cart=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "cart_mutations_total", map[string]string{"op": "decrement", "outcome": OutcomeNoop}); err != nil {
		t.Fatalf("fetch decrement: %v", err)
	} else if got != 1 {
		t.Fatalf("expected decrement noop=1, got %f", got)
	}

	mf := findMetricFamily(mfs, "cart_sessions_active")
	if mf == nil || len(mf.GetMetric()) != 1 || mf.GetMetric()[0].GetGauge().GetValue() != 1 {
		t.Fatalf("expected one active session, got %+v", mf)
	}

	mf = findMetricFamily(mfs, "checkout_total_payable")
	if mf == nil || mf.GetMetric()[0].GetHistogram().GetSampleSum() != 17800 {
		t.Fatalf("expected payable sum 17800, got %+v", mf)
	}
}

func TestCartMetricsNilSafe(t *testing.T) {
	var metrics *CartMetrics
	metrics.IncMutation("op", OutcomeChanged)
	metrics.ObservePayable(1)
	metrics.SessionStarted()
	metrics.SessionEnded()

	unregistered := NewCartMetrics(nil)
	unregistered.IncMutation("op", OutcomeChanged)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing labels %v", name, labels)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, pair := range pairs {
		if v, ok := want[pair.GetName()]; ok && v == pair.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
