package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestCheckoutMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCheckoutMetrics(reg)
	m.Transition("auth_check")
	m.Transition("submitting")
	m.Transition("submitting")
	m.Transition("")
	m.ObserveDuration("complete", 250*time.Millisecond)

	if got := testutil.ToFloat64(m.transitions.WithLabelValues("submitting")); got != 2 {
		t.Fatalf("expected submitting=2, got %f", got)
	}
	if got := testutil.ToFloat64(m.transitions.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("empty state should be labelled unknown, got %f", got)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchHistogramSum(mfs, "checkout_duration_seconds", "outcome", "complete"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestCartMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCartMetrics(reg)
	m.Swept(4, 2)
	m.Swept(3, 0)

	if got := testutil.ToFloat64(m.active); got != 3 {
		t.Fatalf("expected active=3, got %f", got)
	}
	if got := testutil.ToFloat64(m.evicted); got != 2 {
		t.Fatalf("expected evicted=2, got %f", got)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var c *CheckoutMetrics
	c.Transition("complete")
	c.ObserveDuration("complete", time.Second)
	NewCheckoutMetrics(nil).Transition("failed")

	var carts *CartMetrics
	carts.Swept(1, 1)
	NewCartMetrics(nil).Swept(1, 1)
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
