package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCronJobMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	m.ObserveDuration("auction-sweep", 250*time.Millisecond)
	m.IncSuccess("auction-sweep")
	m.IncFailure("auction-sweep")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got := counterValue(t, mfs, "campustrade_job_success_total", "auction-sweep"); got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}
	if got := counterValue(t, mfs, "campustrade_job_failure_total", "auction-sweep"); got != 1 {
		t.Fatalf("expected failure=1, got %f", got)
	}
	if got := histogramSum(t, mfs, "campustrade_job_duration_seconds", "auction-sweep"); got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestCronJobMetricsNilRegistererIsNoop(t *testing.T) {
	m := NewCronJobMetrics(nil)

	// Must not panic on the no-op collector.
	m.ObserveDuration("auction-sweep", time.Second)
	m.IncSuccess("auction-sweep")
	m.IncFailure("auction-sweep")
}

func counterValue(t *testing.T, mfs []*dto.MetricFamily, name, job string) float64 {
	t.Helper()
	metric := findJobMetric(mfs, name, job)
	if metric == nil {
		t.Fatalf("metric %q missing sample for job %q", name, job)
	}
	return metric.GetCounter().GetValue()
}

func histogramSum(t *testing.T, mfs []*dto.MetricFamily, name, job string) float64 {
	t.Helper()
	metric := findJobMetric(mfs, name, job)
	if metric == nil {
		t.Fatalf("histogram %q missing sample for job %q", name, job)
	}
	return metric.GetHistogram().GetSampleSum()
}

func findJobMetric(mfs []*dto.MetricFamily, name, job string) *dto.Metric {
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "job" && label.GetValue() == job {
					return metric
				}
			}
		}
	}
	return nil
}
