package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestObserveRecordsSamples(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	m.Observe("GET", "/api/v1/journeys", 200, 30*time.Millisecond)
	m.Observe("GET", "/api/v1/journeys", 200, 10*time.Millisecond)
	m.Observe("POST", "", 500, time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	var sawDuration, sawRequests bool
	for _, fam := range families {
		switch fam.GetName() {
		case "http_request_duration_seconds":
			sawDuration = true
			if count := sampleCount(fam); count != 3 {
				t.Fatalf("expected 3 duration samples, got %d", count)
			}
		case "http_requests_total":
			sawRequests = true
			for _, metric := range fam.GetMetric() {
				for _, label := range metric.GetLabel() {
					if label.GetName() == "route" && label.GetValue() == "" {
						t.Fatal("empty route label must be normalized")
					}
				}
			}
		}
	}
	if !sawDuration || !sawRequests {
		t.Fatal("expected both metric families to be registered")
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *HTTPMetrics
	m.Observe("GET", "/", 200, time.Millisecond)
	NewHTTPMetrics(nil).Observe("GET", "/", 200, time.Millisecond)
}

func sampleCount(fam *dto.MetricFamily) uint64 {
	var total uint64
	for _, metric := range fam.GetMetric() {
		total += metric.GetHistogram().GetSampleCount()
	}
	return total
}
