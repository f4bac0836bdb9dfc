package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegistryCounters(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	r.ObserveTransform("flat", 20*time.Millisecond, nil)
	r.ObserveTransform("flat", time.Millisecond, errors.New("bad config"))
	r.CacheLookup(true)
	r.CacheLookup(false)
	r.CacheLookup(false)
	r.RowsIngested("csv", 120)
	r.Exported("json", nil)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"flat success", testutil.ToFloat64(r.transforms.WithLabelValues("flat", "success")), 1},
		{"flat failure", testutil.ToFloat64(r.transforms.WithLabelValues("flat", "failure")), 1},
		{"cache hits", testutil.ToFloat64(r.cacheLookups.WithLabelValues("hit")), 1},
		{"cache misses", testutil.ToFloat64(r.cacheLookups.WithLabelValues("miss")), 2},
		{"csv rows", testutil.ToFloat64(r.rowsIngested.WithLabelValues("csv")), 120},
		{"json exports", testutil.ToFloat64(r.exports.WithLabelValues("json", "success")), 1},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestNilRegistryIsNoop(t *testing.T) {
	var r *Registry
	r.ObserveTransform("flat", time.Second, nil)
	r.CacheLookup(true)
	r.ObserveStage("ingest", time.Second, nil)
	r.RowsIngested("csv", 1)
	r.Exported("csv", nil)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 404 {
		t.Errorf("nil registry handler status = %d, want 404", rec.Code)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	r.ObserveStage("transform", 5*time.Millisecond, nil)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `pivot_stage_duration_seconds_count{stage="transform",status="success"} 1`) {
		t.Errorf("stage summary missing from exposition:\n%s", body)
	}
}
