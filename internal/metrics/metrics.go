// Package metrics holds the Prometheus collectors for report runs and the
// pivot memo cache, exposed on /metrics by the API server.
//
// All methods are safe on a nil *Registry so callers can run without
// instrumentation (tests, one-shot CLI runs).
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry owns a private Prometheus registry and the report collectors.
type Registry struct {
	reg *prometheus.Registry

	transforms        *prometheus.CounterVec // pivot_transforms_total
	transformDuration *prometheus.SummaryVec // pivot_transform_duration_seconds
	cacheLookups      *prometheus.CounterVec // pivot_cache_lookups_total
	stageDuration     *prometheus.SummaryVec // pivot_stage_duration_seconds
	rowsIngested      *prometheus.CounterVec // pivot_rows_ingested_total
	exports           *prometheus.CounterVec // pivot_exports_total
}

func New() (*Registry, error) {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		transforms: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pivot_transforms_total",
				Help: "Pivot transformations, partitioned by mode and status.",
			},
			[]string{"mode", "status"},
		),
		transformDuration: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Name:       "pivot_transform_duration_seconds",
				Help:       "Duration of pivot transformations in seconds, partitioned by mode.",
				Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
			},
			[]string{"mode"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pivot_cache_lookups_total",
				Help: "Memo cache lookups, partitioned by result (hit, miss).",
			},
			[]string{"result"},
		),
		stageDuration: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Name:       "pivot_stage_duration_seconds",
				Help:       "Duration of report stages in seconds, partitioned by stage and status.",
				Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
			},
			[]string{"stage", "status"},
		),
		rowsIngested: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pivot_rows_ingested_total",
				Help: "Raw rows loaded from sources, partitioned by source type.",
			},
			[]string{"source"},
		),
		exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pivot_exports_total",
				Help: "Result exports, partitioned by format and status.",
			},
			[]string{"format", "status"},
		),
	}

	collectors := map[string]prometheus.Collector{
		"transform counter": r.transforms,
		"transform summary": r.transformDuration,
		"cache counter":     r.cacheLookups,
		"stage summary":     r.stageDuration,
		"ingest counter":    r.rowsIngested,
		"export counter":    r.exports,
	}
	for name, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: register %s: %w", name, err)
		}
	}
	return r, nil
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

func status(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// ObserveTransform records one engine run. Cache hits are not runs.
func (r *Registry) ObserveTransform(mode string, d time.Duration, err error) {
	if r == nil {
		return
	}
	r.transforms.WithLabelValues(mode, status(err)).Inc()
	if err == nil {
		r.transformDuration.WithLabelValues(mode).Observe(d.Seconds())
	}
}

func (r *Registry) CacheLookup(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

func (r *Registry) ObserveStage(stage string, d time.Duration, err error) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage, status(err)).Observe(d.Seconds())
}

func (r *Registry) RowsIngested(sourceType string, n int) {
	if r == nil {
		return
	}
	r.rowsIngested.WithLabelValues(sourceType).Add(float64(n))
}

func (r *Registry) Exported(format string, err error) {
	if r == nil {
		return
	}
	r.exports.WithLabelValues(format, status(err)).Inc()
}
