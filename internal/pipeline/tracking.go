package pipeline

import (
	"errors"
	"log"
	"sync"
	"time"

	"go-pivot-table/internal/metrics"
	"go-pivot-table/internal/model"
	"go-pivot-table/internal/pivot"
)

// Report stages, in run order
const (
	StageIngest    = "ingest"
	StagePrepare   = "prepare"
	StageTransform = "transform"
	StageExport    = "export"
)

// Tracker collects per-stage timings, row counts and errors of one report
// run and mirrors stage durations into the Prometheus registry.
type Tracker struct {
	ReportID string

	mu      sync.Mutex
	start   time.Time
	stages  map[string]model.StageMetrics
	errs    []model.ErrorDetail
	metrics *metrics.Registry
}

// NewTracker creates a tracker for one run; reg may be nil
func NewTracker(reportID string, reg *metrics.Registry) *Tracker {
	return &Tracker{
		ReportID: reportID,
		start:    time.Now(),
		stages:   make(map[string]model.StageMetrics),
		metrics:  reg,
	}
}

// StartStage marks the start of a report stage
func (t *Tracker) StartStage(stage string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stages[stage] = model.StageMetrics{
		StageName: stage,
		StartTime: time.Now(),
		Status:    "running",
	}
	progress.Printf("📊 Stage '%s' started for report %s\n", stage, t.ReportID)
}

// EndStage marks the end of a report stage; a non-nil err marks it failed
// and records the error.
func (t *Tracker) EndStage(stage string, records int, err error) {
	t.mu.Lock()
	sm := t.stages[stage]
	sm.StageName = stage
	sm.EndTime = time.Now()
	if sm.StartTime.IsZero() {
		sm.StartTime = sm.EndTime
	}
	sm.Duration = sm.EndTime.Sub(sm.StartTime)
	sm.RecordsProcessed = records
	sm.Status = "completed"
	if err != nil {
		sm.Status = "failed"
	}
	t.stages[stage] = sm
	t.mu.Unlock()

	t.metrics.ObserveStage(stage, sm.Duration, err)
	if err != nil {
		t.RecordError(stage, err)
		return
	}
	progress.Printf("📊 Stage '%s' completed: %d records processed in %v\n", stage, records, sm.Duration)
}

// RecordError records an error with its stage. Config errors keep the
// offending field.
func (t *Tracker) RecordError(stage string, err error) {
	detail := model.ErrorDetail{
		Stage:     stage,
		Message:   err.Error(),
		Timestamp: time.Now().UTC(),
	}
	var cfgErr *pivot.ConfigError
	if errors.As(err, &cfgErr) {
		detail.Field = cfgErr.Field
	}

	t.mu.Lock()
	t.errs = append(t.errs, detail)
	t.mu.Unlock()

	log.Printf("❌ Error in report %s [%s]: %v\n", t.ReportID, stage, err)
}

// Errors returns the recorded errors in the order they occurred
func (t *Tracker) Errors() []model.ErrorDetail {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]model.ErrorDetail(nil), t.errs...)
}

// Metrics snapshots the run; rows and cacheHit come from the pipeline
func (t *Tracker) Metrics(ingested, produced int, cacheHit bool) model.ReportMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()

	stages := make(map[string]model.StageMetrics, len(t.stages))
	for name, sm := range t.stages {
		stages[name] = sm
	}
	return model.ReportMetrics{
		RowsIngested:   ingested,
		RowsProduced:   produced,
		CacheHit:       cacheHit,
		ProcessingTime: time.Since(t.start),
		StageMetrics:   stages,
	}
}
