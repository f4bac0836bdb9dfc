// Package pipeline runs a report: load sources, clean and filter rows,
// pivot them through the memoizing engine, export, and persist the result.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"go-pivot-table/internal/metrics"
	"go-pivot-table/internal/model"
	"go-pivot-table/internal/pivot"
	"go-pivot-table/internal/store"
	"go-pivot-table/pkg/utils"

	"github.com/zeebo/xxh3"
)

// Pipeline holds what report runs share: the engine and its cache, the
// loader, metrics and the export directory.
type Pipeline struct {
	Engine  *pivot.Engine
	Loader  *Loader
	Metrics *metrics.Registry
	Output  *utils.OutputManager // nil writes exports to the spec's path as given
	Workers int
	Timeout time.Duration // used when the spec sets none
}

// New creates a pipeline over engine; reg and output may be nil
func New(engine *pivot.Engine, reg *metrics.Registry, output *utils.OutputManager) *Pipeline {
	return &Pipeline{
		Engine:  engine,
		Loader:  NewLoader(reg),
		Metrics: reg,
		Output:  output,
		Workers: DefaultWorkers,
		Timeout: utils.DefaultTimeout,
	}
}

// Outcome is everything one run produced
type Outcome struct {
	Result  *model.Result
	Metrics model.ReportMetrics
	Export  *model.ExportResult
	Errors  []model.ErrorDetail
}

// DatasetKey fingerprints prepared rows for the memo cache
func DatasetKey(rows []model.Record) (string, error) {
	h := xxh3.New()
	if err := json.NewEncoder(h).Encode(rows); err != nil {
		return "", fmt.Errorf("dataset key: %w", err)
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

// ------------------- Pipeline Runner -------------------

// Run executes one report. On failure the returned Outcome still carries
// the recorded errors and stage metrics.
func (p *Pipeline) Run(ctx context.Context, reportID string, spec model.ReportSpec) (*Outcome, error) {
	start := time.Now()
	progress.Printf("🚀 Starting report %s (%s)\n", reportID, spec.Name)

	tracker := NewTracker(reportID, p.Metrics)
	outcome := &Outcome{}
	var ingested int
	fail := func(err error) (*Outcome, error) {
		outcome.Errors = tracker.Errors()
		outcome.Metrics = tracker.Metrics(ingested, 0, false)
		return outcome, err
	}

	if err := ValidateSpec(spec); err != nil {
		tracker.RecordError("validate", err)
		return fail(err)
	}

	timeout := p.Timeout
	if spec.Timeout != "" {
		timeout = utils.ParseDuration(spec.Timeout)
	}
	if timeout <= 0 {
		timeout = utils.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// --- INGEST STAGE ---
	tracker.StartStage(StageIngest)
	rows, err := p.Loader.LoadSources(ctx, spec.Sources)
	if err == nil {
		rows = append(rows, spec.Rows...)
	}
	ingested = len(rows)
	tracker.EndStage(StageIngest, ingested, err)
	if err != nil {
		return fail(err)
	}

	// --- PREPARE STAGE ---
	tracker.StartStage(StagePrepare)
	rows, err = PrepareRows(ctx, rows, spec.Transformations, spec.Pivot.Filters, p.Workers)
	tracker.EndStage(StagePrepare, len(rows), err)
	if err != nil {
		return fail(err)
	}

	// --- TRANSFORM STAGE ---
	tracker.StartStage(StageTransform)
	result, hit, err := p.Transform(rows, spec.Pivot)
	produced := 0
	if result != nil {
		produced = len(model.Flatten(result.Data))
	}
	tracker.EndStage(StageTransform, produced, err)
	if err != nil {
		return fail(err)
	}
	outcome.Result = result

	// --- EXPORT STAGE ---
	if spec.Export != nil {
		tracker.StartStage(StageExport)
		exp, err := p.export(reportID, spec.Export, result)
		outcome.Export = exp
		n := 0
		if exp != nil {
			n = exp.RecordCount
		}
		tracker.EndStage(StageExport, n, err)
		if err != nil {
			return fail(err)
		}
	}

	outcome.Errors = tracker.Errors()
	outcome.Metrics = tracker.Metrics(ingested, produced, hit)
	progress.Printf("🏁 Report %s completed in %v (%d rows, cache hit: %t)\n", reportID, time.Since(start), produced, hit)
	return outcome, nil
}

// Transform pivots rows through the memo cache, keyed by the rows' content,
// and records cache and transform metrics.
func (p *Pipeline) Transform(rows []model.Record, cfg model.PivotConfig) (*model.Result, bool, error) {
	mode := string(pivot.ModeOf(cfg))
	key, err := DatasetKey(rows)
	if err != nil {
		return nil, false, err
	}

	start := time.Now()
	result, hit, err := p.Engine.Transform(key, rows, cfg)
	if p.Engine.Caching() && err == nil {
		p.Metrics.CacheLookup(hit)
	}
	if !hit {
		p.Metrics.ObserveTransform(mode, time.Since(start), err)
	}
	return result, hit, err
}

func (p *Pipeline) export(reportID string, exp *model.Export, result *model.Result) (*model.ExportResult, error) {
	format, err := exportFormat(exp)
	if err != nil {
		return nil, err
	}

	path := exp.File
	if p.Output != nil {
		if path, err = p.Output.GetOutputFilePath(reportID, exp.File); err != nil {
			p.Metrics.Exported(format, err)
			return nil, err
		}
	}

	res := WriteExport(path, format, result)
	if !res.Success {
		err = fmt.Errorf("export to %s failed: %s", path, res.Error)
	}
	p.Metrics.Exported(format, err)
	return &res, err
}

// ------------------- Persisted runs -------------------

// RunAndStore runs a saved report and records status, result and errors in
// the report store.
func (p *Pipeline) RunAndStore(ctx context.Context, report model.Report) (*Outcome, error) {
	if err := store.UpdateReportStatus(report.ID, model.StatusRunning); err != nil {
		return nil, fmt.Errorf("mark report %s running: %w", report.ID, err)
	}

	outcome, err := p.Run(ctx, report.ID, report.Spec)
	if err != nil {
		for _, detail := range outcome.Errors {
			if serr := store.SaveReportError(report.ID, detail); serr != nil {
				log.Printf("❌ Failed to save error for report %s: %v\n", report.ID, serr)
			}
		}
		markFailed(report.ID)
		return outcome, err
	}

	if err := store.SaveReportResult(report.ID, outcome.Result, outcome.Metrics); err != nil {
		markFailed(report.ID)
		return outcome, fmt.Errorf("save result of %s: %w", report.ID, err)
	}
	if err := store.UpdateReportStatus(report.ID, model.StatusCompleted); err != nil {
		return outcome, err
	}
	return outcome, nil
}

// markFailed sets the failed status; a store error is logged, the run's own
// error is what the caller returns.
func markFailed(reportID string) {
	if err := store.UpdateReportStatus(reportID, model.StatusFailed); err != nil {
		log.Printf("❌ Failed to mark report %s failed: %v\n", reportID, err)
	}
}
