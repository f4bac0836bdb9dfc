package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"go-pivot-table/internal/model"
	"go-pivot-table/internal/pipeline"
	"go-pivot-table/internal/pivot"
	"go-pivot-table/internal/store"

	"github.com/google/uuid"
)

const pivotsPrefix = "/api/v1/pivots/"

// PivotHandler serves report runs and the stateless engine endpoints
type PivotHandler struct {
	Pipeline *pipeline.Pipeline

	running sync.WaitGroup
}

func NewPivotHandler(p *pipeline.Pipeline) *PivotHandler {
	return &PivotHandler{Pipeline: p}
}

// Wait blocks until every background run has finished
func (h *PivotHandler) Wait() {
	h.running.Wait()
}

// CreatePivot stores a report and runs it
// @Summary Create a pivot report
// @Description Save a report spec and run it in the background. With wait=true the run is synchronous and the result is returned.
// @Tags pivots
// @Accept json
// @Produce json
// @Param report body model.ReportSpec true "Report spec"
// @Param wait query bool false "Run synchronously"
// @Success 200 {object} map[string]interface{} "Finished report (wait=true)"
// @Success 202 {object} map[string]interface{} "Report accepted"
// @Failure 400 {object} map[string]interface{} "Invalid report spec"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /pivots [post]
func (h *PivotHandler) CreatePivot(w http.ResponseWriter, r *http.Request) {
	var spec model.ReportSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	// 1. Validate payload
	if err := pipeline.ValidateSpec(spec); err != nil {
		writeError(w, err)
		return
	}

	// 2. Save report
	report := model.Report{
		ID:         uuid.New().String(),
		Name:       spec.Name,
		Status:     model.StatusPending,
		ConfigHash: pivot.ConfigHash(spec.Pivot),
		Spec:       spec,
	}
	if err := store.SaveReport(report); err != nil {
		http.Error(w, "Failed to save report", http.StatusInternalServerError)
		return
	}

	// 3. Run it
	if r.URL.Query().Get("wait") == "true" {
		outcome, err := h.Pipeline.RunAndStore(r.Context(), report)
		h.writeOutcome(w, report.ID, outcome, err)
		return
	}
	h.runInBackground(report)

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"message":    "Report created successfully!",
		"reportID":   report.ID,
		"status":     model.StatusPending,
		"configHash": report.ConfigHash,
		"createdAt":  time.Now().UTC(),
	})
}

func (h *PivotHandler) runInBackground(report model.Report) {
	h.running.Add(1)
	go func() {
		defer h.running.Done()
		if _, err := h.Pipeline.RunAndStore(context.Background(), report); err != nil {
			log.Printf("❌ Report %s failed: %v\n", report.ID, err)
		}
	}()
}

func (h *PivotHandler) writeOutcome(w http.ResponseWriter, id string, outcome *pipeline.Outcome, err error) {
	if err != nil {
		status := statusOf(err)
		body := map[string]interface{}{"reportID": id, "status": model.StatusFailed, "error": err.Error()}
		if outcome != nil {
			body["errors"] = outcome.Errors
		}
		writeJSON(w, status, body)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reportID": id,
		"status":   model.StatusCompleted,
		"result":   outcome.Result,
		"metrics":  outcome.Metrics,
		"export":   outcome.Export,
	})
}

// ListPivots retrieves all reports
// @Summary List pivot reports
// @Description Get all reports with their current status, newest first
// @Tags pivots
// @Produce json
// @Success 200 {array} model.Report "List of reports"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /pivots [get]
func (h *PivotHandler) ListPivots(w http.ResponseWriter, r *http.Request) {
	reports, err := store.ListReports()
	if err != nil {
		http.Error(w, "Failed to fetch reports", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

// GetPivot retrieves a report with its result
// @Summary Get pivot report
// @Description Retrieve a report, and its result and run metrics once completed
// @Tags pivots
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} map[string]interface{} "Report details"
// @Failure 404 {object} map[string]interface{} "Report not found"
// @Router /pivots/{id} [get]
func (h *PivotHandler) GetPivot(w http.ResponseWriter, r *http.Request) {
	id, ok := reportID(w, r, "")
	if !ok {
		return
	}

	report, err := store.GetReport(id)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := map[string]interface{}{"report": report}
	result, metrics, err := store.GetReportResult(id)
	switch {
	case err == nil:
		resp["result"] = result
		resp["metrics"] = metrics
		resp["downloads"] = map[string]string{
			pipeline.FormatCSV:  h.Pipeline.Output.GetDownloadURL(id, pipeline.FormatCSV),
			pipeline.FormatJSON: h.Pipeline.Output.GetDownloadURL(id, pipeline.FormatJSON),
		}
	case !errors.Is(err, store.ErrNotFound):
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// DeletePivot removes a report
// @Summary Delete pivot report
// @Description Delete a report with its result, errors and exported files
// @Tags pivots
// @Param id path string true "Report ID"
// @Success 204 "Deleted"
// @Failure 404 {object} map[string]interface{} "Report not found"
// @Router /pivots/{id} [delete]
func (h *PivotHandler) DeletePivot(w http.ResponseWriter, r *http.Request) {
	id, ok := reportID(w, r, "")
	if !ok {
		return
	}
	if err := store.DeleteReport(id); err != nil {
		writeError(w, err)
		return
	}
	if h.Pipeline.Output != nil {
		if err := h.Pipeline.Output.RemoveReportOutput(id); err != nil {
			log.Printf("❌ Failed to remove exports of %s: %v\n", id, err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportPivot downloads a report result
// @Summary Export pivot report
// @Description Download the result rows as CSV or JSON. The ETag is the xxh3 digest of the body.
// @Tags pivots
// @Produce text/csv,application/json
// @Param id path string true "Report ID"
// @Param format query string false "csv (default) or json"
// @Success 200 {string} string "Encoded rows"
// @Success 304 "Not modified"
// @Failure 400 {object} map[string]interface{} "Invalid format"
// @Failure 404 {object} map[string]interface{} "Report or result not found"
// @Router /pivots/{id}/export [get]
func (h *PivotHandler) ExportPivot(w http.ResponseWriter, r *http.Request) {
	id, ok := reportID(w, r, "/export")
	if !ok {
		return
	}

	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = pipeline.FormatCSV
	}
	if format != pipeline.FormatCSV && format != pipeline.FormatJSON {
		http.Error(w, "format must be csv or json", http.StatusBadRequest)
		return
	}

	result, _, err := store.GetReportResult(id)
	if err != nil {
		writeError(w, err)
		return
	}

	data, _, err := pipeline.Encode(format, result)
	h.Pipeline.Metrics.Exported(format, err)
	if err != nil {
		writeError(w, err)
		return
	}

	etag := `"` + pipeline.Digest(data) + `"`
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	contentType := "text/csv; charset=utf-8"
	if format == pipeline.FormatJSON {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, id, format))
	w.Write(data)
}

// GetPivotErrors retrieves errors for a report
// @Summary Get pivot report errors
// @Description Retrieve the errors of the latest run of a report
// @Tags pivots
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} map[string]interface{} "Report errors"
// @Failure 404 {object} map[string]interface{} "Report not found"
// @Router /pivots/{id}/errors [get]
func (h *PivotHandler) GetPivotErrors(w http.ResponseWriter, r *http.Request) {
	id, ok := reportID(w, r, "/errors")
	if !ok {
		return
	}
	if _, err := store.GetReport(id); err != nil {
		writeError(w, err)
		return
	}

	details, err := store.GetReportErrors(id)
	if err != nil {
		http.Error(w, "Failed to retrieve errors", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"report_id": id,
		"errors":    details,
		"count":     len(details),
	})
}

// RerunPivot runs a stored report again
// @Summary Re-run pivot report
// @Description Run a stored report again from its saved spec, e.g. after a source was fixed
// @Tags pivots
// @Produce json
// @Param id path string true "Report ID"
// @Param wait query bool false "Run synchronously"
// @Success 200 {object} map[string]interface{} "Finished report (wait=true)"
// @Success 202 {object} map[string]interface{} "Re-run accepted"
// @Failure 404 {object} map[string]interface{} "Report not found"
// @Failure 409 {object} map[string]interface{} "Report is still running"
// @Router /pivots/{id}/rerun [post]
func (h *PivotHandler) RerunPivot(w http.ResponseWriter, r *http.Request) {
	id, ok := reportID(w, r, "/rerun")
	if !ok {
		return
	}

	if r.URL.Query().Get("wait") == "true" {
		outcome, err := h.Pipeline.RetryReport(r.Context(), id)
		if outcome == nil && err != nil {
			writeError(w, err)
			return
		}
		h.writeOutcome(w, id, outcome, err)
		return
	}

	report, err := store.GetReport(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if report.Status == model.StatusRunning {
		writeError(w, pipeline.ErrReportRunning)
		return
	}

	h.running.Add(1)
	go func() {
		defer h.running.Done()
		if _, err := h.Pipeline.RetryReport(context.Background(), id); err != nil {
			log.Printf("❌ Re-run of report %s failed: %v\n", id, err)
		}
	}()
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"message":  "Report re-run started",
		"reportID": id,
	})
}

// reportID extracts the report ID between the pivots prefix and suffix
func reportID(w http.ResponseWriter, r *http.Request, suffix string) (string, bool) {
	path := r.URL.Path
	if !strings.HasPrefix(path, pivotsPrefix) || !strings.HasSuffix(path, suffix) {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return "", false
	}

	id := path[len(pivotsPrefix) : len(path)-len(suffix)]
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "Report not found", http.StatusNotFound)
		return "", false
	}
	return id, true
}
