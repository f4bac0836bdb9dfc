package handler

import (
	"encoding/json"
	"net/http"

	"go-pivot-table/internal/model"
	"go-pivot-table/internal/pivot"
)

// FieldSampleSize bounds how many rows field discovery looks at
const FieldSampleSize = 100

// TransformRequest is the body of POST /api/v1/transform
type TransformRequest struct {
	Rows   []model.Record    `json:"rows"`
	Config model.PivotConfig `json:"config"`
}

// FieldsRequest is the body of POST /api/v1/fields
type FieldsRequest struct {
	Rows []model.Record `json:"rows"`
}

// TransformRows pivots rows without storing anything
// @Summary Transform rows
// @Description Pivot the posted rows with the posted config. Results are memoized per (rows, config).
// @Tags engine
// @Accept json
// @Produce json
// @Param request body TransformRequest true "Rows and pivot config"
// @Success 200 {object} model.Result "Pivot result"
// @Failure 400 {object} map[string]interface{} "Invalid pivot config"
// @Router /transform [post]
func (h *PivotHandler) TransformRows(w http.ResponseWriter, r *http.Request) {
	var req TransformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	result, hit, err := h.Pipeline.Transform(req.Rows, req.Config)
	if err != nil {
		writeError(w, err)
		return
	}

	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	writeJSON(w, http.StatusOK, result)
}

// DiscoverFields lists the fields of sample rows
// @Summary Discover fields
// @Description List the fields of the posted rows with a display label and a type (number, date, boolean, string)
// @Tags engine
// @Accept json
// @Produce json
// @Param request body FieldsRequest true "Sample rows"
// @Success 200 {array} pivot.Field "Fields"
// @Failure 400 {object} map[string]interface{} "Invalid request payload"
// @Router /fields [post]
func (h *PivotHandler) DiscoverFields(w http.ResponseWriter, r *http.Request) {
	var req FieldsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	sample := req.Rows
	if len(sample) > FieldSampleSize {
		sample = sample[:FieldSampleSize]
	}
	writeJSON(w, http.StatusOK, pivot.DiscoverFields(sample))
}

// HashConfig returns the cache key of a pivot config
// @Summary Hash pivot config
// @Description Compute the stable config hash used in cache keys
// @Tags engine
// @Accept json
// @Produce json
// @Param config body model.PivotConfig true "Pivot config"
// @Success 200 {object} map[string]interface{} "Hash and mode"
// @Failure 400 {object} map[string]interface{} "Invalid request payload"
// @Router /hash [post]
func (h *PivotHandler) HashConfig(w http.ResponseWriter, r *http.Request) {
	var cfg model.PivotConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"hash": pivot.ConfigHash(cfg),
		"mode": pivot.ModeOf(cfg),
	})
}
