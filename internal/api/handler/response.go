package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go-pivot-table/internal/pipeline"
	"go-pivot-table/internal/pivot"
	"go-pivot-table/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusOf maps domain errors to HTTP status codes
func statusOf(err error) int {
	var cfgErr *pivot.ConfigError
	switch {
	case errors.As(err, &cfgErr),
		errors.Is(err, pipeline.ErrInvalidSpec):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pipeline.ErrReportRunning):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes {"error": ...}, plus "field" for config errors
func writeError(w http.ResponseWriter, err error) {
	body := map[string]string{"error": err.Error()}
	var cfgErr *pivot.ConfigError
	if errors.As(err, &cfgErr) {
		body["field"] = cfgErr.Field
	}
	writeJSON(w, statusOf(err), body)
}
