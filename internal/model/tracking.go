package model

import "time"

// ReportMetrics represents overall performance of one report run
type ReportMetrics struct {
	RowsIngested   int                     `json:"rows_ingested"`
	RowsProduced   int                     `json:"rows_produced"`
	CacheHit       bool                    `json:"cache_hit"`
	ProcessingTime time.Duration           `json:"processing_time"`
	StageMetrics   map[string]StageMetrics `json:"stage_metrics"`
}

// StageMetrics represents metrics for a specific report stage
type StageMetrics struct {
	StageName        string        `json:"stage_name"`
	StartTime        time.Time     `json:"start_time"`
	EndTime          time.Time     `json:"end_time"`
	Duration         time.Duration `json:"duration"`
	RecordsProcessed int           `json:"records_processed"`
	Status           string        `json:"status"` // completed, failed
}

// ErrorDetail represents a detailed error with context
type ErrorDetail struct {
	ID        int64     `json:"id"`
	Stage     string    `json:"stage"`
	Message   string    `json:"message"`
	Field     string    `json:"field,omitempty"` // offending config field, when known
	Timestamp time.Time `json:"timestamp"`
}
