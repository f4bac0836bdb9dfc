package model

import "time"

// ExportResult represents the result of an export operation
type ExportResult struct {
	Type        string    `json:"type"` // "csv", "json"
	Path        string    `json:"path"` // file path, empty when written to a stream
	RecordCount int       `json:"record_count"`
	Digest      string    `json:"digest,omitempty"` // xxh3 of the encoded bytes
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Report is a stored pivot run
type Report struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Status     string     `json:"status"` // pending, running, completed, failed
	ConfigHash string     `json:"config_hash"`
	Spec       ReportSpec `json:"spec"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Report statuses
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)
