package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-pivot-table/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

var db *sql.DB

// ErrNotFound is returned when a report does not exist.
var ErrNotFound = errors.New("report not found")

// Initialize DB connection
func InitDB(dbPath string) error {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", dbPath, err)
	}
	// sqlite allows one writer; a single connection serializes them.
	conn.SetMaxOpenConns(1)

	// Create tables if not exists
	reportTable := `
	CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		name TEXT,
		spec TEXT,
		config_hash TEXT,
		status TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);
	`
	resultTable := `
	CREATE TABLE IF NOT EXISTS report_results (
		report_id TEXT PRIMARY KEY,
		result TEXT,
		metrics TEXT,
		created_at DATETIME
	);
	`
	errorTable := `
	CREATE TABLE IF NOT EXISTS report_errors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		report_id TEXT,
		stage TEXT,
		field TEXT,
		error_message TEXT,
		created_at DATETIME
	);
	`

	for _, stmt := range []string{reportTable, resultTable, errorTable} {
		if _, err := conn.Exec(stmt); err != nil {
			conn.Close()
			return fmt.Errorf("create tables: %w", err)
		}
	}

	if db != nil {
		db.Close()
	}
	db = conn
	fmt.Printf("🗄️ Report store ready at %s\n", dbPath)
	return nil
}

// Close releases the DB connection
func Close() error {
	if db == nil {
		return nil
	}
	err := db.Close()
	db = nil
	return err
}

// SaveReport stores a new report in pending state
func SaveReport(report model.Report) error {
	specJSON, err := json.Marshal(report.Spec)
	if err != nil {
		return fmt.Errorf("encode spec: %w", err)
	}

	now := time.Now().UTC()
	status := report.Status
	if status == "" {
		status = model.StatusPending
	}
	_, err = db.Exec(`INSERT INTO reports (id, name, spec, config_hash, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		report.ID, report.Name, specJSON, report.ConfigHash, status, now, now)
	return err
}

// GetReport fetches a report with its spec
func GetReport(id string) (*model.Report, error) {
	var report model.Report
	var specJSON string

	err := db.QueryRow(`SELECT id, name, spec, config_hash, status, created_at, updated_at FROM reports WHERE id = ?`, id).
		Scan(&report.ID, &report.Name, &specJSON, &report.ConfigHash, &report.Status, &report.CreatedAt, &report.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(specJSON), &report.Spec); err != nil {
		return nil, fmt.Errorf("decode spec of %s: %w", id, err)
	}
	return &report, nil
}

// ListReports returns all reports, newest first, without their specs
func ListReports() ([]model.Report, error) {
	rows, err := db.Query(`SELECT id, name, config_hash, status, created_at, updated_at FROM reports ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := make([]model.Report, 0)
	for rows.Next() {
		var r model.Report
		if err := rows.Scan(&r.ID, &r.Name, &r.ConfigHash, &r.Status, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// UpdateReportStatus updates report status
func UpdateReportStatus(id string, status string) error {
	now := time.Now().UTC()
	res, err := db.Exec(`UPDATE reports SET status = ?, updated_at = ? WHERE id = ?`, status, now, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// DeleteReport removes a report with its result and errors
func DeleteReport(id string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM reports WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM report_results WHERE report_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM report_errors WHERE report_id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// SaveReportResult stores (or replaces) the pivot result of a report
func SaveReportResult(id string, result *model.Result, metrics model.ReportMetrics) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	metricsJSON, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("encode metrics: %w", err)
	}

	_, err = db.Exec(`INSERT OR REPLACE INTO report_results (report_id, result, metrics, created_at) VALUES (?, ?, ?, ?)`,
		id, resultJSON, metricsJSON, time.Now().UTC())
	return err
}

// GetReportResult loads the stored result and run metrics of a report
func GetReportResult(id string) (*model.Result, *model.ReportMetrics, error) {
	var resultJSON, metricsJSON string
	err := db.QueryRow(`SELECT result, metrics FROM report_results WHERE report_id = ?`, id).Scan(&resultJSON, &metricsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	var result model.Result
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, nil, fmt.Errorf("decode result of %s: %w", id, err)
	}
	var metrics model.ReportMetrics
	if err := json.Unmarshal([]byte(metricsJSON), &metrics); err != nil {
		return nil, nil, fmt.Errorf("decode metrics of %s: %w", id, err)
	}
	return &result, &metrics, nil
}

// SaveReportError records an error for a report
func SaveReportError(id string, detail model.ErrorDetail) error {
	if detail.Timestamp.IsZero() {
		detail.Timestamp = time.Now().UTC()
	}
	_, err := db.Exec(`INSERT INTO report_errors (report_id, stage, field, error_message, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, detail.Stage, detail.Field, detail.Message, detail.Timestamp)
	return err
}

// ClearReportErrors drops the errors of a previous run
func ClearReportErrors(id string) error {
	_, err := db.Exec(`DELETE FROM report_errors WHERE report_id = ?`, id)
	return err
}

// GetReportErrors returns the errors of a report in the order they occurred
func GetReportErrors(id string) ([]model.ErrorDetail, error) {
	rows, err := db.Query(`SELECT id, stage, field, error_message, created_at FROM report_errors WHERE report_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]model.ErrorDetail, 0)
	for rows.Next() {
		var d model.ErrorDetail
		if err := rows.Scan(&d.ID, &d.Stage, &d.Field, &d.Message, &d.Timestamp); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
