package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// OutputManager handles output file organization and path management
type OutputManager struct {
	BaseOutputDir string
}

// NewOutputManager creates a new output manager
func NewOutputManager(baseOutputDir string) *OutputManager {
	return &OutputManager{
		BaseOutputDir: baseOutputDir,
	}
}

// CreateReportOutputDir creates the directory holding one report's exports
func (om *OutputManager) CreateReportOutputDir(reportID string) (string, error) {
	reportDir := filepath.Join(om.BaseOutputDir, filepath.Base(reportID))

	if err := os.MkdirAll(reportDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report output directory: %w", err)
	}
	return reportDir, nil
}

// GetOutputFilePath generates a full path for an output file. Only the base
// name of fileName is kept so a spec cannot write outside the report dir.
func (om *OutputManager) GetOutputFilePath(reportID, fileName string) (string, error) {
	reportDir, err := om.CreateReportOutputDir(reportID)
	if err != nil {
		return "", err
	}
	return filepath.Join(reportDir, filepath.Base(fileName)), nil
}

// GetDownloadURL generates the API URL serving a report in the given format
func (om *OutputManager) GetDownloadURL(reportID, format string) string {
	return fmt.Sprintf("/api/v1/pivots/%s/export?format=%s", reportID, format)
}

// FileType determines the export format from a file extension; "" when
// the extension is not an export format.
func FileType(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return "csv"
	case ".json":
		return "json"
	default:
		return ""
	}
}

// RemoveReportOutput deletes every exported file of a report
func (om *OutputManager) RemoveReportOutput(reportID string) error {
	return os.RemoveAll(filepath.Join(om.BaseOutputDir, filepath.Base(reportID)))
}

// EnsureOutputDirExists ensures the base output directory exists
func (om *OutputManager) EnsureOutputDirExists() error {
	return os.MkdirAll(om.BaseOutputDir, 0755)
}
