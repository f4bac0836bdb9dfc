package pipeline

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go-pivot-table/internal/model"
	"go-pivot-table/pkg/utils"

	"github.com/zeebo/xxh3"
)

// Export formats
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// exportFormat picks the explicit format, else infers it from the file name
func exportFormat(exp *model.Export) (string, error) {
	format := strings.ToLower(exp.Format)
	if format == "" {
		format = utils.FileType(exp.File)
	}
	switch format {
	case FormatCSV, FormatJSON:
		return format, nil
	case "":
		return "", fmt.Errorf("cannot infer format of %q", exp.File)
	default:
		return "", fmt.Errorf("invalid export format: %s", format)
	}
}

// EncodeCSV writes the rows depth-first, one line per row. The header is
// the union of cell keys in first-seen order; bookkeeping keys are left
// out and missing or null cells are empty.
func EncodeCSV(w io.Writer, rows []*model.PivotRow) (int, error) {
	flat := model.Flatten(rows)

	var header []string
	seen := make(map[string]bool)
	for _, r := range flat {
		for _, key := range r.Cells.Keys() {
			if model.IsInternalKey(key) || seen[key] {
				continue
			}
			seen[key] = true
			header = append(header, key)
		}
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	recordCount := 0
	line := make([]string, len(header))
	for _, r := range flat {
		for i, key := range header {
			line[i] = r.Cells.Get(key).String()
		}
		if err := writer.Write(line); err != nil {
			return recordCount, fmt.Errorf("failed to write row: %w", err)
		}
		recordCount++
	}

	writer.Flush()
	return recordCount, writer.Error()
}

// EncodeJSON writes the row array as indented JSON, bookkeeping included
func EncodeJSON(w io.Writer, rows []*model.PivotRow) (int, error) {
	if rows == nil {
		rows = []*model.PivotRow{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return 0, fmt.Errorf("failed to encode rows: %w", err)
	}
	return len(rows), nil
}

// Encode renders a result in the given format
func Encode(format string, result *model.Result) ([]byte, int, error) {
	var buf bytes.Buffer
	var n int
	var err error
	switch format {
	case FormatCSV:
		n, err = EncodeCSV(&buf, result.Data)
	case FormatJSON:
		n, err = EncodeJSON(&buf, result.Data)
	default:
		err = fmt.Errorf("invalid export format: %s", format)
	}
	if err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), n, nil
}

// Digest is the xxh3 fingerprint of exported bytes, used as the ETag
func Digest(b []byte) string {
	return fmt.Sprintf("%016x", xxh3.Hash(b))
}

// WriteExport encodes result and writes it to path
func WriteExport(path, format string, result *model.Result) model.ExportResult {
	res := model.ExportResult{Type: format, Path: path, Timestamp: time.Now()}

	data, n, err := Encode(format, result)
	if err == nil {
		if err = os.MkdirAll(filepath.Dir(path), 0755); err == nil {
			err = os.WriteFile(path, data, 0644)
		}
	}
	if err != nil {
		res.Error = err.Error()
		return res
	}

	res.RecordCount = n
	res.Digest = Digest(data)
	res.Success = true
	progress.Printf("💾 Export: %d records exported to %s (%s)\n", n, path, format)
	return res
}
