package model

// AggregationKind names a reduction function in the aggregation registry.
type AggregationKind string

const (
	AggSum    AggregationKind = "sum"
	AggAvg    AggregationKind = "avg"
	AggCount  AggregationKind = "count"
	AggMin    AggregationKind = "min"
	AggMax    AggregationKind = "max"
	AggMedian AggregationKind = "median"
	AggFirst  AggregationKind = "first"
	AggLast   AggregationKind = "last"
)

// ValueField defines one aggregated metric
type ValueField struct {
	Field       string          `json:"field" yaml:"field"`
	Aggregation AggregationKind `json:"aggregation" yaml:"aggregation"`
	DisplayName string          `json:"displayName,omitempty" yaml:"displayName,omitempty"`
}

// Label is the output column label: DisplayName, or Field when unset.
func (vf ValueField) Label() string {
	if vf.DisplayName != "" {
		return vf.DisplayName
	}
	return vf.Field
}

// Options toggles the totals layered on top of the pivot
type Options struct {
	ShowRowTotals     bool `json:"showRowTotals" yaml:"showRowTotals"`
	ShowColumnTotals  bool `json:"showColumnTotals" yaml:"showColumnTotals"`
	ShowGrandTotal    bool `json:"showGrandTotal" yaml:"showGrandTotal"`
	ExpandedByDefault bool `json:"expandedByDefault" yaml:"expandedByDefault"`
}

// PivotConfig describes one pivot transformation. Order of RowFields and
// ColumnFields is significant.
type PivotConfig struct {
	RowFields    []string       `json:"rowFields" yaml:"rowFields"`
	ColumnFields []string       `json:"columnFields" yaml:"columnFields"`
	ValueFields  []ValueField   `json:"valueFields" yaml:"valueFields"`
	Options      Options        `json:"options" yaml:"options"`
	Filters      map[string]any `json:"filters,omitempty" yaml:"filters,omitempty"` // applied by the report pipeline, echoed by the engine
}

// Source represents a data source for a report
type Source struct {
	Type   string `json:"type" yaml:"type"`                         // csv, json, sql
	URL    string `json:"url" yaml:"url"`                           // file path, http(s) URL or DSN
	Driver string `json:"driver,omitempty" yaml:"driver,omitempty"` // sql only: sqlite3, pgx
	Query  string `json:"query,omitempty" yaml:"query,omitempty"`   // sql only
}

// Export defines where a report's rows are written
type Export struct {
	File   string `json:"file" yaml:"file"`                         // e.g., exports/sales.csv
	Format string `json:"format,omitempty" yaml:"format,omitempty"` // csv or json; inferred from File when empty
}

// ReportSpec is the struct for POST /api/v1/pivots and for report files
type ReportSpec struct {
	Name    string      `json:"name" yaml:"name"`
	Sources []Source    `json:"sources,omitempty" yaml:"sources,omitempty"`
	Rows    []Record    `json:"rows,omitempty" yaml:"rows,omitempty"` // inline rows, appended after sources
	// Row clean-ups applied in order before filtering: trimStrings,
	// convertToLowercase, convertToUppercase, normalizeNames, removeNulls.
	Transformations []string    `json:"transformations,omitempty" yaml:"transformations,omitempty"`
	Pivot           PivotConfig `json:"pivot" yaml:"pivot"`
	Export          *Export     `json:"export,omitempty" yaml:"export,omitempty"`
	Timeout         string      `json:"timeout,omitempty" yaml:"timeout,omitempty"` // e.g., "30s"
}
