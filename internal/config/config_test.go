package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/viper"

	"go-pivot-table/internal/model"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Config{
		Addr:       ":8080",
		DBPath:     "pivot.db",
		CacheSize:  10,
		ExportDir:  "exports",
		JobTimeout: 5 * time.Minute,
		Workers:    4,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pivot.yaml")
	content := "addr: :9090\ncache_size: 25\njob_timeout: 45s\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PIVOT_CACHE_SIZE", "3")
	t.Setenv("PIVOT_EXPORT_DIR", "/tmp/out")

	cfg, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9090" || cfg.CacheSize != 3 || cfg.ExportDir != "/tmp/out" || cfg.JobTimeout != 45*time.Second {
		t.Errorf("config = %+v", cfg)
	}

	if _, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("explicit missing config file accepted")
	}
}

const yamlSpec = `
name: sales
sources:
  - type: csv
    url: data/sales.csv
rows:
  - {region: North, quarter: Q1, sales: 10}
transformations: [trimStrings]
pivot:
  rowFields: [region]
  columnFields: [quarter]
  valueFields:
    - field: sales
      aggregation: sum
      displayName: Sales
  options:
    showGrandTotal: true
  filters:
    region: [North, South]
export:
  file: sales.csv
timeout: 30s
`

func TestDecodeReportSpecYAML(t *testing.T) {
	spec, err := DecodeReportSpec([]byte(yamlSpec), "yaml")
	if err != nil {
		t.Fatalf("DecodeReportSpec: %v", err)
	}

	wantPivot := model.PivotConfig{
		RowFields:    []string{"region"},
		ColumnFields: []string{"quarter"},
		ValueFields:  []model.ValueField{{Field: "sales", Aggregation: model.AggSum, DisplayName: "Sales"}},
		Options:      model.Options{ShowGrandTotal: true},
		Filters:      map[string]any{"region": []any{"North", "South"}},
	}
	if diff := cmp.Diff(wantPivot, spec.Pivot); diff != "" {
		t.Errorf("pivot mismatch (-want +got):\n%s", diff)
	}
	if len(spec.Sources) != 1 || spec.Sources[0].URL != "data/sales.csv" || spec.Timeout != "30s" {
		t.Errorf("spec = %+v", spec)
	}
	if len(spec.Rows) != 1 || !spec.Rows[0].Get("sales").Equal(model.Number(10)) {
		t.Errorf("rows = %v", spec.Rows)
	}
	if spec.Export == nil || spec.Export.File != "sales.csv" {
		t.Errorf("export = %+v", spec.Export)
	}
}

func TestDecodeReportSpecRejectsUnknownKeys(t *testing.T) {
	if _, err := DecodeReportSpec([]byte("name: x\npivott: {}\n"), "yaml"); err == nil {
		t.Error("yaml typo accepted")
	}
	if _, err := DecodeReportSpec([]byte(`{"name":"x","pivott":{}}`), "json"); err == nil {
		t.Error("json typo accepted")
	}
	if _, err := DecodeReportSpec([]byte(`name = "x"`), "toml"); err == nil {
		t.Error("toml accepted")
	}
}

func TestLoadReportSpec(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quarterly.json")
	body := `{"rows":[{"a":1}],"pivot":{"valueFields":[{"field":"a","aggregation":"count"}]}}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	spec, err := LoadReportSpec(path)
	if err != nil {
		t.Fatalf("LoadReportSpec: %v", err)
	}
	if spec.Name != "quarterly" || spec.Pivot.ValueFields[0].Aggregation != model.AggCount {
		t.Errorf("spec = %+v", spec)
	}
}
