package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"go-pivot-table/internal/model"
)

func openTestDB(t *testing.T) {
	t.Helper()
	if err := InitDB(filepath.Join(t.TempDir(), "reports.db")); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { Close() })
}

func testReport(id string) model.Report {
	return model.Report{
		ID:         id,
		Name:       "sales by region",
		ConfigHash: "abc",
		Spec: model.ReportSpec{
			Name: "sales by region",
			Rows: []model.Record{model.NewRecord("region", "N", "qty", 10)},
			Pivot: model.PivotConfig{
				RowFields:   []string{"region"},
				ValueFields: []model.ValueField{{Field: "qty", Aggregation: model.AggSum}},
			},
		},
	}
}

func TestReportLifecycle(t *testing.T) {
	openTestDB(t)

	if err := SaveReport(testReport("r1")); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	got, err := GetReport("r1")
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if got.Status != model.StatusPending || got.Name != "sales by region" {
		t.Errorf("report = %+v", got)
	}
	if diff := cmp.Diff(testReport("r1").Spec, got.Spec); diff != "" {
		t.Errorf("spec mismatch (-want +got):\n%s", diff)
	}

	if err := UpdateReportStatus("r1", model.StatusCompleted); err != nil {
		t.Fatalf("UpdateReportStatus: %v", err)
	}
	list, err := ListReports()
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(list) != 1 || list[0].Status != model.StatusCompleted {
		t.Errorf("list = %+v", list)
	}

	if err := DeleteReport("r1"); err != nil {
		t.Fatalf("DeleteReport: %v", err)
	}
	if _, err := GetReport("r1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetReport after delete: err = %v", err)
	}
	if err := DeleteReport("r1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: err = %v", err)
	}
}

func TestUpdateMissingReport(t *testing.T) {
	openTestDB(t)
	if err := UpdateReportStatus("nope", model.StatusFailed); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestReportResultRoundTrip(t *testing.T) {
	openTestDB(t)
	if err := SaveReport(testReport("r2")); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	result := &model.Result{
		Data: []*model.PivotRow{
			{ID: "a", Cells: model.NewRecord("region", "N", "Q1__qty", 10, "Q2__qty", nil)},
			{ID: "t", IsGrandTotal: true, Cells: model.NewRecord("region", "Grand Total", "Q1__qty", 10, "Q2__qty", nil)},
		},
		Metadata: model.Metadata{RowCount: 2, ColumnCount: 2, UniqueValues: map[string][]string{"quarter": {"Q1", "Q2"}}},
		Config:   testReport("r2").Spec.Pivot,
	}
	metrics := model.ReportMetrics{RowsIngested: 3, RowsProduced: 2}

	if err := SaveReportResult("r2", result, metrics); err != nil {
		t.Fatalf("SaveReportResult: %v", err)
	}
	gotResult, gotMetrics, err := GetReportResult("r2")
	if err != nil {
		t.Fatalf("GetReportResult: %v", err)
	}
	if diff := cmp.Diff(result, gotResult); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
	if gotMetrics.RowsIngested != 3 || gotMetrics.RowsProduced != 2 {
		t.Errorf("metrics = %+v", gotMetrics)
	}

	if _, _, err := GetReportResult("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing result: err = %v", err)
	}
}

func TestReportErrors(t *testing.T) {
	openTestDB(t)
	details := []model.ErrorDetail{
		{Stage: "ingest", Message: "open sales.csv: no such file"},
		{Stage: "transform", Field: "valueFields[0].aggregation", Message: "unknown aggregation"},
	}
	for _, d := range details {
		if err := SaveReportError("r3", d); err != nil {
			t.Fatalf("SaveReportError: %v", err)
		}
	}

	got, err := GetReportErrors("r3")
	if err != nil {
		t.Fatalf("GetReportErrors: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d errors, want 2", len(got))
	}
	if got[1].Field != "valueFields[0].aggregation" || got[0].Stage != "ingest" || got[0].Timestamp.IsZero() {
		t.Errorf("errors = %+v", got)
	}

	if err := ClearReportErrors("r3"); err != nil {
		t.Fatalf("ClearReportErrors: %v", err)
	}
	if got, _ := GetReportErrors("r3"); len(got) != 0 {
		t.Errorf("errors after clear = %+v", got)
	}

	none, err := GetReportErrors("other")
	if err != nil || len(none) != 0 {
		t.Errorf("other report errors = %v, %v", none, err)
	}
}
