package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"go-pivot-table/internal/api/handler"
	"go-pivot-table/internal/metrics"
	"go-pivot-table/internal/model"
	"go-pivot-table/internal/pipeline"
	"go-pivot-table/internal/pivot"
	"go-pivot-table/internal/store"
	"go-pivot-table/pkg/router"
	"go-pivot-table/pkg/utils"
)

const salesSpec = `{
	"name": "sales by region",
	"rows": [
		{"region": "North", "quarter": "Q1", "sales": 100},
		{"region": "North", "quarter": "Q2", "sales": 150},
		{"region": "South", "quarter": "Q1", "sales": 80}
	],
	"pivot": {
		"rowFields": ["region"],
		"columnFields": ["quarter"],
		"valueFields": [{"field": "sales", "aggregation": "sum"}],
		"options": {"showGrandTotal": true}
	}
}`

type testServer struct {
	router  *router.Router
	handler *handler.PivotHandler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	if err := store.InitDB(filepath.Join(t.TempDir(), "reports.db")); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	reg, err := metrics.New()
	if err != nil {
		t.Fatalf("metrics.New: %v", err)
	}
	cache, err := pivot.NewCache(pivot.DefaultCacheSize)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	p := pipeline.New(pivot.NewEngine(cache), reg, utils.NewOutputManager(t.TempDir()))
	h := handler.NewPivotHandler(p)

	r := router.New()
	RegisterRoutes(r, h, reg)
	return &testServer{router: r, handler: h}
}

func (s *testServer) do(method, path, body string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestReportLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := s.do("POST", "/api/v1/pivots?wait=true", salesSpec)
	if rec.Code != http.StatusOK {
		t.Fatalf("create: status %d: %s", rec.Code, rec.Body)
	}
	created := decode(t, rec)
	id, _ := created["reportID"].(string)
	if id == "" || created["status"] != model.StatusCompleted {
		t.Fatalf("create body = %v", created)
	}

	rec = s.do("GET", "/api/v1/pivots/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status %d", rec.Code)
	}
	got := decode(t, rec)
	if _, ok := got["result"]; !ok {
		t.Errorf("get body has no result: %v", got)
	}

	rec = s.do("GET", "/api/v1/pivots", "")
	var list []model.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil || len(list) != 1 || list[0].ID != id {
		t.Errorf("list = %s (%v)", rec.Body, err)
	}

	rec = s.do("GET", "/api/v1/pivots/"+id+"/export", "")
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv") {
		t.Fatalf("export csv: status %d, type %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	wantCSV := "region,Q1__sales,Q2__sales\nNorth,100,150\nSouth,80,\nGrand Total,180,150\n"
	if diff := cmp.Diff(wantCSV, rec.Body.String()); diff != "" {
		t.Errorf("csv mismatch (-want +got):\n%s", diff)
	}
	etag := rec.Header().Get("ETag")
	if etag != `"`+pipeline.Digest([]byte(wantCSV))+`"` {
		t.Errorf("ETag = %s", etag)
	}
	if rec := s.do("GET", "/api/v1/pivots/"+id+"/export", "", "If-None-Match", etag); rec.Code != http.StatusNotModified {
		t.Errorf("conditional export: status %d, want 304", rec.Code)
	}

	rec = s.do("GET", "/api/v1/pivots/"+id+"/export?format=json", "")
	var rows []*model.PivotRow
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil || len(rows) != 3 || !rows[2].IsGrandTotal {
		t.Errorf("json export = %s (%v)", rec.Body, err)
	}
	if rec := s.do("GET", "/api/v1/pivots/"+id+"/export?format=xlsx", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("xlsx export: status %d, want 400", rec.Code)
	}

	rec = s.do("GET", "/api/v1/pivots/"+id+"/errors", "")
	if body := decode(t, rec); body["count"] != 0.0 {
		t.Errorf("errors body = %v", body)
	}

	if rec := s.do("DELETE", "/api/v1/pivots/"+id, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", rec.Code)
	}
	if rec := s.do("GET", "/api/v1/pivots/"+id, ""); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: status %d, want 404", rec.Code)
	}
	if rec := s.do("GET", "/api/v1/pivots/"+id+"/export", ""); rec.Code != http.StatusNotFound {
		t.Errorf("export after delete: status %d, want 404", rec.Code)
	}
}

func TestCreateRejectsInvalidSpecs(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name, body, field string
	}{
		{"bad json", `{"name":`, ""},
		{"no value fields", `{"rows":[{"a":1}],"pivot":{"rowFields":["a"]}}`, "valueFields"},
		{"unknown aggregation", `{"rows":[{"a":1}],"pivot":{"valueFields":[{"field":"a","aggregation":"mode"}]}}`, "valueFields[0].aggregation"},
		{"no data", `{"pivot":{"valueFields":[{"field":"a","aggregation":"sum"}]}}`, ""},
		{"bad source", `{"sources":[{"type":"xml","url":"a.xml"}],"pivot":{"valueFields":[{"field":"a","aggregation":"sum"}]}}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do("POST", "/api/v1/pivots", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status %d, want 400: %s", rec.Code, rec.Body)
			}
			if tt.field != "" {
				if body := decode(t, rec); body["field"] != tt.field {
					t.Errorf("field = %v, want %s", body["field"], tt.field)
				}
			}
		})
	}

	if rec := s.do("GET", "/api/v1/pivots", ""); rec.Body.String() != "[]\n" {
		t.Errorf("rejected specs were stored: %s", rec.Body)
	}
}

func TestCreateRunsInBackground(t *testing.T) {
	s := newTestServer(t)

	rec := s.do("POST", "/api/v1/pivots", salesSpec)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status %d, want 202", rec.Code)
	}
	body := decode(t, rec)
	id := body["reportID"].(string)
	if body["configHash"] == "" {
		t.Error("missing configHash")
	}

	s.handler.Wait()
	report, err := store.GetReport(id)
	if err != nil || report.Status != model.StatusCompleted {
		t.Errorf("report = %+v, %v", report, err)
	}
}

func TestRerun(t *testing.T) {
	s := newTestServer(t)
	csvPath := filepath.Join(t.TempDir(), "sales.csv")

	spec := `{"sources":[{"type":"csv","url":"` + filepath.ToSlash(csvPath) + `"}],
		"pivot":{"rowFields":["region"],"valueFields":[{"field":"sales","aggregation":"sum"}]}}`
	rec := s.do("POST", "/api/v1/pivots?wait=true", spec)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("run with missing file: status %d", rec.Code)
	}
	id := decode(t, rec)["reportID"].(string)

	rec = s.do("GET", "/api/v1/pivots/"+id+"/errors", "")
	if body := decode(t, rec); body["count"] != 1.0 {
		t.Errorf("errors = %v", body)
	}

	if err := os.WriteFile(csvPath, []byte("region,sales\nNorth,5\nNorth,7\n"), 0644); err != nil {
		t.Fatal(err)
	}
	rec = s.do("POST", "/api/v1/pivots/"+id+"/rerun?wait=true", "")
	if rec.Code != http.StatusOK || decode(t, rec)["status"] != model.StatusCompleted {
		t.Fatalf("rerun: status %d: %s", rec.Code, rec.Body)
	}

	if rec := s.do("POST", "/api/v1/pivots/missing/rerun?wait=true", ""); rec.Code != http.StatusNotFound {
		t.Errorf("rerun missing: status %d, want 404", rec.Code)
	}
}

func TestEngineEndpoints(t *testing.T) {
	s := newTestServer(t)
	body := `{"rows":[{"region":"N","sales":1},{"region":"N","sales":2}],
		"config":{"rowFields":["region"],"valueFields":[{"field":"sales","aggregation":"avg"}]}}`

	first := s.do("POST", "/api/v1/transform", body)
	second := s.do("POST", "/api/v1/transform", body)
	if first.Code != http.StatusOK || first.Header().Get("X-Cache") != "MISS" || second.Header().Get("X-Cache") != "HIT" {
		t.Errorf("transform: %d %s then %s", first.Code, first.Header().Get("X-Cache"), second.Header().Get("X-Cache"))
	}
	var result model.Result
	if err := json.Unmarshal(first.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if len(result.Data) != 1 || !result.Data[0].Cells.Get("sales").Equal(model.Number(1.5)) {
		t.Errorf("result = %v", result.Data)
	}

	rec := s.do("POST", "/api/v1/transform", `{"rows":[],"config":{"valueFields":[]}}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid config: status %d, want 400", rec.Code)
	}

	rec = s.do("POST", "/api/v1/fields", `{"rows":[{"unit_price":2.5,"region":"N"}]}`)
	var fields []pivot.Field
	if err := json.Unmarshal(rec.Body.Bytes(), &fields); err != nil {
		t.Fatalf("decode fields: %v", err)
	}
	want := []pivot.Field{
		{Name: "unit_price", Label: "Unit Price", Type: pivot.FieldNumber},
		{Name: "region", Label: "Region", Type: pivot.FieldString},
	}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}

	cfg := `{"rowFields":["region"],"valueFields":[{"field":"sales","aggregation":"sum"}]}`
	rec = s.do("POST", "/api/v1/hash", cfg)
	var parsed model.PivotConfig
	json.Unmarshal([]byte(cfg), &parsed)
	if got := decode(t, rec); got["hash"] != pivot.ConfigHash(parsed) || got["mode"] != "flat" {
		t.Errorf("hash body = %v", got)
	}

	rec = s.do("GET", "/metrics", "")
	if !strings.Contains(rec.Body.String(), `pivot_cache_lookups_total{result="hit"} 1`) {
		t.Errorf("metrics missing cache hit:\n%s", rec.Body)
	}
}
