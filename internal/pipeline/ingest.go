package pipeline

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"go-pivot-table/internal/metrics"
	"go-pivot-table/internal/model"
	"go-pivot-table/pkg/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/sync/errgroup"
)

// ------------------- Ingestion -------------------

// Loader reads report sources into raw rows
type Loader struct {
	Client  *http.Client
	Retry   RetryConfig
	Metrics *metrics.Registry
}

// NewLoader returns a loader with the default retry policy
func NewLoader(reg *metrics.Registry) *Loader {
	return &Loader{
		Client:  http.DefaultClient,
		Retry:   DefaultRetryConfig,
		Metrics: reg,
	}
}

// LoadSources loads all sources in parallel. Rows are concatenated in
// source declaration order; the first failing source cancels the rest.
func (l *Loader) LoadSources(ctx context.Context, sources []model.Source) ([]model.Record, error) {
	loaded := make([][]model.Record, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			rows, err := l.LoadSource(gctx, src)
			if err != nil {
				return err
			}
			loaded[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []model.Record
	for _, rows := range loaded {
		all = append(all, rows...)
	}
	return all, nil
}

// LoadSource loads a single source (CSV/JSON/API/SQL), retrying transient
// failures.
func (l *Loader) LoadSource(ctx context.Context, source model.Source) ([]model.Record, error) {
	progress.Printf("➡️ Starting ingestion for source: %s (%s)\n", source.URL, source.Type)

	var rows []model.Record
	err := withRetry(ctx, l.Retry, "ingest "+source.URL, func() error {
		var err error
		rows, err = l.load(ctx, source)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", source.URL, err)
	}

	l.Metrics.RowsIngested(strings.ToLower(source.Type), len(rows))
	progress.Printf("✅ Finished ingestion for source: %s (%d records)\n", source.URL, len(rows))
	return rows, nil
}

func (l *Loader) load(ctx context.Context, source model.Source) ([]model.Record, error) {
	switch strings.ToLower(source.Type) {
	case "csv":
		return l.readWith(ctx, source.URL, DecodeCSV)
	case "json", "api":
		return l.readWith(ctx, source.URL, DecodeJSON)
	case "sql":
		return querySQL(ctx, source)
	default:
		return nil, permanent(fmt.Errorf("unknown source type: %s", source.Type))
	}
}

func (l *Loader) readWith(ctx context.Context, pathOrURL string, decode func(io.Reader) ([]model.Record, error)) ([]model.Record, error) {
	body, err := l.open(ctx, pathOrURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	rows, err := decode(body)
	if err != nil {
		return nil, permanent(err)
	}
	return rows, nil
}

// open returns the body of an http(s) URL or a local file
func (l *Loader) open(ctx context.Context, pathOrURL string) (io.ReadCloser, error) {
	if !strings.HasPrefix(pathOrURL, "http://") && !strings.HasPrefix(pathOrURL, "https://") {
		file, err := os.Open(pathOrURL)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, permanent(err)
		}
		return file, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pathOrURL, nil)
	if err != nil {
		return nil, permanent(fmt.Errorf("invalid url: %w", err))
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to GET %s: %w", pathOrURL, err)
	}
	if resp.StatusCode >= 300 {
		resp.Body.Close()
		err := fmt.Errorf("GET %s: unexpected status %s", pathOrURL, resp.Status)
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, permanent(err)
		}
		return nil, err
	}
	return resp.Body, nil
}

// ------------------- CSV -------------------

// DecodeCSV reads a header row followed by data rows. Cells are typed with
// utils.ParseValue; short rows leave the missing trailing fields null.
func DecodeCSV(r io.Reader) ([]model.Record, error) {
	csvReader := csv.NewReader(r)
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	headers, err := csvReader.Read()
	if err == io.EOF {
		return []model.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i, h := range headers {
		// Clean header names: trim whitespace and remove ALL quotes
		h = strings.TrimPrefix(h, "\ufeff")
		headers[i] = strings.ReplaceAll(strings.TrimSpace(h), `"`, "")
	}

	rows := make([]model.Record, 0)
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("CSV read error: %w", err)
		}

		var rec model.Record
		for i, h := range headers {
			if i < len(record) {
				rec.Set(h, utils.ParseValue(record[i]))
			} else {
				rec.Set(h, model.Null())
			}
		}
		rows = append(rows, rec)
	}
}

// ------------------- JSON / API -------------------

// DecodeJSON accepts an array of objects or a single object. Array elements
// that are not objects are skipped.
func DecodeJSON(r io.Reader) ([]model.Record, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}

	switch first := firstByte(raw); first {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("failed to decode JSON: %w", err)
		}
		rows := make([]model.Record, 0, len(items))
		for _, item := range items {
			if firstByte(item) != '{' {
				continue
			}
			var rec model.Record
			if err := json.Unmarshal(item, &rec); err != nil {
				return nil, fmt.Errorf("failed to decode JSON row: %w", err)
			}
			rows = append(rows, rec)
		}
		return rows, nil
	case '{':
		var rec model.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode JSON: %w", err)
		}
		return []model.Record{rec}, nil
	default:
		return nil, fmt.Errorf("unexpected JSON structure")
	}
}

func firstByte(raw []byte) byte {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b
	}
	return 0
}

// ------------------- SQL -------------------

// sqlDriver maps the driver names accepted in a spec to registered drivers
func sqlDriver(name string) (string, error) {
	switch strings.ToLower(name) {
	case "sqlite3", "sqlite":
		return "sqlite3", nil
	case "pgx", "postgres", "postgresql":
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported sql driver: %q", name)
	}
}

func querySQL(ctx context.Context, source model.Source) ([]model.Record, error) {
	driver, err := sqlDriver(source.Driver)
	if err != nil {
		return nil, permanent(err)
	}

	conn, err := sql.Open(driver, source.URL)
	if err != nil {
		return nil, permanent(fmt.Errorf("open %s: %w", driver, err))
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, source.Query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	records := make([]model.Record, 0)
	values := make([]any, len(columns))
	targets := make([]any, len(columns))
	for i := range values {
		targets[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		var rec model.Record
		for i, col := range columns {
			rec.Set(col, model.FromInterface(values[i]))
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
