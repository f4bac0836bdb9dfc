package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go-pivot-table/internal/model"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultWorkers is the transformation worker count when none is configured
const DefaultWorkers = 4

// Transformations lists the row clean-ups a report spec may name
var Transformations = []string{
	"trimStrings",
	"convertToLowercase",
	"convertToUppercase",
	"normalizeNames",
	"removeNulls",
}

// PrepareRows applies the spec's transformations to every row, then keeps
// the rows matching filters. Row order is preserved. Input rows are not
// modified.
func PrepareRows(ctx context.Context, rows []model.Record, transformations []string, filters map[string]any, workers int) ([]model.Record, error) {
	transformed, err := TransformRecords(ctx, rows, transformations, workers)
	if err != nil {
		return nil, err
	}
	return FilterRecords(transformed, filters), nil
}

// TransformRecords applies transformations with a bounded worker pool.
// Each worker owns a contiguous chunk so output order matches input order.
func TransformRecords(ctx context.Context, rows []model.Record, transformations []string, workers int) ([]model.Record, error) {
	out := make([]model.Record, len(rows))
	if len(transformations) == 0 {
		for i, r := range rows {
			out[i] = r.Clone()
		}
		return out, nil
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}

	chunk := (len(rows) + workers - 1) / workers
	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < len(rows); start += chunk {
		end := min(start+chunk, len(rows))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				rec, err := applyTransformations(rows[i], transformations)
				if err != nil {
					return fmt.Errorf("transformation failed: %w", err)
				}
				out[i] = rec
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	progress.Printf("🔄 Transformation Summary: %d records transformed\n", len(out))
	return out, nil
}

// applyTransformations applies all specified transformations to a copy of rec
func applyTransformations(rec model.Record, transformations []string) (model.Record, error) {
	result := rec.Clone()

	for _, transform := range transformations {
		switch transform {
		case "trimStrings":
			mapText(&result, strings.TrimSpace)
		case "convertToLowercase":
			mapText(&result, strings.ToLower)
		case "convertToUppercase":
			mapText(&result, strings.ToUpper)
		case "normalizeNames":
			normalizeNames(&result)
		case "removeNulls":
			removeNulls(&result)
		default:
			return model.Record{}, fmt.Errorf("unknown transformation: %s", transform)
		}
	}
	return result, nil
}

// mapText rewrites every text field
func mapText(rec *model.Record, fn func(string) string) {
	for _, key := range rec.Keys() {
		if v := rec.Get(key); v.Kind() == model.KindText {
			rec.Set(key, model.Text(fn(v.String())))
		}
	}
}

// normalizeNames title-cases text in name-like fields
func normalizeNames(rec *model.Record) {
	caser := cases.Title(language.Und)
	for _, key := range rec.Keys() {
		v := rec.Get(key)
		if v.Kind() != model.KindText || !isNameLikeField(strings.ToLower(key)) {
			continue
		}
		rec.Set(key, model.Text(caser.String(strings.ToLower(v.String()))))
	}
}

// isNameLikeField checks if a field name suggests it contains name-like data
func isNameLikeField(fieldName string) bool {
	namePatterns := []string{
		"name", "title", "label", "country", "location", "city", "state",
		"region", "category", "company", "department", "team",
	}
	for _, pattern := range namePatterns {
		if strings.Contains(fieldName, pattern) {
			return true
		}
	}
	return false
}

// removeNulls removes null values from the record
func removeNulls(rec *model.Record) {
	for _, key := range rec.Keys() {
		if rec.Get(key).IsNull() {
			rec.Delete(key)
		}
	}
}

// ------------------- Filters -------------------

// FilterRecords keeps rows matching every filter. A scalar filter value
// matches by text equality, a list matches any of its members. Missing
// fields compare as "".
func FilterRecords(rows []model.Record, filters map[string]any) []model.Record {
	if len(filters) == 0 {
		return rows
	}

	allowed := make(map[string]map[string]bool, len(filters))
	for field, want := range filters {
		set := make(map[string]bool)
		switch w := want.(type) {
		case []any:
			for _, item := range w {
				set[model.FromInterface(item).String()] = true
			}
		case []string:
			for _, item := range w {
				set[item] = true
			}
		default:
			set[model.FromInterface(w).String()] = true
		}
		allowed[field] = set
	}

	kept := make([]model.Record, 0, len(rows))
	for _, r := range rows {
		match := true
		for field, set := range allowed {
			if !set[r.Get(field).String()] {
				match = false
				break
			}
		}
		if match {
			kept = append(kept, r)
		}
	}
	progress.Printf("🔍 Filter Summary: %d of %d records kept\n", len(kept), len(rows))
	return kept
}
