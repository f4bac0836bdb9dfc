package pivot

import (
	"strings"

	"go-pivot-table/internal/model"
)

// ============================================================================
// TOTALS
// ============================================================================
// Row totals combine a row's own per-combination cells. Column and grand
// totals are plain sums down the leaf data rows; subtotal rows and other
// total rows never feed them.
// ============================================================================

const (
	ColumnTotalLabel = "Total"
	GrandTotalLabel  = "Grand Total"
)

// applyTotals appends the totals enabled in the options. A result without
// rows is returned unchanged.
func (b *builder) applyTotals(rows []*model.PivotRow) []*model.PivotRow {
	if len(rows) == 0 {
		return rows
	}
	opts := b.cfg.Options

	if opts.ShowRowTotals && b.pivoted() {
		for _, r := range model.Flatten(rows) {
			b.addRowTotals(r)
		}
	}
	if !opts.ShowColumnTotals && !opts.ShowGrandTotal {
		return rows
	}

	var leaves []*model.PivotRow
	for _, r := range model.Flatten(rows) {
		if r.IsLeaf() {
			leaves = append(leaves, r)
		}
	}

	if opts.ShowColumnTotals {
		total := b.summaryRow(leaves, ColumnTotalLabel)
		total.IsColumnTotal = true
		rows = append(rows, total)
	}
	if opts.ShowGrandTotal {
		total := b.summaryRow(leaves, GrandTotalLabel)
		total.IsGrandTotal = true
		rows = append(rows, total)
	}
	return rows
}

// addRowTotals stores one __total_<label> cell per value field.
func (b *builder) addRowTotals(r *model.PivotRow) {
	for _, vf := range b.cfg.ValueFields {
		label := vf.Label()
		cells := make([]model.Value, 0, len(b.combos))
		for _, combo := range b.combos {
			if v := r.Cells.Get(EncodeKey(combo, label)); !v.IsNull() {
				cells = append(cells, v)
			}
		}
		r.Cells.Set(TotalKey(label), rollUpFunc(vf.Aggregation)(cells))
	}
}

// summaryRow sums every numeric cell down the given rows. The first row
// field holds the sentinel label and the remaining row fields are empty.
// Without row fields the label goes under the first column field.
func (b *builder) summaryRow(rows []*model.PivotRow, label string) *model.PivotRow {
	total := &model.PivotRow{ID: rowID("total", label)}
	labelFields := b.cfg.RowFields
	if len(labelFields) == 0 && len(b.cfg.ColumnFields) > 0 {
		labelFields = b.cfg.ColumnFields[:1]
	}
	for i, f := range labelFields {
		if i == 0 {
			total.Cells.Set(f, model.Text(label))
			continue
		}
		total.Cells.Set(f, model.Text(""))
	}

	for _, key := range b.summableKeys(rows) {
		sum, numeric := 0.0, false
		for _, r := range rows {
			if v := r.Cells.Get(key); v.IsNumber() {
				f, _ := v.Float()
				sum += f
				numeric = true
			}
		}
		if numeric {
			total.Cells.Set(key, model.Number(sum))
		} else {
			total.Cells.Set(key, model.Null())
		}
	}
	return total
}

// summableKeys is the first-seen union of cell keys that a total may carry:
// everything except row fields and bookkeeping keys. Row-total cells are
// included.
func (b *builder) summableKeys(rows []*model.PivotRow) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, r := range rows {
		for _, key := range r.Cells.Keys() {
			if seen[key] || b.isRowField(key) {
				continue
			}
			if model.IsInternalKey(key) && !strings.HasPrefix(key, TotalKeyPrefix) {
				continue
			}
			seen[key] = true
			keys = append(keys, key)
		}
	}
	return keys
}
