package pivot

import (
	"strconv"

	"go-pivot-table/internal/model"
)

// ============================================================================
// HIERARCHICAL SUBTOTALS
// ============================================================================
// With more than one row field the leaf rows are nested under one subtotal
// row per distinct value of each leading row field. Parent cells are rolled
// up from the immediate children's cells, never from raw data, so an avg
// parent is an average of averages.
// ============================================================================

type leaf struct {
	row    *model.PivotRow
	values []string // row-field values, positional
}

// buildTree builds the leaf rows once and nests them by row field.
func (b *builder) buildTree(groups []group) []*model.PivotRow {
	leaves := make([]leaf, len(groups))
	for i, g := range groups {
		leaves[i] = leaf{row: b.buildRow(g), values: g.values}
	}
	return b.nest(leaves, 0, nil)
}

func (b *builder) nest(leaves []leaf, level int, path []string) []*model.PivotRow {
	if level == len(b.cfg.RowFields)-1 {
		out := make([]*model.PivotRow, len(leaves))
		for i, l := range leaves {
			l.row.Level = level
			out[i] = l.row
		}
		return out
	}

	var order []string
	buckets := make(map[string][]leaf)
	for _, l := range leaves {
		v := l.values[level]
		if _, ok := buckets[v]; !ok {
			order = append(order, v)
		}
		buckets[v] = append(buckets[v], l)
	}

	field := b.cfg.RowFields[level]
	out := make([]*model.PivotRow, 0, len(order))
	for _, v := range order {
		childPath := append(path[:len(path):len(path)], v)
		children := b.nest(buckets[v], level+1, childPath)

		parent := &model.PivotRow{
			ID:         rowID(append([]string{"node", strconv.Itoa(level)}, childPath...)...),
			Level:      level,
			IsSubtotal: true,
			Expanded:   b.cfg.Options.ExpandedByDefault,
			SubRows:    children,
		}
		parent.Cells.Set(field, model.Text(v))
		b.rollUp(parent, children)
		out = append(out, parent)
	}
	return out
}

// rollUp fills a parent's cells from its children's cells.
func (b *builder) rollUp(parent *model.PivotRow, children []*model.PivotRow) {
	if len(children) == 0 {
		return
	}

	if !b.pivoted() {
		for _, vf := range b.cfg.ValueFields {
			label := vf.Label()
			values := make([]model.Value, len(children))
			for i, c := range children {
				values[i] = c.Cells.Get(label)
			}
			parent.Cells.Set(label, rollUpFunc(vf.Aggregation)(values))
		}
		return
	}

	// Pivoted cells no longer carry their aggregation kind; every cell key
	// of the first child is summed.
	for _, key := range children[0].Cells.Keys() {
		if model.IsInternalKey(key) || b.isRowField(key) {
			continue
		}
		total, numeric := 0.0, false
		for _, c := range children {
			if v := c.Cells.Get(key); v.IsNumber() {
				f, _ := v.Float()
				total += f
				numeric = true
			}
		}
		if numeric {
			parent.Cells.Set(key, model.Number(total))
		} else {
			parent.Cells.Set(key, model.Null())
		}
	}
}

// rollUpFunc combines already-aggregated values. sum and count add their
// parts; every other kind reapplies its own reduction.
func rollUpFunc(kind model.AggregationKind) AggregateFunc {
	if kind == model.AggCount {
		return sumValues
	}
	fn, err := AggregationOf(kind)
	if err != nil {
		return sumValues
	}
	return fn
}

func (b *builder) isRowField(key string) bool {
	for _, f := range b.cfg.RowFields {
		if f == key {
			return true
		}
	}
	return false
}
