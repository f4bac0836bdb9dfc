package pivot

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"go-pivot-table/internal/model"
)

// ============================================================================
// PIVOT ROW BUILDER
// ============================================================================
// One output row per group: row-field entries first, then one cell per
// value field (no column fields) or per combination × value field.
// ============================================================================

// rowNamespace seeds the deterministic row identifiers.
var rowNamespace = uuid.MustParse("6f1c9f4e-3a52-4b8e-9d0c-2f7a5e8b1c43")

// rowID derives a stable identifier from a row's position in the tree.
func rowID(parts ...string) string {
	return uuid.NewSHA1(rowNamespace, []byte(strings.Join(parts, keySeparator))).String()
}

// builder carries the resolved config shared by the flat and hierarchical
// builders and the totals engine.
type builder struct {
	cfg    model.PivotConfig
	funcs  []AggregateFunc // parallel to cfg.ValueFields
	combos [][]string      // nil without column fields
}

func newBuilder(cfg model.PivotConfig, unique map[string][]string) (*builder, error) {
	b := &builder{cfg: cfg, funcs: make([]AggregateFunc, len(cfg.ValueFields))}
	for i, vf := range cfg.ValueFields {
		fn, err := AggregationOf(vf.Aggregation)
		if err != nil {
			return nil, err
		}
		b.funcs[i] = fn
	}
	if len(cfg.ColumnFields) > 0 {
		b.combos = generateCombinations(cfg.ColumnFields, unique)
	}
	return b, nil
}

func (b *builder) pivoted() bool { return len(b.cfg.ColumnFields) > 0 }

// cellKeys lists every aggregated cell key in column order.
func (b *builder) cellKeys() []string {
	if !b.pivoted() {
		keys := make([]string, len(b.cfg.ValueFields))
		for i, vf := range b.cfg.ValueFields {
			keys[i] = vf.Label()
		}
		return keys
	}
	keys := make([]string, 0, len(b.combos)*len(b.cfg.ValueFields))
	for _, combo := range b.combos {
		for _, vf := range b.cfg.ValueFields {
			keys = append(keys, EncodeKey(combo, vf.Label()))
		}
	}
	return keys
}

// buildFlat produces one leaf row per group, in grouping order.
func (b *builder) buildFlat(groups []group) []*model.PivotRow {
	rows := make([]*model.PivotRow, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, b.buildRow(g))
	}
	return rows
}

func (b *builder) buildRow(g group) *model.PivotRow {
	row := &model.PivotRow{ID: rowID("leaf", g.key)}
	for i, f := range b.cfg.RowFields {
		row.Cells.Set(f, model.Text(g.values[i]))
	}

	if !b.pivoted() {
		for i, vf := range b.cfg.ValueFields {
			row.Cells.Set(vf.Label(), b.funcs[i](pluck(g.rows, vf.Field)))
		}
		return row
	}

	// Secondary index of the group's rows by their own column tuple.
	index := make(map[string][]model.Record)
	for _, r := range g.rows {
		key, _ := compositeKey(r, b.cfg.ColumnFields)
		index[key] = append(index[key], r)
	}

	for _, combo := range b.combos {
		subset := index[strings.Join(combo, keySeparator)]
		for i, vf := range b.cfg.ValueFields {
			key := EncodeKey(combo, vf.Label())
			if len(subset) == 0 {
				// Empty cells stay addressable.
				row.Cells.Set(key, model.Null())
				continue
			}
			row.Cells.Set(key, b.funcs[i](pluck(subset, vf.Field)))
		}
	}
	return row
}

// passthrough is the unpivoted identity transform used when there are
// neither row nor column fields.
func passthrough(rows []model.Record) []*model.PivotRow {
	out := make([]*model.PivotRow, len(rows))
	for i, r := range rows {
		out[i] = &model.PivotRow{ID: rowID("raw", strconv.Itoa(i)), Cells: r.Clone()}
	}
	return out
}
