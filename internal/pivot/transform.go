package pivot

import (
	"go-pivot-table/internal/model"
)

// Mode names the branch a transformation took.
type Mode string

const (
	ModeIdentity     Mode = "identity"
	ModeFlat         Mode = "flat"
	ModeHierarchical Mode = "hierarchical"
)

// ModeOf reports which builder handles cfg.
func ModeOf(cfg model.PivotConfig) Mode {
	switch {
	case len(cfg.RowFields) == 0 && len(cfg.ColumnFields) == 0:
		return ModeIdentity
	case len(cfg.RowFields) > 1:
		return ModeHierarchical
	default:
		return ModeFlat
	}
}

// Transform reshapes rows into a pivot table. The config is validated before
// any row is read; rows are never modified. Equal inputs give equal results.
func Transform(rows []model.Record, cfg model.PivotConfig) (*model.Result, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	result := &model.Result{
		Data:     []*model.PivotRow{},
		Metadata: model.Metadata{UniqueValues: map[string][]string{}},
		Config:   cfg,
	}
	if len(rows) == 0 {
		return result, nil
	}

	unique := uniqueValues(rows, cfg.ColumnFields)
	b, err := newBuilder(cfg, unique)
	if err != nil {
		return nil, err
	}

	var data []*model.PivotRow
	switch ModeOf(cfg) {
	case ModeIdentity:
		data = passthrough(rows)
	case ModeHierarchical:
		data = b.buildTree(groupRows(rows, cfg.RowFields))
	default:
		data = b.buildFlat(groupRows(rows, cfg.RowFields))
	}
	result.Data = b.applyTotals(data)

	result.Metadata.RowCount = len(result.Data)
	result.Metadata.UniqueValues = sortedUniqueValues(unique)
	switch {
	case ModeOf(cfg) == ModeIdentity:
		result.Metadata.ColumnCount = rows[0].Len()
	case b.pivoted():
		result.Metadata.ColumnCount = len(b.combos) * len(cfg.ValueFields)
	default:
		result.Metadata.ColumnCount = len(cfg.ValueFields)
	}
	return result, nil
}
