package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Bookkeeping keys emitted in the JSON form of a PivotRow.
const (
	KeyID            = "__id"
	KeyLevel         = "__level"
	KeyIsSubtotal    = "__isSubtotal"
	KeyIsColumnTotal = "__isColumnTotal"
	KeyIsGrandTotal  = "__isGrandTotal"
	KeyExpanded      = "__expanded"
	KeySubRows       = "subRows"
)

// PivotRow is one output row: row-field entries and aggregated cells in
// Cells, bookkeeping markers alongside, and children in hierarchical mode.
type PivotRow struct {
	ID            string
	Level         int
	IsSubtotal    bool
	IsColumnTotal bool
	IsGrandTotal  bool
	Expanded      bool
	Cells         Record
	SubRows       []*PivotRow
}

// IsTotal reports whether the row was synthesized by the totals engine.
func (r *PivotRow) IsTotal() bool {
	return r.IsColumnTotal || r.IsGrandTotal
}

// IsLeaf reports whether the row is a genuine data row: neither a subtotal
// nor a total.
func (r *PivotRow) IsLeaf() bool {
	return !r.IsSubtotal && !r.IsTotal()
}

// Flatten returns rows depth-first, parents before their children.
func Flatten(rows []*PivotRow) []*PivotRow {
	var out []*PivotRow
	var walk func([]*PivotRow)
	walk = func(level []*PivotRow) {
		for _, r := range level {
			out = append(out, r)
			walk(r.SubRows)
		}
	}
	walk(rows)
	return out
}

func (r *PivotRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := r.Cells.writeJSONFields(&buf, true); err != nil {
		return nil, err
	}
	if r.Cells.Len() > 0 {
		buf.WriteByte(',')
	}
	id, _ := json.Marshal(r.ID)
	fmt.Fprintf(&buf, `%q:%s,%q:%d,%q:%t,%q:%t,%q:%t`,
		KeyID, id,
		KeyLevel, r.Level,
		KeyIsSubtotal, r.IsSubtotal,
		KeyIsColumnTotal, r.IsColumnTotal,
		KeyIsGrandTotal, r.IsGrandTotal,
	)
	if r.Expanded {
		fmt.Fprintf(&buf, `,%q:true`, KeyExpanded)
	}
	if len(r.SubRows) > 0 {
		sub, err := json.Marshal(r.SubRows)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, `,%q:`, KeySubRows)
		buf.Write(sub)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the flattened form written by MarshalJSON, so stored
// results can be loaded back.
func (r *PivotRow) UnmarshalJSON(data []byte) error {
	var all Record
	if err := all.UnmarshalJSON(data); err != nil {
		return err
	}

	*r = PivotRow{}
	for _, key := range all.Keys() {
		v := all.Get(key)
		switch key {
		case KeyID:
			r.ID = v.String()
		case KeyLevel:
			f, _ := v.Float()
			r.Level = int(f)
		case KeyIsSubtotal:
			r.IsSubtotal = v.Interface() == true
		case KeyIsColumnTotal:
			r.IsColumnTotal = v.Interface() == true
		case KeyIsGrandTotal:
			r.IsGrandTotal = v.Interface() == true
		case KeyExpanded:
			r.Expanded = v.Interface() == true
		case KeySubRows:
			if v.IsNull() {
				continue
			}
			if err := json.Unmarshal([]byte(v.String()), &r.SubRows); err != nil {
				return fmt.Errorf("subRows: %w", err)
			}
		default:
			r.Cells.Set(key, v)
		}
	}
	return nil
}

func (r *PivotRow) String() string {
	return "PivotRow(" + r.ID + ", level " + strconv.Itoa(r.Level) + ", " + r.Cells.String() + ")"
}

// Metadata is the derived summary attached to every Result
type Metadata struct {
	RowCount     int                 `json:"rowCount"`
	ColumnCount  int                 `json:"columnCount"`
	UniqueValues map[string][]string `json:"uniqueValues"`
}

// Result is the engine's sole output type
type Result struct {
	Data     []*PivotRow `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Config   PivotConfig `json:"config"`
}
