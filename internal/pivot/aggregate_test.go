package pivot

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"go-pivot-table/internal/model"
)

func vals(xs ...any) []model.Value {
	out := make([]model.Value, len(xs))
	for i, x := range xs {
		out[i] = model.FromInterface(x)
	}
	return out
}

func TestAggregations(t *testing.T) {
	tests := []struct {
		name   string
		kind   model.AggregationKind
		values []model.Value
		want   model.Value
	}{
		{"sum empty", model.AggSum, nil, model.Number(0)},
		{"sum coerces non-numeric to zero", model.AggSum, vals(1, "x", nil, "2.5"), model.Number(3.5)},
		{"avg empty", model.AggAvg, nil, model.Number(0)},
		{"avg divides by input length", model.AggAvg, vals(4, nil, 2, "n/a"), model.Number(1.5)},
		{"count skips null", model.AggCount, vals(nil, 1, nil, 2), model.Number(2)},
		{"count is type agnostic", model.AggCount, vals("a", false, 0), model.Number(3)},
		{"min empty", model.AggMin, nil, model.Null()},
		{"min all non-numeric", model.AggMin, vals("a", nil), model.Null()},
		{"min", model.AggMin, vals(3, -1, "x", 2), model.Number(-1)},
		{"max string coercion", model.AggMax, vals("3", "1", "2"), model.Number(3)},
		{"median even", model.AggMedian, vals(1, 2, 3, 4), model.Number(2.5)},
		{"median odd unsorted", model.AggMedian, vals(9, 1, 5), model.Number(5)},
		{"median empty", model.AggMedian, vals("a"), model.Null()},
		{"first empty", model.AggFirst, nil, model.Null()},
		{"first verbatim", model.AggFirst, vals("7", 1), model.Text("7")},
		{"last", model.AggLast, vals(5), model.Number(5)},
		{"last keeps null", model.AggLast, vals(5, nil), model.Null()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := AggregationOf(tt.kind)
			if err != nil {
				t.Fatalf("AggregationOf(%q): %v", tt.kind, err)
			}
			got := fn(tt.values)
			if !got.Equal(tt.want) {
				t.Errorf("%s(%v) = %#v, want %#v", tt.kind, tt.values, got, tt.want)
			}
		})
	}
}

func TestAggregationOfUnknown(t *testing.T) {
	_, err := AggregationOf("mode")
	if !errors.Is(err, ErrUnknownAggregation) {
		t.Fatalf("err = %v, want ErrUnknownAggregation", err)
	}
}

func TestAggregationsListed(t *testing.T) {
	want := []model.AggregationKind{"avg", "count", "first", "last", "max", "median", "min", "sum"}
	if diff := cmp.Diff(want, Aggregations()); diff != "" {
		t.Errorf("Aggregations() mismatch (-want +got):\n%s", diff)
	}
}

func TestRollUpFunc(t *testing.T) {
	children := vals(2, 3, 5)
	tests := []struct {
		kind model.AggregationKind
		want float64
	}{
		{model.AggSum, 10},
		{model.AggCount, 10},
		{model.AggMin, 2},
		{model.AggMax, 5},
		{model.AggFirst, 2},
		{model.AggLast, 5},
	}
	for _, tt := range tests {
		got := rollUpFunc(tt.kind)(children)
		if !got.Equal(model.Number(tt.want)) {
			t.Errorf("rollUpFunc(%s) = %#v, want %v", tt.kind, got, tt.want)
		}
	}
}
