package pivot

import (
	"fmt"
	"sort"

	"go-pivot-table/internal/model"
)

// ============================================================================
// AGGREGATION REGISTRY
// ============================================================================
// A fixed set of named reductions over a sequence of scalar values.
// Numeric reductions coerce through Value.Float; first/last return the
// element verbatim.
// ============================================================================

// AggregateFunc reduces a sequence of values to one value (possibly Null).
type AggregateFunc func(values []model.Value) model.Value

var aggregations = map[model.AggregationKind]AggregateFunc{
	model.AggSum:    sumValues,
	model.AggAvg:    avgValues,
	model.AggCount:  countValues,
	model.AggMin:    minValues,
	model.AggMax:    maxValues,
	model.AggMedian: medianValues,
	model.AggFirst:  firstValue,
	model.AggLast:   lastValue,
}

// AggregationOf looks up an aggregation by name.
func AggregationOf(kind model.AggregationKind) (AggregateFunc, error) {
	fn, ok := aggregations[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAggregation, string(kind))
	}
	return fn, nil
}

// Aggregations returns the registered names in sorted order.
func Aggregations() []model.AggregationKind {
	kinds := make([]model.AggregationKind, 0, len(aggregations))
	for k := range aggregations {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// sumValues adds every element; non-numeric elements count as 0.
func sumValues(values []model.Value) model.Value {
	var total float64
	for _, v := range values {
		if f, ok := v.Float(); ok {
			total += f
		}
	}
	return model.Number(total)
}

// avgValues divides the sum by the input length, not by the count of
// numeric elements.
func avgValues(values []model.Value) model.Value {
	if len(values) == 0 {
		return model.Number(0)
	}
	total, _ := sumValues(values).Float()
	return model.Number(total / float64(len(values)))
}

func countValues(values []model.Value) model.Value {
	n := 0
	for _, v := range values {
		if !v.IsNull() {
			n++
		}
	}
	return model.Number(float64(n))
}

func minValues(values []model.Value) model.Value {
	nums := numericValues(values)
	if len(nums) == 0 {
		return model.Null()
	}
	m := nums[0]
	for _, f := range nums[1:] {
		if f < m {
			m = f
		}
	}
	return model.Number(m)
}

func maxValues(values []model.Value) model.Value {
	nums := numericValues(values)
	if len(nums) == 0 {
		return model.Null()
	}
	m := nums[0]
	for _, f := range nums[1:] {
		if f > m {
			m = f
		}
	}
	return model.Number(m)
}

func medianValues(values []model.Value) model.Value {
	nums := numericValues(values)
	if len(nums) == 0 {
		return model.Null()
	}
	sort.Float64s(nums)
	mid := len(nums) / 2
	if len(nums)%2 == 0 {
		return model.Number((nums[mid-1] + nums[mid]) / 2)
	}
	return model.Number(nums[mid])
}

func firstValue(values []model.Value) model.Value {
	if len(values) == 0 {
		return model.Null()
	}
	return values[0]
}

func lastValue(values []model.Value) model.Value {
	if len(values) == 0 {
		return model.Null()
	}
	return values[len(values)-1]
}

// numericValues coerces to float64 and drops elements without a numeric reading.
func numericValues(values []model.Value) []float64 {
	nums := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := v.Float(); ok {
			nums = append(nums, f)
		}
	}
	return nums
}

// pluck collects the values of one field across rows; missing fields are Null.
func pluck(rows []model.Record, field string) []model.Value {
	values := make([]model.Value, len(rows))
	for i, r := range rows {
		values[i] = r.Get(field)
	}
	return values
}
