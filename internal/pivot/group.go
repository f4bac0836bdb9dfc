package pivot

import (
	"sort"
	"strings"

	"go-pivot-table/internal/model"
)

// ============================================================================
// GROUPING
// ============================================================================
// Groups keep first-seen order; that order becomes output row order.
// Each group keeps its positional field values, so a value containing the
// key separator cannot corrupt the split.
// ============================================================================

// keySeparator joins field values into composite keys.
const keySeparator = "\x1f"

type group struct {
	key    string
	values []string
	rows   []model.Record
}

// groupRows partitions rows by their row-field tuple. With no fields every
// row falls into one implicit group.
func groupRows(rows []model.Record, fields []string) []group {
	index := make(map[string]int)
	groups := make([]group, 0)

	for _, r := range rows {
		key, values := compositeKey(r, fields)
		i, exists := index[key]
		if !exists {
			i = len(groups)
			index[key] = i
			groups = append(groups, group{key: key, values: values})
		}
		groups[i].rows = append(groups[i].rows, r)
	}
	return groups
}

// compositeKey string-coerces each field of r; missing fields become "".
func compositeKey(r model.Record, fields []string) (string, []string) {
	values := make([]string, len(fields))
	for i, f := range fields {
		values[i] = r.Get(f).String()
	}
	return strings.Join(values, keySeparator), values
}

// uniqueValues collects the distinct string values of each field across all
// rows, in first-seen order.
func uniqueValues(rows []model.Record, fields []string) map[string][]string {
	out := make(map[string][]string, len(fields))
	for _, f := range fields {
		seen := make(map[string]bool)
		values := make([]string, 0)
		for _, r := range rows {
			v := r.Get(f).String()
			if !seen[v] {
				seen[v] = true
				values = append(values, v)
			}
		}
		out[f] = values
	}
	return out
}

// sortedUniqueValues returns a lexicographically sorted copy for metadata.
func sortedUniqueValues(unique map[string][]string) map[string][]string {
	out := make(map[string][]string, len(unique))
	for f, values := range unique {
		sorted := make([]string, len(values))
		copy(sorted, values)
		sort.Strings(sorted)
		out[f] = sorted
	}
	return out
}
