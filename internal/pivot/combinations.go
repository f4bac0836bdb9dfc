package pivot

// generateCombinations returns the cartesian product of the unique values of
// fields, preserving field order within a combination and first-seen value
// order within a field. With no fields the single combination is empty.
func generateCombinations(fields []string, unique map[string][]string) [][]string {
	if len(fields) == 0 {
		return [][]string{{}}
	}

	rest := generateCombinations(fields[1:], unique)
	head := unique[fields[0]]
	out := make([][]string, 0, len(head)*len(rest))
	for _, v := range head {
		for _, tail := range rest {
			combo := make([]string, 0, len(fields))
			combo = append(combo, v)
			combo = append(combo, tail...)
			out = append(out, combo)
		}
	}
	return out
}
