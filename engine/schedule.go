package engine

import "sort"

// SortPins performs a stable two-key sort: time ascending, then
// priority ascending. sort.SliceStable is used because ties in both
// keys must preserve input order; the comparator below uses strict <
// throughout, never <=, since a non-strict comparator makes the
// ordering ill-defined under sort.SliceStable's contract.
func SortPins(pins []*Pin) {
	sort.SliceStable(pins, func(i, j int) bool {
		a, b := pins[i], pins[j]
		if a.TimeMS != b.TimeMS {
			return a.TimeMS < b.TimeMS
		}
		return a.Priority < b.Priority
	})
}
