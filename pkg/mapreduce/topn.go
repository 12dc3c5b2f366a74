package mapreduce

import "sort"

// KV is one aggregated entry.
type KV struct {
	Key   string
	Value float64
}

// Sorted returns the entries of totals ordered by value descending, then key ascending.
func Sorted(totals map[string]float64) []KV {
	ss := make([]KV, 0, len(totals))
	for k, v := range totals {
		ss = append(ss, KV{k, v})
	}

	sort.Slice(ss, func(i, j int) bool {
		if ss[i].Value != ss[j].Value {
			return ss[i].Value > ss[j].Value
		}
		return ss[i].Key < ss[j].Key
	})
	return ss
}

// TopN returns at most n entries of totals with the largest values.
func TopN(totals map[string]float64, n int) []KV {
	ss := Sorted(totals)

	limit := n
	if len(ss) < n {
		limit = len(ss)
	}
	if limit < 0 {
		limit = 0
	}
	return ss[:limit]
}
