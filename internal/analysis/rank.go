package analysis

import (
	"cmp"
	"slices"
)

type Ranked[T cmp.Ordered] struct {
	Item  T   `json:"item"`
	Count int `json:"count"`
}

// Rank counts items and returns the k most frequent, ordered by count
// descending and then by item ascending.
func Rank[T cmp.Ordered](items []T, k int) []Ranked[T] {
	if k <= 0 || len(items) == 0 {
		return nil
	}
	counts := make(map[T]int, len(items))
	for _, item := range items {
		counts[item]++
	}
	ranked := make([]Ranked[T], 0, len(counts))
	for item, count := range counts {
		ranked = append(ranked, Ranked[T]{Item: item, Count: count})
	}
	slices.SortFunc(ranked, func(a, b Ranked[T]) int {
		if a.Count != b.Count {
			return cmp.Compare(b.Count, a.Count)
		}
		return cmp.Compare(a.Item, b.Item)
	})
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

func TopK[T cmp.Ordered](items []T, k int) []T {
	ranked := Rank(items, k)
	if len(ranked) == 0 {
		return nil
	}
	out := make([]T, len(ranked))
	for i, r := range ranked {
		out[i] = r.Item
	}
	return out
}

// TopKMin is TopK restricted to items seen at least minCount times.
func TopKMin[T cmp.Ordered](items []T, k, minCount int) []T {
	if k <= 0 {
		return nil
	}
	ranked := Rank(items, len(items))
	out := make([]T, 0, k)
	for _, r := range ranked {
		if r.Count < minCount || len(out) >= k {
			break
		}
		out = append(out, r.Item)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
