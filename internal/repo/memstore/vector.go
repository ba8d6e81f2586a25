package memstore

import (
	"cmp"
	"math"
	"slices"

	"github.com/xxxsen/mreply/internal/model"
)

// Cosine returns the cosine similarity of a and b, or 0 when either is a
// zero vector or their lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

type scored[T any] struct {
	match model.RetrievedMatch[T]
	ctime int64
}

// nearest scores every candidate, keeps those above threshold and orders
// them by similarity then recency, mirroring the SQL query.
func nearest[T any](items []T, vec []float32, threshold float64, limit int, embedding func(T) []float32, ctime func(T) int64) []model.RetrievedMatch[T] {
	if limit <= 0 {
		return []model.RetrievedMatch[T]{}
	}
	hits := make([]scored[T], 0, len(items))
	for _, item := range items {
		sim := Cosine(embedding(item), vec)
		if sim <= threshold {
			continue
		}
		hits = append(hits, scored[T]{
			match: model.RetrievedMatch[T]{Record: item, Similarity: min(sim, 1)},
			ctime: ctime(item),
		})
	}
	slices.SortStableFunc(hits, func(a, b scored[T]) int {
		if c := cmp.Compare(b.match.Similarity, a.match.Similarity); c != 0 {
			return c
		}
		return cmp.Compare(b.ctime, a.ctime)
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]model.RetrievedMatch[T], len(hits))
	for i, h := range hits {
		out[i] = h.match
	}
	return out
}
