// Package vector provides an in-memory exact nearest-neighbour index over
// unit-normalised embeddings. Exact search is deliberate: at tens to low
// thousands of messages a linear scan beats the constant factors of an
// approximate structure and stays fully deterministic.
package vector

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/caravel-labs/rosterqa/internal/core/domain"
	"github.com/caravel-labs/rosterqa/internal/core/ports/driven"
)

// Ensure the index implements the port.
var _ driven.VectorIndex = (*Index)(nil)
var _ driven.VectorIndexBuilder = Builder{}

type entry struct {
	ref string
	seq int
	vec []float32 // unit norm
}

// Index is an immutable cosine-similarity index over one generation.
type Index struct {
	entries []entry
	dims    int
}

// Builder constructs vector indexes.
type Builder struct{}

// NewBuilder returns a builder for in-memory exact NN indexes.
func NewBuilder() Builder {
	return Builder{}
}

// Build indexes the documents' embeddings. All embeddings must share one
// dimension; documents without an embedding are rejected.
func (Builder) Build(_ context.Context, docs []domain.Document) (driven.VectorIndex, error) {
	idx := &Index{entries: make([]entry, 0, len(docs))}
	for _, doc := range docs {
		if len(doc.Embedding) == 0 {
			return nil, fmt.Errorf("document %s: %w", doc.Ref, domain.ErrDimensionMismatch)
		}
		if idx.dims == 0 {
			idx.dims = len(doc.Embedding)
		} else if len(doc.Embedding) != idx.dims {
			return nil, fmt.Errorf("document %s has %d dims, index has %d: %w",
				doc.Ref, len(doc.Embedding), idx.dims, domain.ErrDimensionMismatch)
		}
		idx.entries = append(idx.entries, entry{ref: doc.Ref, seq: doc.Seq, vec: normalize(doc.Embedding)})
	}
	return idx, nil
}

// Len returns the number of indexed vectors.
func (x *Index) Len() int {
	return len(x.entries)
}

// Search returns the k most similar entries by cosine similarity, best
// first, ties broken by corpus order.
func (x *Index) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if k <= 0 || len(x.entries) == 0 {
		return []driven.VectorHit{}, nil
	}
	if len(query) != x.dims {
		return nil, fmt.Errorf("query has %d dims, index has %d: %w",
			len(query), x.dims, domain.ErrDimensionMismatch)
	}

	q := normalize(query)
	hits := make([]driven.VectorHit, len(x.entries))
	for i, e := range x.entries {
		hits[i] = driven.VectorHit{Ref: e.ref, Seq: e.seq, Similarity: dot(q, e.vec)}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].Seq < hits[j].Seq
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	n := math.Sqrt(sum)
	if n == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(float64(f) / n)
	}
	return out
}
