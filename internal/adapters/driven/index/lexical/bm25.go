// Package lexical provides an in-memory inverted index with BM25 scoring.
// It replaces a full-text engine at the scale this corpus runs at (tens to
// low thousands of short messages).
package lexical

import (
	"context"
	"math"
	"sort"

	"github.com/caravel-labs/rosterqa/internal/core/domain"
	"github.com/caravel-labs/rosterqa/internal/core/ports/driven"
)

// BM25 constants. Standard values; not tuned per corpus.
const (
	k1 = 1.5
	b  = 0.75
)

// Ensure the index implements the port.
var _ driven.LexicalIndex = (*Index)(nil)
var _ driven.LexicalIndexBuilder = Builder{}

// posting records one document's term frequency for a term.
type posting struct {
	doc int // position in the docs slice (corpus order)
	tf  int
}

// Index is an immutable BM25 index over one generation's documents.
type Index struct {
	refs     []string
	seqs     []int
	lengths  []int
	postings map[string][]posting
	avgLen   float64
}

// Builder constructs lexical indexes.
type Builder struct{}

// NewBuilder returns a builder for in-memory BM25 indexes.
func NewBuilder() Builder {
	return Builder{}
}

// Build indexes the documents. Documents must be in corpus order; ties in
// query scores are broken by that order.
func (Builder) Build(_ context.Context, docs []domain.Document) (driven.LexicalIndex, error) {
	idx := &Index{
		refs:     make([]string, len(docs)),
		seqs:     make([]int, len(docs)),
		lengths:  make([]int, len(docs)),
		postings: make(map[string][]posting),
	}

	total := 0
	for i, doc := range docs {
		idx.refs[i] = doc.Ref
		idx.seqs[i] = doc.Seq
		idx.lengths[i] = len(doc.Tokens)
		total += len(doc.Tokens)

		tf := make(map[string]int, len(doc.Tokens))
		for _, tok := range doc.Tokens {
			tf[tok]++
		}
		for term, n := range tf {
			idx.postings[term] = append(idx.postings[term], posting{doc: i, tf: n})
		}
	}

	if len(docs) > 0 {
		idx.avgLen = float64(total) / float64(len(docs))
	}
	return idx, nil
}

// Len returns the number of indexed documents.
func (x *Index) Len() int {
	return len(x.refs)
}

// Search scores documents with BM25 and returns at most limit hits, best
// first. Queries with no term overlap return an empty slice.
func (x *Index) Search(_ context.Context, query string, limit int) ([]driven.LexicalHit, error) {
	if limit <= 0 || len(x.refs) == 0 {
		return []driven.LexicalHit{}, nil
	}

	scores := make(map[int]float64)
	for _, term := range domain.Tokenize(query) {
		plist, ok := x.postings[term]
		if !ok {
			continue
		}
		idf := x.idf(len(plist))
		for _, p := range plist {
			norm := 1 - b + b*float64(x.lengths[p.doc])/x.avgLen
			tf := float64(p.tf)
			scores[p.doc] += idf * (tf * (k1 + 1)) / (tf + k1*norm)
		}
	}

	if len(scores) == 0 {
		return []driven.LexicalHit{}, nil
	}

	hits := make([]driven.LexicalHit, 0, len(scores))
	for doc, score := range scores {
		hits = append(hits, driven.LexicalHit{Ref: x.refs[doc], Seq: x.seqs[doc], Score: score})
	}

	// Highest score first; equal scores keep corpus order.
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Seq < hits[j].Seq
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// idf is the BM25 inverse document frequency for a term appearing in df of
// the indexed documents. Always positive with this formulation.
func (x *Index) idf(df int) float64 {
	n := float64(len(x.refs))
	return math.Log(1 + (n-float64(df)+0.5)/(float64(df)+0.5))
}
