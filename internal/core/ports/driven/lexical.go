package driven

import (
	"context"

	"github.com/caravel-labs/rosterqa/internal/core/domain"
)

// LexicalIndex answers term-frequency queries over one corpus generation.
// Indexes are immutable once built; a corpus rebuild constructs a fresh one
// through the builder rather than mutating in place.
type LexicalIndex interface {
	// Search scores documents against the query text and returns at most
	// limit hits, best first. No term overlap yields an empty slice, not
	// an error.
	Search(ctx context.Context, query string, limit int) ([]LexicalHit, error)

	// Len returns the number of indexed documents.
	Len() int
}

// LexicalIndexBuilder constructs a LexicalIndex from a generation's
// documents.
type LexicalIndexBuilder interface {
	Build(ctx context.Context, docs []domain.Document) (LexicalIndex, error)
}

// LexicalHit is one scored lexical result.
type LexicalHit struct {
	// Ref is the matched message id.
	Ref string

	// Seq is the corpus-order position of the match.
	Seq int

	// Score is the raw relevance score (BM25).
	Score float64
}
