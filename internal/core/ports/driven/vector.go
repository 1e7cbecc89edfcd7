package driven

import (
	"context"

	"github.com/caravel-labs/rosterqa/internal/core/domain"
)

// VectorIndex answers nearest-neighbour queries over one corpus
// generation's embeddings. Exact search is sufficient at this corpus scale;
// approximate indexing is an optimisation, not a requirement.
type VectorIndex interface {
	// Search finds the k nearest neighbours to the query vector, best
	// first. Scores are cosine similarity.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Len returns the number of indexed vectors.
	Len() int
}

// VectorIndexBuilder constructs a VectorIndex from a generation's
// documents. Every document must carry an embedding of the same dimension.
type VectorIndexBuilder interface {
	Build(ctx context.Context, docs []domain.Document) (VectorIndex, error)
}

// VectorHit is one similarity search result.
type VectorHit struct {
	// Ref is the matched message id.
	Ref string

	// Seq is the corpus-order position of the match.
	Seq int

	// Similarity is the cosine similarity score.
	Similarity float64
}
