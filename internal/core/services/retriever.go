package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/caravel-labs/rosterqa/internal/core/domain"
	"github.com/caravel-labs/rosterqa/internal/core/ports/driven"
	"github.com/caravel-labs/rosterqa/internal/logger"
)

// Retriever fuses lexical and dense rankings into one ordered candidate
// list. Weighted min-max fusion keeps every fused score in [0, 1] and
// makes the ranking fully deterministic, at the cost of behaving poorly
// when one ranker's score distribution is degenerate (all equal); the
// degenerate pool then contributes its full weight to every member.
type Retriever struct {
	embedder driven.EmbeddingService // optional
	settings domain.RetrievalSettings
}

// NewRetriever creates a hybrid retriever. The embedder may be nil, in
// which case the dense ranker contributes nothing.
func NewRetriever(embedder driven.EmbeddingService, settings domain.RetrievalSettings) (*Retriever, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("retrieval settings: %w", err)
	}
	return &Retriever{embedder: embedder, settings: settings}, nil
}

// retrieve runs both rankers over a generous recall pool, normalises each
// ranker's scores over its own pool, fuses, and truncates to k.
func (r *Retriever) retrieve(ctx context.Context, gen *generation, question string, k int) ([]domain.Candidate, error) {
	if k <= 0 {
		k = r.settings.TopK
	}
	pool := r.settings.PoolSize
	if k > pool {
		pool = k
	}

	logger.Section("Hybrid Retrieval")
	logger.Debug("Question: %q, k=%d, pool=%d", question, k, pool)

	lexHits, err := gen.lexical.Search(ctx, question, pool)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}
	logger.Debug("Lexical pool: %d hits", len(lexHits))

	denseHits := r.denseSearch(ctx, gen, question, pool)
	logger.Debug("Dense pool: %d hits", len(denseHits))

	lexNorm := normalizeLexical(lexHits)
	denseNorm := normalizeDense(denseHits)

	// Merge by corpus position. A document missing from one ranker's pool
	// contributes 0 for that ranker; it is penalised, not excluded.
	merged := make(map[int]*domain.Candidate)
	for i, h := range lexHits {
		merged[h.Seq] = &domain.Candidate{
			Ref:          h.Ref,
			Seq:          h.Seq,
			LexicalScore: lexNorm[i],
			HasLexical:   true,
			Generation:   gen.id,
		}
	}
	for i, h := range denseHits {
		c, ok := merged[h.Seq]
		if !ok {
			c = &domain.Candidate{Ref: h.Ref, Seq: h.Seq, Generation: gen.id}
			merged[h.Seq] = c
		}
		c.DenseScore = denseNorm[i]
		c.HasDense = true
	}

	cands := make([]domain.Candidate, 0, len(merged))
	for _, c := range merged {
		c.Fused = r.settings.DenseWeight*c.DenseScore + r.settings.LexicalWeight*c.LexicalScore
		cands = append(cands, *c)
	}

	// Highest fused score first; equal scores keep corpus order.
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].Fused != cands[j].Fused {
			return cands[i].Fused > cands[j].Fused
		}
		return cands[i].Seq < cands[j].Seq
	})

	if len(cands) > k {
		cands = cands[:k]
	}
	logger.Info("Fused candidates: %d", len(cands))
	return cands, nil
}

// denseSearch embeds the question and queries the vector index. Failures
// degrade to an empty dense pool rather than failing the whole retrieval.
func (r *Retriever) denseSearch(ctx context.Context, gen *generation, question string, pool int) []driven.VectorHit {
	if gen.vector == nil || r.embedder == nil {
		return nil
	}

	vec, err := r.embedder.Embed(ctx, question)
	if err != nil {
		logger.Warn("Question embedding failed, dense ranker skipped: %v", err)
		return nil
	}

	hits, err := gen.vector.Search(ctx, vec, pool)
	if err != nil {
		logger.Warn("Vector search failed, dense ranker skipped: %v", err)
		return nil
	}
	return hits
}

// normalizeLexical min-max normalises scores over the lexical pool.
func normalizeLexical(hits []driven.LexicalHit) []float64 {
	scores := make([]float64, len(hits))
	for i, h := range hits {
		scores[i] = h.Score
	}
	return minMax(scores)
}

// normalizeDense min-max normalises scores over the dense pool.
func normalizeDense(hits []driven.VectorHit) []float64 {
	scores := make([]float64, len(hits))
	for i, h := range hits {
		scores[i] = h.Similarity
	}
	return minMax(scores)
}

// minMax rescales scores to [0, 1] over the pool. A degenerate pool where
// every score is equal maps to 1 when the shared score is positive and 0
// otherwise; rank information is gone either way.
func minMax(scores []float64) []float64 {
	if len(scores) == 0 {
		return nil
	}

	lo, hi := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}

	out := make([]float64, len(scores))
	if hi == lo {
		if hi > 0 {
			for i := range out {
				out[i] = 1
			}
		}
		return out
	}
	for i, s := range scores {
		out[i] = (s - lo) / (hi - lo)
	}
	return out
}
