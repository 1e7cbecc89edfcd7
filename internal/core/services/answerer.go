package services

import (
	"context"
	"strings"

	"github.com/caravel-labs/rosterqa/internal/core/domain"
	"github.com/caravel-labs/rosterqa/internal/core/ports/driving"
	"github.com/caravel-labs/rosterqa/internal/logger"
)

// Ensure Answerer implements the interface.
var _ driving.AnswerService = (*Answerer)(nil)

// Answerer runs the full question path: snapshot, retrieve, synthesize,
// validate. Every stage past the readiness check degrades instead of
// failing, so a question asked against a live corpus always gets an
// answer value back.
type Answerer struct {
	corpus      *Corpus
	retriever   *Retriever
	synthesizer *Synthesizer
	validator   *Validator
	topK        int
}

// NewAnswerer wires the question path together.
func NewAnswerer(corpus *Corpus, retriever *Retriever, synthesizer *Synthesizer, validator *Validator, topK int) *Answerer {
	return &Answerer{
		corpus:      corpus,
		retriever:   retriever,
		synthesizer: synthesizer,
		validator:   validator,
		topK:        topK,
	}
}

// Ask answers a natural-language question from the current corpus
// generation. The only error it returns is domain.ErrNotReady, before the
// first successful rebuild; everything else degrades to an unsupported
// no-information answer.
func (a *Answerer) Ask(ctx context.Context, question string) (domain.Answer, error) {
	gen := a.corpus.snapshot()
	if gen == nil {
		return domain.Answer{}, domain.ErrNotReady
	}

	question = strings.TrimSpace(question)
	if question == "" {
		return a.validator.Validate(domain.NoInformationAnswer(), nil, nil), nil
	}

	cands, err := a.retriever.retrieve(ctx, gen, question, a.topK)
	if err != nil {
		logger.Warn("Retrieval failed: %v", err)
		return a.validator.Validate(domain.NoInformationAnswer(), nil, nil), nil
	}

	msgs, err := gen.hydrate(cands)
	if err != nil {
		logger.Warn("Candidate hydration failed: %v", err)
		return a.validator.Validate(domain.NoInformationAnswer(), nil, nil), nil
	}

	ans := a.synthesizer.Synthesize(ctx, question, cands, msgs)
	return a.validator.Validate(ans, cands, msgs), nil
}
