package domain

// RetrievalSettings tunes the hybrid retriever.
type RetrievalSettings struct {
	// TopK is the number of candidates handed to the synthesizer.
	TopK int

	// PoolSize is the minimum recall pool requested from each ranker
	// before fusion. The effective pool is max(TopK, PoolSize).
	PoolSize int

	// DenseWeight and LexicalWeight are the fusion weights. They must be
	// non-negative and sum to 1.
	DenseWeight   float64
	LexicalWeight float64
}

// Candidate is one fused retrieval result. It lives only for the duration
// of a single question.
type Candidate struct {
	// Ref is the id of the matched message.
	Ref string

	// Seq is the corpus-order position, used for deterministic tie-breaks.
	Seq int

	// LexicalScore is the normalised lexical contribution. HasLexical is
	// false when the message was absent from the lexical pool.
	LexicalScore float64
	HasLexical   bool

	// DenseScore is the normalised dense contribution. HasDense is false
	// when the message was absent from the dense pool.
	DenseScore float64
	HasDense   bool

	// Fused is the weighted combination of the two, in [0, 1].
	Fused float64

	// Generation is the corpus generation the candidate was retrieved
	// from. Consumers must reject candidates from another generation.
	Generation uint64
}

// Validate checks the settings are usable.
func (s RetrievalSettings) Validate() error {
	if s.TopK <= 0 {
		return ErrInvalidSettings
	}
	if s.DenseWeight < 0 || s.LexicalWeight < 0 {
		return ErrInvalidSettings
	}
	if diff := s.DenseWeight + s.LexicalWeight - 1.0; diff > 1e-9 || diff < -1e-9 {
		return ErrInvalidSettings
	}
	return nil
}
