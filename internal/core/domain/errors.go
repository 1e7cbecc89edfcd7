package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrMalformedMessage indicates a raw message record is missing a
	// required field. The whole ingestion batch is rejected; the prior
	// corpus generation stays live.
	ErrMalformedMessage = errors.New("malformed message record")

	// ErrNotReady indicates no corpus generation has been built yet, so
	// retrieval cannot run.
	ErrNotReady = errors.New("corpus not ready")

	// ErrRebuildInProgress indicates a corpus rebuild is already running.
	// Rebuilds never interleave; concurrent requests are rejected.
	ErrRebuildInProgress = errors.New("rebuild in progress")

	// ErrGenerationMismatch indicates candidates from one corpus
	// generation were handed to another. This is a programming error
	// guard, not an expected runtime condition.
	ErrGenerationMismatch = errors.New("corpus generation mismatch")

	// ErrInvalidSettings indicates configuration that cannot be used,
	// e.g. fusion weights that do not sum to 1.
	ErrInvalidSettings = errors.New("invalid settings")

	// ErrDimensionMismatch indicates an embedding whose length does not
	// match the vector index.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrLLMUnavailable indicates the generation capability is not
	// configured. The synthesizer degrades to the no-information answer.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding capability is not
	// configured. Dense retrieval is disabled without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)
