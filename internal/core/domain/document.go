package domain

// Document is the indexed view of a message: cleaned text, its token list,
// and (when an embedding service is configured) its embedding vector.
// Documents are owned by the generation that built them and never mutated.
type Document struct {
	// Ref is the id of the message this document was derived from.
	Ref string

	// Seq is the corpus-order position, copied from the message.
	Seq int

	// Text is the cleaned message text.
	Text string

	// Tokens is the lexical token list (lowercase, no stemming).
	Tokens []string

	// Embedding is the dense vector, nil when embeddings are disabled.
	Embedding []float32

	// Generation is the id of the corpus generation that built this
	// document. Candidates carry it forward so a retrieval can never mix
	// documents from two generations.
	Generation uint64
}
