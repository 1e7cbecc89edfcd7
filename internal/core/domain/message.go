package domain

import "time"

// RawMessage is a member message exactly as supplied by the ingestion
// boundary (upstream API, local file, or cache). It has not been cleaned
// and carries no derived fields.
type RawMessage struct {
	// ID is the upstream identifier. Expected unique, not guaranteed.
	ID string `json:"id"`

	// SenderID identifies the member who wrote the message.
	SenderID string `json:"user_id"`

	// SenderName is the member's display name.
	SenderName string `json:"user_name"`

	// Text is the natural-language message content.
	Text string `json:"message"`

	// Timestamp is when the message was recorded upstream.
	Timestamp time.Time `json:"timestamp"`
}

// Valid reports whether the record carries every required field.
// Text is allowed to be blank here; blank-after-cleaning is a corpus
// quality finding, not an ingestion failure.
func (m RawMessage) Valid() bool {
	if m.ID == "" || m.SenderName == "" {
		return false
	}
	return !m.Timestamp.IsZero()
}

// Message is a cleaned member message inside a corpus generation.
// Immutable once the generation is published.
type Message struct {
	// ID is the upstream identifier, carried through unchanged.
	ID string

	// Seq is the position in corpus order. It is the tie-break key for
	// every ranking in the pipeline, so it must be stable per generation.
	Seq int

	// SenderID identifies the member who wrote the message.
	SenderID string

	// SenderName is the member's display name.
	SenderName string

	// Text is the cleaned message content (never empty).
	Text string

	// RawText is the content before cleaning.
	RawText string

	// Timestamp is when the message was recorded upstream.
	Timestamp time.Time

	// TokenCount is the number of index tokens in Text.
	TokenCount int
}

// RawBatch is a fetched set of raw messages plus the cache metadata the
// source adapter needs for conditional requests.
type RawBatch struct {
	Messages  []RawMessage
	ETag      string
	FetchedAt time.Time
}
