package domain

import (
	"fmt"
	"time"
)

// AnswerMethod records which tier of the synthesizer produced the answer.
type AnswerMethod string

const (
	// MethodExtraction means a deterministic extraction rule matched.
	MethodExtraction AnswerMethod = "extraction"

	// MethodGeneration means the answer came from the generation fallback.
	MethodGeneration AnswerMethod = "generation"

	// MethodNone means no answer could be produced (empty retrieval or a
	// generation failure absorbed into the degraded outcome).
	MethodNone AnswerMethod = "none"
)

// NoInformationText is the fixed answer used when retrieval produces no
// candidates or the generation capability fails.
const NoInformationText = "I could not find any relevant information in the member messages."

// InabilityText is the exact reply the generation capability is instructed
// to produce when the grounding context cannot answer the question.
const InabilityText = "I don't have enough information to answer that."

// Citation points an answer back at one evidence message.
type Citation struct {
	MessageID  string    `json:"message_id"`
	SenderName string    `json:"sender_name"`
	Timestamp  time.Time `json:"timestamp"`
	Snippet    string    `json:"snippet"`
}

// Answer is the final product of the question path. It is always returned,
// at worst degraded to unsupported with zero confidence.
type Answer struct {
	// Text is the natural-language answer.
	Text string `json:"answer"`

	// Evidence lists the ids of the messages the answer is grounded on,
	// in fused-score order.
	Evidence []string `json:"evidence"`

	// Citations carry display details for each evidence message.
	Citations []Citation `json:"citations,omitempty"`

	// Confidence is in [0, 1].
	Confidence float64 `json:"confidence"`

	// Supported is false when the validator could not ground the answer
	// in the evidence.
	Supported bool `json:"supported"`

	// Method records how the answer was produced.
	Method AnswerMethod `json:"method"`
}

// NoInformationAnswer builds the degraded answer.
func NoInformationAnswer() Answer {
	return Answer{
		Text:       NoInformationText,
		Evidence:   []string{},
		Confidence: 0,
		Supported:  false,
		Method:     MethodNone,
	}
}

// ContextLine renders a message the way it appears in grounding context and
// in validator evidence: "- [ts] sender (id): text".
func ContextLine(m Message) string {
	return fmt.Sprintf("- [%s] %s (%s): %s",
		m.Timestamp.UTC().Format("2006-01-02 15:04"), m.SenderName, m.SenderID, m.Text)
}
