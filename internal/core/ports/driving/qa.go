// Package driving provides interfaces for primary/inbound ports consumed
// by the CLI, HTTP, MCP, and TUI adapters.
package driving

import (
	"context"

	"github.com/caravel-labs/rosterqa/internal/core/domain"
)

// AnswerService answers natural-language questions about the corpus.
type AnswerService interface {
	// Ask retrieves evidence, synthesizes an answer, and validates it.
	// For a well-formed question it only fails with domain.ErrNotReady
	// (no corpus generation built yet); every other failure on the
	// question path is absorbed into a degraded, unsupported Answer.
	Ask(ctx context.Context, question string) (domain.Answer, error)
}

// CorpusService manages corpus generations and their quality reports.
type CorpusService interface {
	// Rebuild ingests a raw batch and atomically publishes a new
	// generation (store, both indexes, report). On any error the prior
	// generation remains live. A rebuild already in progress rejects the
	// call with domain.ErrRebuildInProgress.
	Rebuild(ctx context.Context, raw []domain.RawMessage) (uint64, domain.Report, error)

	// LatestReport returns the current generation's anomaly report, or
	// domain.ErrNotReady before the first rebuild.
	LatestReport() (domain.Report, error)

	// Generation returns the current generation id, false before the
	// first rebuild.
	Generation() (uint64, bool)

	// MessageCount returns the number of messages in the current
	// generation, 0 before the first rebuild.
	MessageCount() int
}
