package mcp

import (
	"github.com/caravel-labs/rosterqa/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Answers answers natural-language questions about the corpus.
	Answers driving.AnswerService

	// Corpus exposes the generation state and the anomaly report.
	Corpus driving.CorpusService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Answers == nil {
		return ErrMissingAnswerService
	}
	// Corpus is optional; without it the insights tool reports not ready.
	return nil
}
