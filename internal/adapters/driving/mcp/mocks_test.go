package mcp

import (
	"context"

	"github.com/caravel-labs/rosterqa/internal/core/domain"
)

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	answer domain.Answer
	err    error
}

func (m *mockAnswerService) Ask(_ context.Context, _ string) (domain.Answer, error) {
	return m.answer, m.err
}

// mockCorpusService is a mock implementation of driving.CorpusService.
type mockCorpusService struct {
	generation uint64
	ready      bool
	count      int
	report     domain.Report
	err        error
}

func (m *mockCorpusService) Rebuild(_ context.Context, _ []domain.RawMessage) (uint64, domain.Report, error) {
	return m.generation, m.report, m.err
}

func (m *mockCorpusService) LatestReport() (domain.Report, error) {
	if m.err != nil {
		return domain.Report{}, m.err
	}
	return m.report, nil
}

func (m *mockCorpusService) Generation() (uint64, bool) {
	return m.generation, m.ready
}

func (m *mockCorpusService) MessageCount() int {
	return m.count
}
