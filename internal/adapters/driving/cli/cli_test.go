package cli

import (
	"context"
	"time"

	"github.com/caravel-labs/rosterqa/internal/core/domain"
)

// stubAnswerService is a canned driving.AnswerService.
type stubAnswerService struct {
	answer domain.Answer
	err    error
	asked  string
}

func (s *stubAnswerService) Ask(_ context.Context, question string) (domain.Answer, error) {
	s.asked = question
	return s.answer, s.err
}

// stubCorpusService is a canned driving.CorpusService.
type stubCorpusService struct {
	generation uint64
	ready      bool
	count      int
	report     domain.Report
	reportErr  error
	rebuildErr error
}

func (s *stubCorpusService) Rebuild(_ context.Context, _ []domain.RawMessage) (uint64, domain.Report, error) {
	if s.rebuildErr != nil {
		return 0, domain.Report{}, s.rebuildErr
	}
	return s.generation + 1, s.report, nil
}

func (s *stubCorpusService) LatestReport() (domain.Report, error) {
	if s.reportErr != nil {
		return domain.Report{}, s.reportErr
	}
	return s.report, nil
}

func (s *stubCorpusService) Generation() (uint64, bool) { return s.generation, s.ready }
func (s *stubCorpusService) MessageCount() int          { return s.count }

// stubMessageSource is a canned driven.MessageSource.
type stubMessageSource struct {
	batch *domain.RawBatch
	err   error
}

func (s *stubMessageSource) Fetch(_ context.Context) (*domain.RawBatch, error) {
	return s.batch, s.err
}

func groundedAnswer() domain.Answer {
	return domain.Answer{
		Text:       "Alex has 3 cats.",
		Evidence:   []string{"m2"},
		Confidence: 0.81,
		Supported:  true,
		Method:     domain.MethodExtraction,
		Citations: []domain.Citation{
			{
				MessageID:  "m2",
				SenderName: "Alex",
				Timestamp:  time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
				Snippet:    "I have 3 cats and honestly want a fourth.",
			},
		},
	}
}

func sampleReport() domain.Report {
	return domain.Report{
		ID:          "r1",
		Generation:  2,
		GeneratedAt: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
		Highlights: domain.Highlights{
			TotalMessages: 6,
			MessagesPerSender: []domain.SenderCount{
				{Sender: "Alex", Count: 2},
				{Sender: "Layla", Count: 2},
				{Sender: "Marco", Count: 1},
				{Sender: "Priya", Count: 1},
			},
			MeanTokenLength: 9.5,
		},
		Findings: []domain.Finding{
			{
				ID:          "f1",
				Kind:        domain.FindingDuplicateID,
				Severity:    domain.SeverityDataIntegrity,
				AffectedIDs: []string{"7"},
				Detail:      "id 7 appears 2 times",
			},
			{
				ID:          "f2",
				Kind:        domain.FindingLengthOutlier,
				Severity:    domain.SeverityQualityWarning,
				AffectedIDs: []string{"m9"},
				Detail:      "message m9 is 500 tokens long",
			},
		},
	}
}

// setupTestServices injects stub services and returns a cleanup that
// restores the previous state.
func setupTestServices() func() {
	SetServices(&Services{
		Answers: &stubAnswerService{answer: groundedAnswer()},
		Corpus:  &stubCorpusService{generation: 2, ready: true, count: 6, report: sampleReport()},
		Source:  &stubMessageSource{batch: &domain.RawBatch{}},
	})
	return func() {
		SetServices(nil)
	}
}
