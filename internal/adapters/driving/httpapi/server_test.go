package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caravel-labs/rosterqa/internal/core/domain"
)

// fakeAnswers is a canned AnswerService.
type fakeAnswers struct {
	answer domain.Answer
	err    error
}

func (f *fakeAnswers) Ask(context.Context, string) (domain.Answer, error) {
	return f.answer, f.err
}

// fakeCorpus is a canned CorpusService.
type fakeCorpus struct {
	generation uint64
	ready      bool
	count      int
	report     domain.Report
	reportErr  error
	rebuildErr error
}

func (f *fakeCorpus) Rebuild(context.Context, []domain.RawMessage) (uint64, domain.Report, error) {
	if f.rebuildErr != nil {
		return 0, domain.Report{}, f.rebuildErr
	}
	return f.generation + 1, f.report, nil
}

func (f *fakeCorpus) LatestReport() (domain.Report, error) {
	if f.reportErr != nil {
		return domain.Report{}, f.reportErr
	}
	return f.report, nil
}

func (f *fakeCorpus) Generation() (uint64, bool) { return f.generation, f.ready }
func (f *fakeCorpus) MessageCount() int          { return f.count }

// fakeSource is a canned MessageSource.
type fakeSource struct {
	batch *domain.RawBatch
	err   error
}

func (f *fakeSource) Fetch(context.Context) (*domain.RawBatch, error) {
	return f.batch, f.err
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func supportedAnswer() domain.Answer {
	return domain.Answer{
		Text:       "Layla is flying to London in June.",
		Evidence:   []string{"m1"},
		Citations:  []domain.Citation{{MessageID: "m1", SenderName: "Layla", Snippet: "flying to London in June"}},
		Confidence: 0.81,
		Supported:  true,
		Method:     domain.MethodExtraction,
	}
}

func TestAskReturnsAnswerText(t *testing.T) {
	s := NewServer(&fakeAnswers{answer: supportedAnswer()}, &fakeCorpus{ready: true}, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/ask", map[string]string{"question": "When is Layla flying?"})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Layla is flying to London in June.", resp["answer"])
}

func TestAskDetailedIncludesValidation(t *testing.T) {
	s := NewServer(&fakeAnswers{answer: supportedAnswer()}, &fakeCorpus{ready: true}, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/ask/detailed", map[string]string{"question": "When?"})

	require.Equal(t, http.StatusOK, rec.Code)
	var ans domain.Answer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ans))
	assert.True(t, ans.Supported)
	assert.InDelta(t, 0.81, ans.Confidence, 1e-9)
	assert.Equal(t, domain.MethodExtraction, ans.Method)
	require.Len(t, ans.Citations, 1)
	assert.Equal(t, "m1", ans.Citations[0].MessageID)
}

func TestAskMissingQuestion(t *testing.T) {
	s := NewServer(&fakeAnswers{}, &fakeCorpus{}, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/ask", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAskNotReady(t *testing.T) {
	s := NewServer(&fakeAnswers{err: domain.ErrNotReady}, &fakeCorpus{}, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/ask", map[string]string{"question": "anything"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRefreshSuccess(t *testing.T) {
	report := domain.Report{Highlights: domain.Highlights{TotalMessages: 6}}
	source := &fakeSource{batch: &domain.RawBatch{Messages: make([]domain.RawMessage, 6), FetchedAt: time.Now()}}
	s := NewServer(&fakeAnswers{}, &fakeCorpus{generation: 1, ready: true, report: report}, source)

	rec := doJSON(t, s, http.MethodPost, "/api/refresh", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, 2, resp["generation"])
	assert.EqualValues(t, 6, resp["message_count"])
}

func TestRefreshBusy(t *testing.T) {
	source := &fakeSource{batch: &domain.RawBatch{}}
	s := NewServer(&fakeAnswers{}, &fakeCorpus{rebuildErr: domain.ErrRebuildInProgress}, source)

	rec := doJSON(t, s, http.MethodPost, "/api/refresh", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRefreshFetchFailure(t *testing.T) {
	source := &fakeSource{err: context.DeadlineExceeded}
	s := NewServer(&fakeAnswers{}, &fakeCorpus{}, source)

	rec := doJSON(t, s, http.MethodPost, "/api/refresh", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestRefreshWithoutSource(t *testing.T) {
	s := NewServer(&fakeAnswers{}, &fakeCorpus{}, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/refresh", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestInsights(t *testing.T) {
	report := domain.Report{
		ID:         "r1",
		Generation: 3,
		Highlights: domain.Highlights{TotalMessages: 10},
	}
	s := NewServer(&fakeAnswers{}, &fakeCorpus{ready: true, report: report}, nil)

	rec := doJSON(t, s, http.MethodGet, "/api/insights", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "r1", got.ID)
	assert.Equal(t, 10, got.Highlights.TotalMessages)
}

func TestInsightsNotReady(t *testing.T) {
	s := NewServer(&fakeAnswers{}, &fakeCorpus{reportErr: domain.ErrNotReady}, nil)

	rec := doJSON(t, s, http.MethodGet, "/api/insights", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealth(t *testing.T) {
	s := NewServer(&fakeAnswers{}, &fakeCorpus{generation: 4, ready: true, count: 12}, nil)

	rec := doJSON(t, s, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, true, resp["ready"])
	assert.EqualValues(t, 4, resp["generation"])
}

func TestHealthBeforeFirstRebuild(t *testing.T) {
	s := NewServer(&fakeAnswers{}, &fakeCorpus{}, nil)

	rec := doJSON(t, s, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "starting", resp["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := NewServer(&fakeAnswers{answer: supportedAnswer()}, &fakeCorpus{ready: true}, nil)

	doJSON(t, s, http.MethodPost, "/api/ask", map[string]string{"question": "q"})
	rec := doJSON(t, s, http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "rosterqa_questions_total")
}
