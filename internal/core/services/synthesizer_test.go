package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caravel-labs/rosterqa/internal/core/domain"
)

// candidatesFor builds a candidate list parallel to msgs, fused scores
// descending from 0.9.
func candidatesFor(msgs []domain.Message) []domain.Candidate {
	cands := make([]domain.Candidate, len(msgs))
	for i, m := range msgs {
		cands[i] = domain.Candidate{
			Ref:        m.ID,
			Seq:        m.Seq,
			Fused:      0.9 - 0.1*float64(i),
			Generation: 1,
		}
	}
	return cands
}

func newTestSynthesizer(llm *fakeLLM) *Synthesizer {
	settings := domain.DefaultSettings().Synthesis
	if llm == nil {
		return NewSynthesizer(nil, settings)
	}
	return NewSynthesizer(llm, settings)
}

func TestSynthesizeEmptyCandidates(t *testing.T) {
	s := newTestSynthesizer(&fakeLLM{response: "should never be called"})

	ans := s.Synthesize(context.Background(), "anything at all?", nil, nil)

	assert.Equal(t, domain.NoInformationText, ans.Text)
	assert.Equal(t, domain.MethodNone, ans.Method)
	assert.False(t, ans.Supported)
	assert.Zero(t, ans.Confidence)
}

func TestSynthesizeQuantityExtraction(t *testing.T) {
	s := newTestSynthesizer(nil)
	msgs := []domain.Message{
		seqMessage(0, "m2", "Alex", "I have 3 cats and they are all very loud."),
	}

	ans := s.Synthesize(context.Background(), "How many cats does Alex have?", candidatesFor(msgs), msgs)

	assert.Equal(t, "Alex has 3 cats.", ans.Text)
	assert.Equal(t, domain.MethodExtraction, ans.Method)
	assert.Equal(t, []string{"m2"}, ans.Evidence)
	assert.InDelta(t, 0.9, ans.Confidence, 1e-9)
	require.Len(t, ans.Citations, 1)
	assert.Equal(t, "Alex", ans.Citations[0].SenderName)
}

func TestSynthesizeQuantityWithoutEntityUsesSender(t *testing.T) {
	s := newTestSynthesizer(nil)
	msgs := []domain.Message{
		seqMessage(0, "m2", "Alex", "I have 3 cats."),
	}

	ans := s.Synthesize(context.Background(), "How many cats?", candidatesFor(msgs), msgs)

	assert.Equal(t, "Alex has 3 cats.", ans.Text)
	assert.Equal(t, domain.MethodExtraction, ans.Method)
}

func TestSynthesizeTemporalExtraction(t *testing.T) {
	s := newTestSynthesizer(nil)
	msgs := []domain.Message{
		seqMessage(0, "m1", "Layla", "I am flying to London in June for the conference."),
		seqMessage(1, "m5", "Layla", "The hotel in London is already booked."),
	}

	ans := s.Synthesize(context.Background(), "When is Layla flying to London?", candidatesFor(msgs), msgs)

	assert.Equal(t, domain.MethodExtraction, ans.Method)
	assert.Contains(t, ans.Text, "June")
	assert.Equal(t, []string{"m1"}, ans.Evidence)
}

func TestSynthesizeTemporalYearPrecision(t *testing.T) {
	s := newTestSynthesizer(nil)
	msgs := []domain.Message{
		seqMessage(0, "m8", "Priya", "The reunion was in 2019, before everything changed."),
	}

	ans := s.Synthesize(context.Background(), "When was the reunion?", candidatesFor(msgs), msgs)

	assert.Equal(t, domain.MethodExtraction, ans.Method)
	assert.Contains(t, ans.Text, "2019")
}

func TestSynthesizePreferenceExtraction(t *testing.T) {
	s := newTestSynthesizer(nil)
	msgs := []domain.Message{
		seqMessage(0, "m3", "Priya", "My favourite cuisines are sushi, ramen and tacos."),
	}

	ans := s.Synthesize(context.Background(), "What are Priya's favorite cuisines?", candidatesFor(msgs), msgs)

	assert.Equal(t, domain.MethodExtraction, ans.Method)
	assert.Equal(t, "Priya's favorite cuisines are sushi, ramen and tacos.", ans.Text)
	assert.Equal(t, []string{"m3"}, ans.Evidence)
}

func TestSynthesizeGenerationFallback(t *testing.T) {
	llm := &fakeLLM{response: "Marco is training for a marathon."}
	s := newTestSynthesizer(llm)
	msgs := []domain.Message{
		seqMessage(0, "m4", "Marco", "Training for the marathon is going well this week."),
	}

	ans := s.Synthesize(context.Background(), "Tell me about Marco's hobbies", candidatesFor(msgs), msgs)

	assert.Equal(t, domain.MethodGeneration, ans.Method)
	assert.Equal(t, "Marco is training for a marathon.", ans.Text)
	assert.InDelta(t, 0.5, ans.Confidence, 1e-9)
	assert.Equal(t, 1, llm.calls)
	assert.Contains(t, llm.lastPrompt, "Training for the marathon")
	assert.Contains(t, llm.lastPrompt, domain.InabilityText)
}

func TestSynthesizeGenerationTimeout(t *testing.T) {
	llm := &fakeLLM{response: "too late", delay: 200 * time.Millisecond}
	settings := domain.DefaultSettings().Synthesis
	settings.GenerationTimeout = 20 * time.Millisecond
	s := NewSynthesizer(llm, settings)

	msgs := []domain.Message{seqMessage(0, "m4", "Marco", "Training is going well.")}
	ans := s.Synthesize(context.Background(), "Tell me about Marco", candidatesFor(msgs), msgs)

	assert.Equal(t, domain.MethodNone, ans.Method)
	assert.Equal(t, domain.NoInformationText, ans.Text)
}

func TestSynthesizeGenerationErrorDegrades(t *testing.T) {
	llm := &fakeLLM{err: errors.New("model not loaded")}
	s := newTestSynthesizer(llm)

	msgs := []domain.Message{seqMessage(0, "m4", "Marco", "Training is going well.")}
	ans := s.Synthesize(context.Background(), "Tell me about Marco", candidatesFor(msgs), msgs)

	assert.Equal(t, domain.MethodNone, ans.Method)
	assert.False(t, ans.Supported)
}

func TestSynthesizeNoLLMConfigured(t *testing.T) {
	s := newTestSynthesizer(nil)

	msgs := []domain.Message{seqMessage(0, "m4", "Marco", "Training is going well.")}
	ans := s.Synthesize(context.Background(), "Tell me about Marco", candidatesFor(msgs), msgs)

	assert.Equal(t, domain.MethodNone, ans.Method)
	assert.Equal(t, domain.NoInformationText, ans.Text)
}

func TestBuildContextRespectsBudget(t *testing.T) {
	msgs := []domain.Message{
		wordsMessage(0, 40),
		wordsMessage(1, 40),
		wordsMessage(2, 40),
	}

	ctx := buildContext(msgs, 100)

	lines := strings.Count(ctx, "\n")
	assert.Equal(t, 2, lines, "third message exceeds the budget")
}

func TestBuildContextAlwaysIncludesFirstMessage(t *testing.T) {
	msgs := []domain.Message{wordsMessage(0, 500)}

	ctx := buildContext(msgs, 100)
	assert.NotEmpty(t, ctx, "the top candidate is included even over budget")
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"sushi", "ramen", "tacos"}, splitList("sushi, ramen and tacos"))
	assert.Equal(t, []string{"sushi"}, splitList("sushi"))
	assert.Equal(t, []string{"a", "b"}, splitList("a and b"))
}

func TestJoinList(t *testing.T) {
	assert.Equal(t, "sushi", joinList([]string{"sushi"}))
	assert.Equal(t, "sushi and ramen", joinList([]string{"sushi", "ramen"}))
	assert.Equal(t, "sushi, ramen and tacos", joinList([]string{"sushi", "ramen", "tacos"}))
}
