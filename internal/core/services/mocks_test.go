package services

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/caravel-labs/rosterqa/internal/core/domain"
	"github.com/caravel-labs/rosterqa/internal/core/ports/driven"
)

// fakeEmbedder is a deterministic in-process embedding service: each token
// hashes into a fixed-size bag-of-words vector, so identical texts always
// embed identically and overlapping texts land near each other.
type fakeEmbedder struct {
	dims    int
	failAll bool
}

var _ driven.EmbeddingService = (*fakeEmbedder)(nil)

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{dims: 16}
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.failAll {
		return nil, errors.New("embedder offline")
	}
	vec := make([]float32, f.dims)
	for _, tok := range domain.Tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[int(h.Sum32())%f.dims]++
	}
	return vec, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int            { return f.dims }
func (f *fakeEmbedder) ModelName() string          { return "fake-embed" }
func (f *fakeEmbedder) Ping(context.Context) error { return nil }
func (f *fakeEmbedder) Close() error               { return nil }

// fakeLLM returns a canned completion, optionally after a delay or with a
// forced error.
type fakeLLM struct {
	response string
	err      error
	delay    time.Duration

	lastPrompt string
	calls      int
}

var _ driven.LLMService = (*fakeLLM)(nil)

func (f *fakeLLM) Complete(ctx context.Context, prompt string, _ driven.CompleteOptions) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeLLM) ModelName() string          { return "fake-llm" }
func (f *fakeLLM) Ping(context.Context) error { return nil }
func (f *fakeLLM) Close() error               { return nil }

// rawMessage builds a valid raw record with a deterministic timestamp.
func rawMessage(id, sender, text string) domain.RawMessage {
	return domain.RawMessage{
		ID:         id,
		SenderID:   "u-" + sender,
		SenderName: sender,
		Text:       text,
		Timestamp:  time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

// memberBatch is a small fixture corpus covering the intents the
// extraction rules handle.
func memberBatch() []domain.RawMessage {
	return []domain.RawMessage{
		rawMessage("m1", "Layla", "I am flying to London in June for the conference."),
		rawMessage("m2", "Alex", "I have 3 cats and they are all very loud."),
		rawMessage("m3", "Priya", "My favourite cuisines are sushi, ramen and tacos."),
		rawMessage("m4", "Marco", "Training for the marathon is going well this week."),
		rawMessage("m5", "Layla", "The hotel in London is already booked."),
		rawMessage("m6", "Alex", "Weather here has been rainy all month."),
	}
}

// seqMessage builds a cleaned message at a given corpus position.
func seqMessage(seq int, id, sender, text string) domain.Message {
	return domain.Message{
		ID:         id,
		Seq:        seq,
		SenderID:   "u-" + sender,
		SenderName: sender,
		Text:       text,
		RawText:    text,
		Timestamp:  time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
		TokenCount: domain.TokenCount(text),
	}
}

// wordsMessage builds a message whose text is exactly n filler tokens.
func wordsMessage(seq int, n int) domain.Message {
	text := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			text += " "
		}
		text += fmt.Sprintf("w%d", i)
	}
	return seqMessage(seq, fmt.Sprintf("m%d", seq), "Sender", text)
}
