// Package services implements the core question-answering pipeline:
// corpus generation lifecycle, hybrid retrieval, answer synthesis,
// validation, and corpus anomaly analysis.
package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/caravel-labs/rosterqa/internal/core/domain"
	"github.com/caravel-labs/rosterqa/internal/core/ports/driven"
	"github.com/caravel-labs/rosterqa/internal/core/ports/driving"
	"github.com/caravel-labs/rosterqa/internal/logger"
)

// Ensure Corpus implements the interface.
var _ driving.CorpusService = (*Corpus)(nil)

// generation is one immutable, internally consistent snapshot of the
// corpus: messages, both indexes, and the anomaly report. Readers hold a
// pointer to the whole bundle, so an in-flight question keeps working on
// its generation even while a rebuild publishes the next one.
type generation struct {
	id       uint64
	messages []domain.Message
	docs     []domain.Document
	lexical  driven.LexicalIndex
	vector   driven.VectorIndex // nil when embeddings are disabled
	report   domain.Report
}

// hydrate resolves candidates back to their messages, verifying the
// generation token on every candidate.
func (g *generation) hydrate(cands []domain.Candidate) ([]domain.Message, error) {
	msgs := make([]domain.Message, len(cands))
	for i, c := range cands {
		if c.Generation != g.id {
			return nil, fmt.Errorf("candidate %s from generation %d, current %d: %w",
				c.Ref, c.Generation, g.id, domain.ErrGenerationMismatch)
		}
		if c.Seq < 0 || c.Seq >= len(g.messages) {
			return nil, fmt.Errorf("candidate %s seq %d out of range: %w",
				c.Ref, c.Seq, domain.ErrGenerationMismatch)
		}
		msgs[i] = g.messages[c.Seq]
	}
	return msgs, nil
}

// Corpus owns the corpus generation lifecycle. Rebuilds construct the next
// generation entirely off the hot path and publish it with a single atomic
// swap; concurrent rebuild requests are rejected rather than queued.
type Corpus struct {
	lexBuilder driven.LexicalIndexBuilder
	vecBuilder driven.VectorIndexBuilder
	embedder   driven.EmbeddingService // optional

	rebuildMu sync.Mutex
	lastGen   atomic.Uint64
	current   atomic.Pointer[generation]
}

// NewCorpus creates a corpus manager. The embedder may be nil, in which
// case generations are built without a dense index and retrieval runs on
// the lexical ranker alone.
func NewCorpus(
	lexBuilder driven.LexicalIndexBuilder,
	vecBuilder driven.VectorIndexBuilder,
	embedder driven.EmbeddingService,
) *Corpus {
	return &Corpus{
		lexBuilder: lexBuilder,
		vecBuilder: vecBuilder,
		embedder:   embedder,
	}
}

// Rebuild ingests a raw batch and atomically publishes a new generation.
//
// Any error leaves the previously published generation untouched: nothing
// is swapped in until every stage (clean, embed, index, analyse) has
// succeeded.
func (c *Corpus) Rebuild(ctx context.Context, raw []domain.RawMessage) (uint64, domain.Report, error) {
	if !c.rebuildMu.TryLock() {
		return 0, domain.Report{}, domain.ErrRebuildInProgress
	}
	defer c.rebuildMu.Unlock()

	logger.Section("Corpus Rebuild")
	logger.Debug("Raw records: %d", len(raw))

	for i, r := range raw {
		if !r.Valid() {
			return 0, domain.Report{}, fmt.Errorf("record %d (id %q): %w", i, r.ID, domain.ErrMalformedMessage)
		}
	}

	genID := c.lastGen.Add(1)
	messages, dropped := cleanBatch(raw)
	logger.Debug("Cleaned: %d kept, %d dropped", len(messages), len(dropped))

	docs := buildDocuments(genID, messages)

	if c.embedder != nil && len(docs) > 0 {
		if err := c.embedDocuments(ctx, docs); err != nil {
			return 0, domain.Report{}, fmt.Errorf("embed corpus: %w", err)
		}
	}

	lexical, err := c.lexBuilder.Build(ctx, docs)
	if err != nil {
		return 0, domain.Report{}, fmt.Errorf("build lexical index: %w", err)
	}

	var vector driven.VectorIndex
	if c.embedder != nil {
		vector, err = c.vecBuilder.Build(ctx, docs)
		if err != nil {
			return 0, domain.Report{}, fmt.Errorf("build vector index: %w", err)
		}
	}

	report := Analyze(genID, messages, dropped, time.Now().UTC())

	gen := &generation{
		id:       genID,
		messages: messages,
		docs:     docs,
		lexical:  lexical,
		vector:   vector,
		report:   report,
	}
	c.current.Store(gen)

	logger.Info("Published generation %d: %d messages, %d findings",
		genID, len(messages), len(report.Findings))
	return genID, report, nil
}

// LatestReport returns the current generation's anomaly report.
func (c *Corpus) LatestReport() (domain.Report, error) {
	gen := c.current.Load()
	if gen == nil {
		return domain.Report{}, domain.ErrNotReady
	}
	return gen.report, nil
}

// Generation returns the current generation id, false before the first
// rebuild.
func (c *Corpus) Generation() (uint64, bool) {
	gen := c.current.Load()
	if gen == nil {
		return 0, false
	}
	return gen.id, true
}

// MessageCount returns the number of messages in the current generation.
func (c *Corpus) MessageCount() int {
	gen := c.current.Load()
	if gen == nil {
		return 0
	}
	return len(gen.messages)
}

// Snapshot returns the current generation's messages in corpus order.
func (c *Corpus) Snapshot() ([]domain.Message, error) {
	gen := c.current.Load()
	if gen == nil {
		return nil, domain.ErrNotReady
	}
	return gen.messages, nil
}

// snapshot returns the full current generation for the question path.
func (c *Corpus) snapshot() *generation {
	return c.current.Load()
}

// cleanBatch cleans every record in order, keeping corpus order on the
// survivors and collecting the records cleaning emptied.
func cleanBatch(raw []domain.RawMessage) ([]domain.Message, []domain.RawMessage) {
	messages := make([]domain.Message, 0, len(raw))
	var dropped []domain.RawMessage

	for _, r := range raw {
		clean := domain.CleanText(r.Text)
		if clean == "" {
			dropped = append(dropped, r)
			continue
		}
		messages = append(messages, domain.Message{
			ID:         r.ID,
			Seq:        len(messages),
			SenderID:   r.SenderID,
			SenderName: r.SenderName,
			Text:       clean,
			RawText:    r.Text,
			Timestamp:  r.Timestamp,
			TokenCount: domain.TokenCount(clean),
		})
	}
	return messages, dropped
}

// buildDocuments derives the indexable view of each message.
func buildDocuments(genID uint64, messages []domain.Message) []domain.Document {
	docs := make([]domain.Document, len(messages))
	for i, m := range messages {
		docs[i] = domain.Document{
			Ref:        m.ID,
			Seq:        m.Seq,
			Text:       m.Text,
			Tokens:     domain.Tokenize(m.Text),
			Generation: genID,
		}
	}
	return docs
}

// embedDocuments fills in embeddings for the whole batch.
func (c *Corpus) embedDocuments(ctx context.Context, docs []domain.Document) error {
	texts := make([]string, len(docs))
	for i := range docs {
		texts[i] = docs[i].Text
	}

	vecs, err := c.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	if len(vecs) != len(docs) {
		return fmt.Errorf("embedder returned %d vectors for %d documents: %w",
			len(vecs), len(docs), domain.ErrDimensionMismatch)
	}
	for i := range docs {
		docs[i].Embedding = vecs[i]
	}
	return nil
}
