package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/caravel-labs/rosterqa/internal/core/domain"
	"github.com/caravel-labs/rosterqa/internal/core/ports/driven"
	"github.com/caravel-labs/rosterqa/internal/logger"
)

// extraction is the result of one deterministic extraction rule.
type extraction struct {
	// text is the answer sentence.
	text string

	// evidence indexes into the candidate list, in citation order.
	evidence []int
}

// extractor attempts one structured intent against the question and the
// retrieved messages. Extractors only ever read retrieved candidate text,
// never the full corpus.
type extractor func(question string, msgs []domain.Message) (extraction, bool)

// Synthesizer turns retrieved candidates plus a question into an answer.
// Deterministic extraction rules are tried in order; the first match wins.
// Only when none matches does the generation capability get involved.
type Synthesizer struct {
	llm        driven.LLMService // optional
	settings   domain.SynthesisSettings
	extractors []extractor
}

// NewSynthesizer creates a synthesizer. The llm may be nil, in which case
// questions no extraction rule covers get the no-information answer.
func NewSynthesizer(llm driven.LLMService, settings domain.SynthesisSettings) *Synthesizer {
	return &Synthesizer{
		llm:      llm,
		settings: settings,
		extractors: []extractor{
			extractQuantity,
			extractTemporal,
			extractPreference,
		},
	}
}

// Synthesize produces an answer from the retrieved candidates. It never
// returns an error: generation failures and timeouts degrade to the
// no-information answer instead of propagating.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, cands []domain.Candidate, msgs []domain.Message) domain.Answer {
	if len(cands) == 0 {
		logger.Debug("No candidates, returning no-information answer")
		return domain.NoInformationAnswer()
	}

	for _, ex := range s.extractors {
		res, ok := ex(question, msgs)
		if !ok {
			continue
		}
		logger.Debug("Extraction rule matched: %q", res.text)
		return s.extractedAnswer(res, cands, msgs)
	}

	return s.generate(ctx, question, cands, msgs)
}

func (s *Synthesizer) extractedAnswer(res extraction, cands []domain.Candidate, msgs []domain.Message) domain.Answer {
	evidence := make([]string, len(res.evidence))
	citations := make([]domain.Citation, len(res.evidence))
	for i, idx := range res.evidence {
		evidence[i] = cands[idx].Ref
		citations[i] = citationFor(msgs[idx])
	}
	return domain.Answer{
		Text:       res.text,
		Evidence:   evidence,
		Citations:  citations,
		Confidence: s.settings.ExtractionConfidence,
		Supported:  true,
		Method:     domain.MethodExtraction,
	}
}

// generate is the fallback tier: grounded free-form completion.
func (s *Synthesizer) generate(ctx context.Context, question string, cands []domain.Candidate, msgs []domain.Message) domain.Answer {
	if s.llm == nil {
		logger.Warn("No extraction match and no LLM configured")
		return domain.NoInformationAnswer()
	}

	prompt := buildPrompt(question, buildContext(msgs, s.settings.ContextTokenBudget))

	genCtx := ctx
	if s.settings.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, s.settings.GenerationTimeout)
		defer cancel()
	}

	out, err := s.llm.Complete(genCtx, prompt, driven.CompleteOptions{
		MaxTokens:   256,
		Temperature: 0,
	})
	if err != nil {
		// The generation capability is the only unbounded-latency call on
		// the question path; timeouts degrade instead of hanging the caller.
		logger.Warn("Generation failed: %v", err)
		return domain.NoInformationAnswer()
	}

	text := strings.TrimSpace(out)
	if text == "" {
		return domain.NoInformationAnswer()
	}

	evidence := make([]string, len(cands))
	citations := make([]domain.Citation, len(cands))
	for i := range cands {
		evidence[i] = cands[i].Ref
		citations[i] = citationFor(msgs[i])
	}
	return domain.Answer{
		Text:       text,
		Evidence:   evidence,
		Citations:  citations,
		Confidence: s.settings.GenerationConfidence,
		Supported:  true,
		Method:     domain.MethodGeneration,
	}
}

// buildContext assembles the grounding context from candidate messages in
// fused-score order, truncated to the token budget. The generation
// capability may only draw on this text.
func buildContext(msgs []domain.Message, budget int) string {
	var b strings.Builder
	used := 0
	for _, m := range msgs {
		line := domain.ContextLine(m)
		cost := domain.TokenCount(line)
		if used > 0 && used+cost > budget {
			break
		}
		b.WriteString(line)
		b.WriteByte('\n')
		used += cost
	}
	return b.String()
}

func buildPrompt(question, context string) string {
	return fmt.Sprintf(`You are a careful analyst answering questions about member messages.
Answer the question using ONLY the context below. Be concise (1-2 sentences)
and include precise details like names, dates, or counts when present.
If the context does not contain the answer, reply exactly: %q

Context:
%s
Question: %s
Answer:`, domain.InabilityText, context, question)
}

func citationFor(m domain.Message) domain.Citation {
	snippet := m.Text
	if len(snippet) > 160 {
		snippet = snippet[:160]
	}
	return domain.Citation{
		MessageID:  m.ID,
		SenderName: m.SenderName,
		Timestamp:  m.Timestamp,
		Snippet:    snippet,
	}
}

// --- Extraction rules ---

var (
	quantityRe = regexp.MustCompile(`(?i)\bhow many\s+([a-z]+)(?:\s+(?:does|do|did|has|have)\s+([A-Za-z]+))?`)
	integerRe  = regexp.MustCompile(`\b\d+\b`)

	temporalRe = regexp.MustCompile(`(?i)\bwhen\s+(?:is|are|was|were|does|do|did|will)\b`)
	monthRe    = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\b`)
	isoDateRe  = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	yearRe     = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)

	preferenceRe = regexp.MustCompile(`(?i)\bwhat\s+are\s+([A-Za-z]+)'s\s+favou?rite\s+([a-z]+)\b`)
)

// extractQuantity answers "how many X does Y have" by pulling the first
// integer token co-occurring with the named entity in the top candidate.
func extractQuantity(question string, msgs []domain.Message) (extraction, bool) {
	m := quantityRe.FindStringSubmatch(question)
	if m == nil || len(msgs) == 0 {
		return extraction{}, false
	}
	noun, entity := m[1], m[2]

	top := msgs[0]
	if entity != "" && !mentionsEntity(top, entity) {
		return extraction{}, false
	}

	num := integerRe.FindString(top.Text)
	if num == "" {
		return extraction{}, false
	}

	subject := entity
	if subject == "" {
		subject = top.SenderName
	}
	return extraction{
		text:     fmt.Sprintf("%s has %s %s.", subject, num, noun),
		evidence: []int{0},
	}, true
}

// extractTemporal answers "when ..." questions with the first date-like
// token found in the top candidates, returned inside its original
// sentence so the phrasing stays grounded.
func extractTemporal(question string, msgs []domain.Message) (extraction, bool) {
	if !temporalRe.MatchString(question) {
		return extraction{}, false
	}

	for i, msg := range msgs {
		token := dateToken(msg.Text)
		if token == "" {
			continue
		}
		sentence := sentenceContaining(msg.Text, token)
		if sentence == "" {
			sentence = msg.Text
		}
		return extraction{text: sentence, evidence: []int{i}}, true
	}
	return extraction{}, false
}

// dateToken finds the most specific date-like token in text: month name,
// then full ISO date, then bare 4-digit year.
func dateToken(text string) string {
	if tok := monthRe.FindString(text); tok != "" {
		return tok
	}
	if tok := isoDateRe.FindString(text); tok != "" {
		return tok
	}
	return yearRe.FindString(text)
}

// extractPreference answers "what are Y's favorite X" by pulling the
// comma/and-separated list following a cue phrase in candidate text.
func extractPreference(question string, msgs []domain.Message) (extraction, bool) {
	m := preferenceRe.FindStringSubmatch(question)
	if m == nil {
		return extraction{}, false
	}
	entity, noun := m[1], m[2]

	cueRe, err := regexp.Compile(`(?i)\bfavou?rite\s+` + regexp.QuoteMeta(noun) + `\s*(?:are|is|:)?\s+([^.!?\n]+)`)
	if err != nil {
		return extraction{}, false
	}

	for i, msg := range msgs {
		if !mentionsEntity(msg, entity) {
			continue
		}
		cue := cueRe.FindStringSubmatch(msg.Text)
		if cue == nil {
			continue
		}
		items := splitList(cue[1])
		if len(items) == 0 {
			continue
		}
		return extraction{
			text:     fmt.Sprintf("%s's favorite %s are %s.", entity, noun, joinList(items)),
			evidence: []int{i},
		}, true
	}
	return extraction{}, false
}

// mentionsEntity reports whether the message text or sender matches the
// entity, case-insensitively.
func mentionsEntity(m domain.Message, entity string) bool {
	e := strings.ToLower(entity)
	return strings.Contains(strings.ToLower(m.Text), e) ||
		strings.Contains(strings.ToLower(m.SenderName), e)
}

// splitList breaks "a, b and c" into its items.
func splitList(s string) []string {
	s = strings.ReplaceAll(s, " and ", ", ")
	parts := strings.Split(s, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			items = append(items, p)
		}
	}
	return items
}

// joinList renders items as "a, b and c".
func joinList(items []string) string {
	switch len(items) {
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}

// sentenceContaining returns the sentence of text holding the token.
// Sentences split on common terminators, the same way highlights do in
// search UIs.
func sentenceContaining(text, token string) string {
	lower := strings.ToLower(token)
	for _, sentence := range splitSentences(text) {
		if strings.Contains(strings.ToLower(sentence), lower) {
			return sentence
		}
	}
	return ""
}

// splitSentences splits text into sentences on common terminators.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
