package services

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/caravel-labs/rosterqa/internal/core/domain"
	"github.com/caravel-labs/rosterqa/internal/logger"
)

// unsupportedPenalty down-weights confidence when the answer cannot be
// grounded in the evidence.
const unsupportedPenalty = 0.4

// inabilityPhrases mark a generation-fallback answer that declined to
// answer. Matched case-insensitively.
var inabilityPhrases = []string{
	"don't have enough information",
	"do not have enough information",
	"do not know",
	"don't know",
	"cannot answer",
	"unable to answer",
	"no information found",
}

// entityStopwords are capitalised words that carry no entity meaning and
// are skipped by the grounding check.
var entityStopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "i": {}, "it": {}, "he": {}, "she": {},
	"we": {}, "they": {}, "you": {}, "in": {}, "on": {}, "at": {}, "my": {},
	"yes": {}, "no": {}, "based": {}, "according": {}, "what": {},
	"when": {}, "where": {}, "who": {}, "how": {}, "there": {}, "this": {},
}

var numericTokenRe = regexp.MustCompile(`\b\d+(?:[-./]\d+)*\b`)

// Validator scores a synthesized answer against its evidence. It never
// raises: unsupported answers are returned annotated, and the boundary
// layer decides policy.
type Validator struct{}

// NewValidator creates a validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate returns a new Answer with Supported and Confidence settled.
//
// An answer is unsupported when it states inability, or when any numeric,
// date, or named-entity token in its text is absent from the evidence.
// Supported answers get their confidence down-weighted by the retrieval's
// top fused score.
func (v *Validator) Validate(ans domain.Answer, cands []domain.Candidate, msgs []domain.Message) domain.Answer {
	if ans.Method == domain.MethodNone {
		ans.Supported = false
		ans.Confidence = 0
		return ans
	}

	if statesInability(ans.Text) {
		logger.Debug("Answer states inability, marking unsupported")
		ans.Supported = false
		ans.Confidence = 0
		return ans
	}

	evidence := evidenceTokens(ans, cands, msgs)
	if missing := ungroundedToken(ans.Text, evidence); missing != "" {
		logger.Debug("Token %q not grounded in evidence", missing)
		ans.Supported = false
		ans.Confidence = clamp01(ans.Confidence * unsupportedPenalty)
		return ans
	}

	ans.Supported = true
	if len(cands) > 0 {
		ans.Confidence = clamp01(ans.Confidence * cands[0].Fused)
	}
	return ans
}

// statesInability reports whether the answer declined to answer.
func statesInability(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range inabilityPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// evidenceTokens collects the lowercased tokens of the cited messages'
// context lines. Sender names and timestamps count as grounded content
// because the grounding context exposes them to the generation capability.
// Token-level matching keeps a "3" in the answer from being grounded by
// the 3 inside an unrelated timestamp.
func evidenceTokens(ans domain.Answer, cands []domain.Candidate, msgs []domain.Message) map[string]struct{} {
	cited := make(map[string]struct{}, len(ans.Evidence))
	for _, ref := range ans.Evidence {
		cited[ref] = struct{}{}
	}

	tokens := make(map[string]struct{})
	for i := range cands {
		if _, ok := cited[cands[i].Ref]; ok && i < len(msgs) {
			for _, tok := range domain.Tokenize(domain.ContextLine(msgs[i])) {
				tokens[tok] = struct{}{}
			}
		}
	}
	return tokens
}

// ungroundedToken returns the first numeric or entity token of the answer
// that does not appear in the evidence, or "" when all are grounded.
func ungroundedToken(answer string, evidence map[string]struct{}) string {
	for _, tok := range numericTokenRe.FindAllString(answer, -1) {
		// Compound tokens like 2024-03-10 are grounded part by part, the
		// same way the tokenizer splits the evidence.
		for _, part := range domain.Tokenize(tok) {
			if _, ok := evidence[part]; !ok {
				return tok
			}
		}
	}
	for _, tok := range entityTokens(answer) {
		if _, ok := evidence[strings.ToLower(tok)]; !ok {
			return tok
		}
	}
	return ""
}

// entityTokens extracts capitalised words that look like names.
func entityTokens(text string) []string {
	var out []string
	for _, word := range strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	}) {
		word = strings.TrimSuffix(word, "'s")
		runes := []rune(word)
		if len(runes) < 2 || !unicode.IsUpper(runes[0]) {
			continue
		}
		if _, stop := entityStopwords[strings.ToLower(word)]; stop {
			continue
		}
		out = append(out, word)
	}
	return out
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
