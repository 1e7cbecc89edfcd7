package services

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/caravel-labs/rosterqa/internal/core/domain"
)

// outlierPercentile is the nearest-rank percentile used as the length
// outlier threshold. Under ~100 messages it degenerates toward the
// maximum, which is expected at that scale, not a bug.
const outlierPercentile = 0.99

// Analyze profiles one corpus generation for ingestion-quality defects.
// It is a pure function of the snapshot, the cleaning drops, and the
// analysis clock: no side effects beyond the returned report.
func Analyze(generationID uint64, messages []domain.Message, dropped []domain.RawMessage, now time.Time) domain.Report {
	report := domain.Report{
		ID:          uuid.New().String(),
		Generation:  generationID,
		GeneratedAt: now,
		Highlights:  buildHighlights(messages),
		Findings:    []domain.Finding{},
	}

	report.Findings = append(report.Findings, duplicateIDFindings(messages)...)
	report.Findings = append(report.Findings, futureTimestampFindings(messages, now)...)
	report.Findings = append(report.Findings, lengthOutlierFindings(messages)...)
	report.Findings = append(report.Findings, emptyAfterCleanFindings(dropped)...)

	return report
}

// buildHighlights summarises corpus-level counts.
func buildHighlights(messages []domain.Message) domain.Highlights {
	h := domain.Highlights{TotalMessages: len(messages)}
	if len(messages) == 0 {
		return h
	}

	counts := make(map[string]int)
	tokens := 0
	for _, m := range messages {
		counts[m.SenderName]++
		tokens += m.TokenCount
	}

	h.MessagesPerSender = make([]domain.SenderCount, 0, len(counts))
	for sender, count := range counts {
		h.MessagesPerSender = append(h.MessagesPerSender, domain.SenderCount{Sender: sender, Count: count})
	}
	sort.Slice(h.MessagesPerSender, func(i, j int) bool {
		if h.MessagesPerSender[i].Count != h.MessagesPerSender[j].Count {
			return h.MessagesPerSender[i].Count > h.MessagesPerSender[j].Count
		}
		return h.MessagesPerSender[i].Sender < h.MessagesPerSender[j].Sender
	})

	h.MeanTokenLength = float64(tokens) / float64(len(messages))
	return h
}

// duplicateIDFindings flags every id shared by more than one record, one
// finding per duplicated id, ordered by first occurrence.
func duplicateIDFindings(messages []domain.Message) []domain.Finding {
	indices := make(map[string][]int)
	var order []string
	for i, m := range messages {
		if len(indices[m.ID]) == 0 {
			order = append(order, m.ID)
		}
		indices[m.ID] = append(indices[m.ID], i)
	}

	var findings []domain.Finding
	for _, id := range order {
		occ := indices[id]
		if len(occ) < 2 {
			continue
		}
		findings = append(findings, domain.Finding{
			ID:          uuid.New().String(),
			Kind:        domain.FindingDuplicateID,
			Severity:    domain.SeverityDataIntegrity,
			AffectedIDs: []string{id},
			Detail:      fmt.Sprintf("id %s appears %d times at corpus positions %v", id, len(occ), occ),
		})
	}
	return findings
}

// futureTimestampFindings flags messages dated strictly after the analysis
// clock.
func futureTimestampFindings(messages []domain.Message, now time.Time) []domain.Finding {
	var findings []domain.Finding
	for _, m := range messages {
		if !m.Timestamp.After(now) {
			continue
		}
		findings = append(findings, domain.Finding{
			ID:          uuid.New().String(),
			Kind:        domain.FindingFutureTimestamp,
			Severity:    domain.SeverityDataIntegrity,
			AffectedIDs: []string{m.ID},
			Detail: fmt.Sprintf("message from %s is timestamped %s, after the analysis time %s",
				m.SenderName, m.Timestamp.UTC().Format(time.RFC3339), now.UTC().Format(time.RFC3339)),
		})
	}
	return findings
}

// lengthOutlierFindings flags messages whose token count exceeds the 99th
// percentile of the distribution.
func lengthOutlierFindings(messages []domain.Message) []domain.Finding {
	if len(messages) < 2 {
		return nil
	}

	counts := make([]int, len(messages))
	for i, m := range messages {
		counts[i] = m.TokenCount
	}
	threshold := percentileNearestRank(counts, outlierPercentile)

	var findings []domain.Finding
	for _, m := range messages {
		if m.TokenCount <= threshold {
			continue
		}
		findings = append(findings, domain.Finding{
			ID:          uuid.New().String(),
			Kind:        domain.FindingLengthOutlier,
			Severity:    domain.SeverityQualityWarning,
			AffectedIDs: []string{m.ID},
			Detail: fmt.Sprintf("unusually long message from %s: %d tokens (p99 threshold %d)",
				m.SenderName, m.TokenCount, threshold),
		})
	}
	return findings
}

// emptyAfterCleanFindings reports the messages the cleaning step dropped.
func emptyAfterCleanFindings(dropped []domain.RawMessage) []domain.Finding {
	var findings []domain.Finding
	for _, r := range dropped {
		findings = append(findings, domain.Finding{
			ID:          uuid.New().String(),
			Kind:        domain.FindingEmptyAfterClean,
			Severity:    domain.SeverityDataLoss,
			AffectedIDs: []string{r.ID},
			Detail:      fmt.Sprintf("message %s from %s was empty after cleaning and excluded from the corpus", r.ID, r.SenderName),
		})
	}
	return findings
}

// percentileNearestRank computes the p-th percentile of values with the
// nearest-rank method over a sorted copy. Side-effect free.
func percentileNearestRank(values []int, p float64) int {
	sorted := make([]int, len(values))
	copy(sorted, values)
	sort.Ints(sorted)

	rank := int(math.Ceil(float64(len(sorted)) * p))
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}
