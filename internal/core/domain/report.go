package domain

import "time"

// FindingKind identifies one class of corpus anomaly.
type FindingKind string

const (
	// FindingDuplicateID flags an id shared by more than one record.
	FindingDuplicateID FindingKind = "duplicate-id"

	// FindingFutureTimestamp flags a message dated after the analysis clock.
	FindingFutureTimestamp FindingKind = "future-timestamp"

	// FindingLengthOutlier flags a message far above the typical length.
	FindingLengthOutlier FindingKind = "length-outlier"

	// FindingEmptyAfterClean flags a message dropped because cleaning left
	// no text.
	FindingEmptyAfterClean FindingKind = "empty-after-clean"
)

// Severity grades a finding.
type Severity string

const (
	SeverityDataIntegrity  Severity = "data-integrity"
	SeverityQualityWarning Severity = "quality-warning"
	SeverityDataLoss       Severity = "data-loss"
)

// Finding is one structured anomaly record.
type Finding struct {
	ID          string      `json:"id"`
	Kind        FindingKind `json:"kind"`
	Severity    Severity    `json:"severity"`
	AffectedIDs []string    `json:"affected_ids"`
	Detail      string      `json:"detail"`
}

// SenderCount pairs a member with their message count.
type SenderCount struct {
	Sender string `json:"sender"`
	Count  int    `json:"count"`
}

// Highlights summarises corpus-level statistics.
type Highlights struct {
	// TotalMessages is the number of messages that survived cleaning.
	TotalMessages int `json:"total_messages"`

	// MessagesPerSender is ordered by count descending, then sender
	// ascending.
	MessagesPerSender []SenderCount `json:"messages_per_sender"`

	// MeanTokenLength is the mean token count across surviving messages.
	MeanTokenLength float64 `json:"mean_token_length"`
}

// Report is the quality report for one corpus generation. A rebuild
// replaces the previous report wholesale.
type Report struct {
	ID          string     `json:"id"`
	Generation  uint64     `json:"generation"`
	GeneratedAt time.Time  `json:"generated_at"`
	Highlights  Highlights `json:"highlights"`
	Findings    []Finding  `json:"findings"`
}

// CountByKind returns how many findings have the given kind.
func (r Report) CountByKind(kind FindingKind) int {
	n := 0
	for _, f := range r.Findings {
		if f.Kind == kind {
			n++
		}
	}
	return n
}
