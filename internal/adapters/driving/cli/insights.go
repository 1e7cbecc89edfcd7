package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/caravel-labs/rosterqa/internal/core/domain"
)

var (
	insightsJSON     bool
	insightsMarkdown bool
)

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Show the corpus quality report",
	Long: `Shows the quality report generated during the last corpus rebuild:
per-sender message counts plus anomaly findings (duplicate ids, future
timestamps, length outliers, and records dropped during cleaning).`,
	RunE: runInsights,
}

func init() {
	insightsCmd.Flags().BoolVar(&insightsJSON, "json", false, "output the report as JSON")
	insightsCmd.Flags().BoolVar(&insightsMarkdown, "markdown", false, "output the report as Markdown")
	rootCmd.AddCommand(insightsCmd)
}

func runInsights(cmd *cobra.Command, _ []string) error {
	if corpusService == nil {
		return errors.New("corpus service not configured")
	}

	report, err := corpusService.LatestReport()
	if err != nil {
		if errors.Is(err, domain.ErrNotReady) {
			return errors.New("corpus not built yet - run 'rosterqa refresh' first")
		}
		return fmt.Errorf("insights failed: %w", err)
	}

	switch {
	case insightsJSON:
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		cmd.Println(string(data))
	case insightsMarkdown:
		cmd.Print(renderMarkdown(report))
	default:
		cmd.Print(renderText(report))
	}

	return nil
}

// kindLabels give each finding kind a human heading.
var kindLabels = map[domain.FindingKind]string{
	domain.FindingDuplicateID:     "Duplicate IDs",
	domain.FindingFutureTimestamp: "Future Timestamps",
	domain.FindingLengthOutlier:   "Length Outliers",
	domain.FindingEmptyAfterClean: "Dropped After Cleaning",
}

// kindOrder fixes the section order in rendered reports.
var kindOrder = []domain.FindingKind{
	domain.FindingDuplicateID,
	domain.FindingFutureTimestamp,
	domain.FindingLengthOutlier,
	domain.FindingEmptyAfterClean,
}

func renderText(report domain.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Corpus insights (generation %d, %s)\n",
		report.Generation, report.GeneratedAt.UTC().Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "  %d messages, mean length %.1f tokens\n",
		report.Highlights.TotalMessages, report.Highlights.MeanTokenLength)

	if len(report.Highlights.MessagesPerSender) > 0 {
		b.WriteString("\nMessages per sender:\n")
		for _, sc := range report.Highlights.MessagesPerSender {
			fmt.Fprintf(&b, "  %-20s %d\n", sc.Sender, sc.Count)
		}
	}

	if len(report.Findings) == 0 {
		b.WriteString("\nNo anomalies found.\n")
		return b.String()
	}

	for _, kind := range kindOrder {
		findings := findingsOfKind(report, kind)
		if len(findings) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s (%d):\n", kindLabels[kind], len(findings))
		for _, f := range findings {
			fmt.Fprintf(&b, "  - %s\n", f.Detail)
		}
	}

	return b.String()
}

func renderMarkdown(report domain.Report) string {
	var b strings.Builder

	b.WriteString("# Corpus Insights\n\n")
	fmt.Fprintf(&b, "Generation %d, generated %s.\n\n",
		report.Generation, report.GeneratedAt.UTC().Format("2006-01-02 15:04"))

	b.WriteString("## Highlights\n\n")
	fmt.Fprintf(&b, "- **Messages:** %d\n", report.Highlights.TotalMessages)
	fmt.Fprintf(&b, "- **Mean token length:** %.1f\n", report.Highlights.MeanTokenLength)

	if len(report.Highlights.MessagesPerSender) > 0 {
		b.WriteString("\n| Sender | Messages |\n|---|---|\n")
		for _, sc := range report.Highlights.MessagesPerSender {
			fmt.Fprintf(&b, "| %s | %d |\n", sc.Sender, sc.Count)
		}
	}

	b.WriteString("\n## Findings\n\n")
	if len(report.Findings) == 0 {
		b.WriteString("No anomalies found.\n")
		return b.String()
	}

	for _, kind := range kindOrder {
		findings := findingsOfKind(report, kind)
		if len(findings) == 0 {
			continue
		}
		fmt.Fprintf(&b, "### %s\n\n", kindLabels[kind])
		for _, f := range findings {
			fmt.Fprintf(&b, "- %s", f.Detail)
			if len(f.AffectedIDs) > 0 {
				fmt.Fprintf(&b, " (`%s`)", strings.Join(f.AffectedIDs, "`, `"))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	return b.String()
}

func findingsOfKind(report domain.Report, kind domain.FindingKind) []domain.Finding {
	var out []domain.Finding
	for _, f := range report.Findings {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}
