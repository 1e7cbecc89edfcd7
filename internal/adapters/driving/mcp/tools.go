package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/caravel-labs/rosterqa/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the natural-language question about the member messages"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer     string           `json:"answer"`
	Confidence float64          `json:"confidence"`
	Supported  bool             `json:"supported"`
	Method     string           `json:"method"`
	Citations  []CitationOutput `json:"citations,omitempty"`
}

// CitationOutput points an answer back at one evidence message.
type CitationOutput struct {
	MessageID string `json:"message_id"`
	Sender    string `json:"sender"`
	Timestamp string `json:"timestamp"`
	Snippet   string `json:"snippet"`
}

// InsightsInput is the (empty) input schema for the insights tool.
type InsightsInput struct{}

// InsightsOutput is the output schema for the insights tool.
type InsightsOutput struct {
	Generation    uint64          `json:"generation"`
	GeneratedAt   string          `json:"generated_at"`
	TotalMessages int             `json:"total_messages"`
	TopSenders    []SenderOutput  `json:"top_senders"`
	Findings      []FindingOutput `json:"findings"`
}

// SenderOutput pairs a member with their message count.
type SenderOutput struct {
	Sender string `json:"sender"`
	Count  int    `json:"count"`
}

// FindingOutput represents one corpus anomaly.
type FindingOutput struct {
	Kind        string   `json:"kind"`
	Severity    string   `json:"severity"`
	AffectedIDs []string `json:"affected_ids"`
	Detail      string   `json:"detail"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Ask a natural-language question about the member messages",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "insights",
		Description: "Read the quality report for the current message corpus",
	}, s.handleInsights)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	ans, err := s.ports.Answers.Ask(ctx, input.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:     ans.Text,
		Confidence: ans.Confidence,
		Supported:  ans.Supported,
		Method:     string(ans.Method),
		Citations:  make([]CitationOutput, len(ans.Citations)),
	}

	for i := range ans.Citations {
		output.Citations[i] = CitationOutput{
			MessageID: ans.Citations[i].MessageID,
			Sender:    ans.Citations[i].SenderName,
			Timestamp: ans.Citations[i].Timestamp.UTC().Format(time.RFC3339),
			Snippet:   ans.Citations[i].Snippet,
		}
	}

	return nil, output, nil
}

// handleInsights handles the insights tool invocation.
func (s *Server) handleInsights(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ InsightsInput,
) (*mcp.CallToolResult, InsightsOutput, error) {
	if s.ports.Corpus == nil {
		return nil, InsightsOutput{}, domain.ErrNotReady
	}

	report, err := s.ports.Corpus.LatestReport()
	if err != nil {
		return nil, InsightsOutput{}, err
	}

	output := InsightsOutput{
		Generation:    report.Generation,
		GeneratedAt:   report.GeneratedAt.UTC().Format(time.RFC3339),
		TotalMessages: report.Highlights.TotalMessages,
		TopSenders:    make([]SenderOutput, len(report.Highlights.MessagesPerSender)),
		Findings:      make([]FindingOutput, len(report.Findings)),
	}

	for i, sc := range report.Highlights.MessagesPerSender {
		output.TopSenders[i] = SenderOutput{Sender: sc.Sender, Count: sc.Count}
	}
	for i, f := range report.Findings {
		output.Findings[i] = FindingOutput{
			Kind:        string(f.Kind),
			Severity:    string(f.Severity),
			AffectedIDs: f.AffectedIDs,
			Detail:      f.Detail,
		}
	}

	return nil, output, nil
}
