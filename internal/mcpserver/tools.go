package mcpserver

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/alnah/medreport/internal/dispatch"
	"github.com/alnah/medreport/internal/report"
)

// ErrEmptyTranscript is returned when a tool is called without a transcript.
var ErrEmptyTranscript = errors.New("transcript is empty, please paste or select a conversation")

// GenerateReportArgs are the arguments for the generate_report tool.
type GenerateReportArgs struct {
	// Transcript is the doctor-patient conversation.
	Transcript string `json:"transcript" jsonschema:"The doctor-patient conversation"`

	// Kind is the report kind name.
	Kind string `json:"kind" jsonschema:"One of patient, doctor, firm, sentiment, intent"`
}

// ReportResult is one generated report.
type ReportResult struct {
	Kind   string `json:"kind"`
	Title  string `json:"title,omitempty"`
	Status string `json:"status"`
	Model  string `json:"model,omitempty"`
	Cached bool   `json:"cached"`
	Text   string `json:"text"`
}

func toResult(r dispatch.Report) ReportResult {
	return ReportResult{
		Kind:   r.Name,
		Title:  r.Title,
		Status: r.Status.String(),
		Model:  r.Model,
		Cached: r.Cached,
		Text:   r.Text,
	}
}

func (s *Server) handleGenerateReport(ctx context.Context,
	req *mcp.CallToolRequest, args GenerateReportArgs) (*mcp.CallToolResult, ReportResult, error) {

	if strings.TrimSpace(args.Transcript) == "" {
		return nil, ReportResult{}, ErrEmptyTranscript
	}

	rep := s.gen.GenerateNamed(ctx, args.Transcript, args.Kind)
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: rep.Text}},
		IsError: !rep.OK(),
	}, toResult(rep), nil
}

// GenerateAllArgs are the arguments for the generate_all_reports tool.
type GenerateAllArgs struct {
	Transcript string `json:"transcript" jsonschema:"The doctor-patient conversation"`
}

// GenerateAllResult holds the five reports in canonical order.
type GenerateAllResult struct {
	Reports []ReportResult `json:"reports"`
}

func (s *Server) handleGenerateAll(ctx context.Context,
	req *mcp.CallToolRequest, args GenerateAllArgs) (*mcp.CallToolResult, GenerateAllResult, error) {

	if strings.TrimSpace(args.Transcript) == "" {
		return nil, GenerateAllResult{}, ErrEmptyTranscript
	}

	reports := s.gen.GenerateBatch(ctx, args.Transcript, nil)
	result := GenerateAllResult{Reports: make([]ReportResult, len(reports))}
	var text strings.Builder
	for i, r := range reports {
		result.Reports[i] = toResult(r)
		if i > 0 {
			text.WriteString("\n\n")
		}
		text.WriteString("## " + r.Title + "\n\n" + r.Text)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text.String()}},
	}, result, nil
}

// ClearCacheArgs takes no arguments.
type ClearCacheArgs struct{}

// ClearCacheResult confirms the cache was cleared.
type ClearCacheResult struct {
	Cleared bool `json:"cleared"`
}

func (s *Server) handleClearCache(ctx context.Context,
	req *mcp.CallToolRequest, args ClearCacheArgs) (*mcp.CallToolResult, ClearCacheResult, error) {

	s.gen.ClearCache()
	return nil, ClearCacheResult{Cleared: true}, nil
}

// ListKindsArgs takes no arguments.
type ListKindsArgs struct{}

// KindInfo names one report kind.
type KindInfo struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// ListKindsResult lists the kinds in canonical order.
type ListKindsResult struct {
	Kinds []KindInfo `json:"kinds"`
}

func (s *Server) handleListKinds(ctx context.Context,
	req *mcp.CallToolRequest, args ListKindsArgs) (*mcp.CallToolResult, ListKindsResult, error) {

	kinds := report.Kinds()
	result := ListKindsResult{Kinds: make([]KindInfo, len(kinds))}
	for i, k := range kinds {
		result.Kinds[i] = KindInfo{Name: k.String(), Title: k.Title()}
	}
	return nil, result, nil
}
