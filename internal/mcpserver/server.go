// Package mcpserver exposes report generation as MCP tools.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/alnah/medreport/internal/dispatch"
)

// Generator is the subset of *dispatch.Dispatcher the tools need.
type Generator interface {
	GenerateNamed(ctx context.Context, transcript, name string) dispatch.Report
	GenerateBatch(ctx context.Context, transcript string, names []string) []dispatch.Report
	ClearCache()
}

var _ Generator = (*dispatch.Dispatcher)(nil)

// Server wraps the MCP server with a report generator.
type Server struct {
	server *mcp.Server
	gen    Generator
}

// New creates an MCP server with all report tools registered.
func New(gen Generator, version string) *Server {
	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "medreport",
			Version: version,
		}, nil),
		gen: gen,
	}
	s.registerTools()
	return s
}

// Run serves tools on transport until ctx is done or the peer disconnects.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.server.Run(ctx, transport)
}

// MCP returns the underlying server, for connecting custom transports.
func (s *Server) MCP() *mcp.Server {
	return s.server
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "generate_report",
		Description: "Generate one report (patient, doctor, firm, sentiment or intent) from a doctor-patient conversation",
	}, s.handleGenerateReport)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "generate_all_reports",
		Description: "Generate all five reports from a doctor-patient conversation",
	}, s.handleGenerateAll)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "clear_cache",
		Description: "Forget every memoized report",
	}, s.handleClearCache)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_report_kinds",
		Description: "List the report kinds and their titles",
	}, s.handleListKinds)
}
