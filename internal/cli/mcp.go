package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/alnah/medreport/internal/dispatch"
	"github.com/alnah/medreport/internal/mcpserver"
)

// MCPCmd creates the mcp command.
func MCPCmd(env *Env, version string) *cobra.Command {
	var svc serviceFlags

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve report tools over MCP (stdio)",
		Long: `Serve report generation as Model Context Protocol tools on stdin/stdout.

Tools:
  generate_report       one report {transcript, kind}
  generate_all_reports  all five reports {transcript}
  clear_cache           forget memoized reports
  list_report_kinds     list kinds and titles

Logs go to stderr; stdout carries the protocol.`,
		Example: `  medreport mcp --provider deepseek`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := svc.parse()
			if err != nil {
				return err
			}
			return runMCP(cmd.Context(), env, service, version, &mcp.StdioTransport{})
		},
	}

	svc.register(cmd)
	return cmd
}

// runMCP serves tools on transport until the client disconnects or ctx is done.
func runMCP(ctx context.Context, env *Env, opts serviceOptions, version string, transport mcp.Transport) error {
	cfg := loadConfig(env)
	s, err := resolveSettings(opts, cfg)
	if err != nil {
		return err
	}

	logger := newLogger(env.Stderr, slog.LevelWarn, opts.verbose)
	d, err := newDispatcher(env, s, dispatch.Config{
		Parallel: opts.parallel,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	logger.Info("mcp server starting",
		slog.String("provider", s.provider.String()),
		slog.Any("models", d.Models()),
	)

	err = mcpserver.New(d, version).Run(ctx, transport)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
