package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/alnah/medreport/internal/apierr"
	"github.com/alnah/medreport/internal/cli"
	"github.com/alnah/medreport/internal/completion"
	"github.com/alnah/medreport/internal/config"
	"github.com/alnah/medreport/internal/dispatch"
	"github.com/alnah/medreport/internal/format"
	"github.com/alnah/medreport/internal/lang"
	"github.com/alnah/medreport/internal/report"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Exit codes.
const (
	ExitOK         = 0
	ExitGeneral    = 1
	ExitUsage      = 2
	ExitSetup      = 3
	ExitValidation = 4
	ExitService    = 5
	ExitInterrupt  = 130
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	env := cli.DefaultEnv()

	if err := newRootCmd(env).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		cancel()
		os.Exit(exitCode(err))
	}
}

// newRootCmd assembles the command tree.
func newRootCmd(env *cli.Env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "medreport",
		Short:   "Generate medical reports from doctor-patient conversations",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.AddCommand(cli.ReportCmd(env))
	rootCmd.AddCommand(cli.ExamplesCmd(env))
	rootCmd.AddCommand(cli.ConfigCmd(env))
	rootCmd.AddCommand(cli.ServeCmd(env, version))
	rootCmd.AddCommand(cli.MCPCmd(env, version))

	return rootCmd
}

// exitCode maps errors to process exit codes.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}

	if isCobraUsageError(err) || errors.Is(err, cli.ErrInputConflict) {
		return ExitUsage
	}

	if errors.Is(err, cli.ErrAPIKeyMissing) || errors.Is(err, cli.ErrDeepSeekKeyMissing) ||
		errors.Is(err, completion.ErrEmptyAPIKey) || errors.Is(err, dispatch.ErrNoModels) {
		return ExitSetup
	}

	if errors.Is(err, cli.ErrInvalidReports) || errors.Is(err, cli.ErrEmptyTranscript) ||
		errors.Is(err, cli.ErrFileNotFound) || errors.Is(err, cli.ErrOutputExists) ||
		errors.Is(err, cli.ErrInvalidParallel) || errors.Is(err, cli.ErrInvalidProvider) ||
		errors.Is(err, lang.ErrInvalid) || errors.Is(err, report.ErrUnknownKind) ||
		errors.Is(err, report.ErrUnknownExample) || errors.Is(err, format.ErrUnknownFormat) ||
		errors.Is(err, config.ErrUnknownKey) || errors.Is(err, config.ErrInvalidKey) ||
		errors.Is(err, config.ErrInvalidValue) || errors.Is(err, config.ErrNotDirectory) ||
		errors.Is(err, config.ErrNotWritable) {
		return ExitValidation
	}

	if errors.Is(err, cli.ErrReportsUnavailable) || errors.Is(err, dispatch.ErrServiceUnavailable) ||
		errors.Is(err, apierr.ErrRateLimit) || errors.Is(err, apierr.ErrQuotaExceeded) ||
		errors.Is(err, apierr.ErrTimeout) || errors.Is(err, apierr.ErrAuthFailed) ||
		errors.Is(err, apierr.ErrServer) {
		return ExitService
	}

	return ExitGeneral
}

// cobraUsageErrorPatterns contains error message substrings that indicate Cobra usage errors.
// Cobra doesn't expose typed errors, so string matching is the only reliable approach.
var cobraUsageErrorPatterns = []string{
	"required flag",
	"unknown flag",
	"unknown shorthand",
	"unknown command",
	"flag needs an argument",
	"invalid argument",
	"accepts ",
	"requires at least",
	"requires at most",
}

// isCobraUsageError checks if an error is a Cobra usage/parsing error.
func isCobraUsageError(err error) bool {
	errMsg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
