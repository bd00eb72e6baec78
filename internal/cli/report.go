package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/medreport/internal/config"
	"github.com/alnah/medreport/internal/dispatch"
	"github.com/alnah/medreport/internal/format"
	"github.com/alnah/medreport/internal/report"
)

// maxTranscriptBytes bounds transcripts read from stdin.
const maxTranscriptBytes = 2 << 20

// reportOptions holds validated options for the report command.
type reportOptions struct {
	inputPath string // "" or "-" reads stdin
	example   int    // 1-based; 0 means none
	kinds     []string
	format    format.Format
	output    string
	service   serviceOptions
}

// ReportCmd creates the report command.
// The env parameter provides injectable dependencies for testing.
func ReportCmd(env *Env) *cobra.Command {
	var (
		example    int
		kinds      []string
		formatName string
		output     string
		svc        serviceFlags
	)

	cmd := &cobra.Command{
		Use:   "report [transcript-file|-]",
		Short: "Generate reports from a doctor-patient conversation",
		Long: `Generate reports from a doctor-patient conversation.

Five kinds are available: ` + strings.Join(report.Names(), ", ") + `.
All five are generated unless --kind is given. Each report tries the
primary model, then the fallback model. Unknown kinds and reports that
could not be generated appear in the output with a short notice.

The transcript is read from the file argument, from stdin when the
argument is "-" or missing, or from a built-in sample with --example.

Reports are written to stdout, or to --output. Existing files are never
overwritten. With output-dir configured, reports are always saved there.`,
		Example: `  medreport report visit.txt
  medreport report visit.txt -k patient -k doctor -f markdown -o visit.md
  medreport report --example 1 --provider deepseek
  cat visit.txt | medreport report - -L hi -f json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var input string
			if len(args) == 1 {
				input = args[0]
			}
			// Parse all inputs at the CLI boundary
			opts, err := parseReportOptions(input, example, kinds, formatName, output, svc)
			if err != nil {
				return err
			}
			return runReport(cmd.Context(), env, opts)
		},
	}

	cmd.Flags().IntVarP(&example, "example", "e", 0, "Use built-in sample conversation N (see 'medreport examples')")
	cmd.Flags().StringSliceVarP(&kinds, "kind", "k", nil, "Report kind, repeatable: "+strings.Join(report.Names(), ", ")+" (default: all)")
	cmd.Flags().StringVarP(&formatName, "format", "f", string(format.Text), "Output format: "+strings.Join(format.Names(), ", "))
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (default: stdout, or a timestamped file in output-dir)")
	svc.register(cmd)

	return cmd
}

// parseReportOptions validates and parses CLI inputs into reportOptions.
// Kind names are kept as given: unknown kinds become sentinels in the
// output rather than aborting the batch.
func parseReportOptions(inputPath string, example int, kinds []string, formatName, output string, svc serviceFlags) (reportOptions, error) {
	if example != 0 {
		if inputPath != "" {
			return reportOptions{}, ErrInputConflict
		}
		if _, err := report.ExampleAt(example); err != nil {
			return reportOptions{}, err
		}
	}

	f, err := format.Parse(formatName)
	if err != nil {
		return reportOptions{}, err
	}

	service, err := svc.parse()
	if err != nil {
		return reportOptions{}, err
	}

	return reportOptions{
		inputPath: inputPath,
		example:   example,
		kinds:     kinds,
		format:    f,
		output:    output,
		service:   service,
	}, nil
}

// runReport executes the report command with validated options.
func runReport(ctx context.Context, env *Env, opts reportOptions) error {
	// === VALIDATION (fail-fast) ===

	cfg := loadConfig(env)

	s, err := resolveSettings(opts.service, cfg)
	if err != nil {
		return err
	}

	transcript, source, err := readTranscript(env, opts)
	if err != nil {
		return err
	}
	if strings.TrimSpace(transcript) == "" {
		return ErrEmptyTranscript
	}

	outputPath := resolveReportOutput(env, opts, cfg)
	if outputPath != "" {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("%s: %w", outputPath, ErrOutputExists)
		}
		warnExtensionMismatch(env.Stderr, outputPath, opts.format)
	}

	// === GENERATE ===

	d, err := newDispatcher(env, s, dispatch.Config{
		Parallel: opts.service.parallel,
		Logger:   newLogger(env.Stderr, slog.LevelWarn, opts.service.verbose),
		OnStart: func(name string) {
			fmt.Fprintf(env.Stderr, "Generating %s...\n", displayTitle(name))
		},
		OnDone: func(r dispatch.Report) {
			warnReport(env.Stderr, r)
		},
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Reports for %s (provider: %s, models: %s)\n",
		source, s.provider, strings.Join(d.Models(), ", "))

	started := env.Now()

	reports := d.GenerateBatch(ctx, transcript, opts.kinds)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("report generation interrupted: %w", err)
	}

	// === WRITE OUTPUT ===

	var buf bytes.Buffer
	if err := format.Render(&buf, opts.format, reports); err != nil {
		return err
	}

	if outputPath == "" {
		if _, err := env.Stdout.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	} else {
		if err := writeFileAtomic(outputPath, buf.String()); err != nil {
			return err
		}
		fmt.Fprintf(env.Stderr, "Done: %s (%s in %s)\n",
			outputPath, format.Size(int64(buf.Len())), format.Duration(env.Now().Sub(started)))
	}

	return batchError(dispatch.Summarize(reports), len(reports))
}

// readTranscript returns the transcript and a description of its source.
func readTranscript(env *Env, opts reportOptions) (transcript, source string, err error) {
	if opts.example > 0 {
		ex, err := report.ExampleAt(opts.example)
		if err != nil {
			return "", "", err
		}
		return ex.Conversation, fmt.Sprintf("example %d (%s)", opts.example, ex.Title), nil
	}

	if opts.inputPath == "" || opts.inputPath == "-" {
		data, err := io.ReadAll(io.LimitReader(env.Stdin, maxTranscriptBytes))
		if err != nil {
			return "", "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), "stdin", nil
	}

	if _, err := os.Stat(opts.inputPath); err != nil {
		if os.IsNotExist(err) {
			return "", "", fmt.Errorf("%s: %w", opts.inputPath, ErrFileNotFound)
		}
		return "", "", fmt.Errorf("cannot access file: %w", err)
	}

	// #nosec G304 -- inputPath is user-provided, validated above
	data, err := os.ReadFile(opts.inputPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to read file: %w", err)
	}
	return string(data), opts.inputPath, nil
}

// resolveReportOutput returns the output file path, or "" for stdout.
// A relative --output is resolved against output-dir.
func resolveReportOutput(env *Env, opts reportOptions, cfg config.Config) string {
	outputDir := config.ExpandPath(cfg.OutputDir)
	if opts.output == "" && outputDir == "" {
		return ""
	}
	return config.ResolveOutputPath(opts.output, outputDir, defaultReportFilename(env.Now(), opts.format))
}

// displayTitle returns the heading of a kind name, or the quoted name when
// the kind is unknown.
func displayTitle(name string) string {
	if k, err := report.ParseKind(name); err == nil {
		return k.Title()
	}
	return fmt.Sprintf("%q", name)
}

// warnReport prints a notice for sentinel reports.
func warnReport(w io.Writer, r dispatch.Report) {
	switch r.Status {
	case dispatch.StatusInvalidKind:
		fmt.Fprintf(w, "Warning: %s %q (valid: %s)\n",
			dispatch.InvalidKindText, r.Name, strings.Join(report.Names(), ", "))
	case dispatch.StatusUnavailable:
		fmt.Fprintf(w, "Warning: %s: %s\n", r.Title, r.ErrorText())
	}
}

// batchError maps sentinel reports to an error for the exit code.
// Invalid kinds take precedence over unavailable reports.
func batchError(s dispatch.Summary, total int) error {
	switch {
	case s.InvalidKind > 0:
		return fmt.Errorf("%d of %d reports: %w", s.InvalidKind, total, ErrInvalidReports)
	case s.Unavailable > 0:
		return fmt.Errorf("%d of %d reports: %w", s.Unavailable, total, ErrReportsUnavailable)
	}
	return nil
}
