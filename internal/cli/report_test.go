package cli

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/alnah/medreport/internal/apierr"
	"github.com/alnah/medreport/internal/config"
	"github.com/alnah/medreport/internal/format"
	"github.com/alnah/medreport/internal/report"
)

const sampleTranscript = "डॉक्टर: नमस्ते, क्या तकलीफ है?\nमरीज: दो दिन से बुखार है।"

// reportOpts returns options for a text-format run over inputPath.
func reportOpts(inputPath string, kinds ...string) reportOptions {
	return reportOptions{
		inputPath: inputPath,
		kinds:     kinds,
		format:    format.Text,
		service:   serviceOptions{parallel: 1},
	}
}

// ---------------------------------------------------------------------------
// Tests for parseReportOptions
// ---------------------------------------------------------------------------

func TestParseReportOptions(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		opts, err := parseReportOptions("", 2, []string{"doctor"}, "md", "out.md", serviceFlags{parallel: 3})
		if err != nil {
			t.Fatalf("parseReportOptions() unexpected error: %v", err)
		}
		if opts.example != 2 || opts.format != format.Markdown || opts.output != "out.md" || opts.service.parallel != 3 {
			t.Errorf("parseReportOptions() = %+v", opts)
		}
	})

	t.Run("unknown kinds are kept", func(t *testing.T) {
		t.Parallel()

		opts, err := parseReportOptions("visit.txt", 0, []string{"Patient", "x"}, "text", "", serviceFlags{parallel: 1})
		if err != nil {
			t.Fatalf("parseReportOptions() unexpected error: %v", err)
		}
		if !slices.Equal(opts.kinds, []string{"Patient", "x"}) {
			t.Errorf("kinds = %v, want kept as given", opts.kinds)
		}
	})

	tests := []struct {
		name    string
		input   string
		example int
		format  string
		flags   serviceFlags
		wantErr error
	}{
		{"file and example", "visit.txt", 1, "text", serviceFlags{parallel: 1}, ErrInputConflict},
		{"example out of range", "", 9, "text", serviceFlags{parallel: 1}, report.ErrUnknownExample},
		{"negative example", "", -1, "text", serviceFlags{parallel: 1}, report.ErrUnknownExample},
		{"unknown format", "", 0, "pdf", serviceFlags{parallel: 1}, format.ErrUnknownFormat},
		{"bad parallel", "", 0, "text", serviceFlags{parallel: 0}, ErrInvalidParallel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := parseReportOptions(tt.input, tt.example, nil, tt.format, "", tt.flags)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("parseReportOptions() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Tests for runReport - inputs
// ---------------------------------------------------------------------------

func TestRunReport_FileToStdout(t *testing.T) {
	t.Parallel()

	path := createTranscriptFile(t, sampleTranscript)
	env, mocks := testEnv()

	if err := runReport(context.Background(), env, reportOpts(path)); err != nil {
		t.Fatalf("runReport() unexpected error: %v", err)
	}

	out := mocks.stdout.String()
	for _, k := range report.Kinds() {
		if !strings.Contains(out, k.Title()+"\n") {
			t.Errorf("stdout missing heading %q", k.Title())
		}
	}
	if got := strings.Count(out, "REPORT_OK from gpt-4o\n"); got != 5 {
		t.Errorf("stdout has %d primary-model reports, want 5", got)
	}

	stderr := mocks.stderr.String()
	if !strings.Contains(stderr, "Reports for "+path+" (provider: openai, models: gpt-4o, gpt-4o-mini)") {
		t.Errorf("stderr = %q, want source line", stderr)
	}
	if !strings.Contains(stderr, "Generating Patient Report...") {
		t.Errorf("stderr = %q, want progress line", stderr)
	}

	calls := mocks.completers.NewCompleterCalls()
	if len(calls) != 1 || calls[0].APIKey != "test-openai-key" {
		t.Errorf("NewCompleter calls = %+v, want one with openai key", calls)
	}
	if !promptContains(mocks.completers.completer.Prompts(), sampleTranscript) {
		t.Error("prompts do not embed the transcript")
	}
}

func TestRunReport_Stdin(t *testing.T) {
	t.Parallel()

	env, mocks := testEnv(withTestStdin(sampleTranscript))

	if err := runReport(context.Background(), env, reportOpts("-", "doctor")); err != nil {
		t.Fatalf("runReport() unexpected error: %v", err)
	}
	if !strings.Contains(mocks.stderr.String(), "Reports for stdin") {
		t.Errorf("stderr = %q, want stdin source", mocks.stderr.String())
	}
	want := "Doctor Report\n=============\n\nREPORT_OK from gpt-4o\n"
	if got := mocks.stdout.String(); got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
}

func TestRunReport_Example(t *testing.T) {
	t.Parallel()

	env, mocks := testEnv()
	opts := reportOpts("", "intent")
	opts.example = 3

	if err := runReport(context.Background(), env, opts); err != nil {
		t.Fatalf("runReport() unexpected error: %v", err)
	}

	ex, _ := report.ExampleAt(3)
	if !strings.Contains(mocks.stderr.String(), "Reports for example 3 ("+ex.Title+")") {
		t.Errorf("stderr = %q, want example source", mocks.stderr.String())
	}
	if !promptContains(mocks.completers.completer.Prompts(), ex.Conversation) {
		t.Error("prompt does not embed the example conversation")
	}
}

func TestRunReport_InputErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    reportOptions
		stdin   string
		wantErr error
	}{
		{"missing file", reportOpts("/nonexistent/visit.txt"), "", ErrFileNotFound},
		{"empty stdin", reportOpts("-"), "", ErrEmptyTranscript},
		{"blank stdin", reportOpts(""), " \n\t ", ErrEmptyTranscript},
		{"blank file", reportOpts(createTranscriptFile(t, "\n\n")), "", ErrEmptyTranscript},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, mocks := testEnv(withTestStdin(tt.stdin))
			err := runReport(context.Background(), env, tt.opts)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("runReport() error = %v, want %v", err, tt.wantErr)
			}
			if n := len(mocks.completers.NewCompleterCalls()); n != 0 {
				t.Errorf("NewCompleter called %d times, want 0", n)
			}
			if mocks.stdout.String() != "" {
				t.Errorf("stdout = %q, want empty", mocks.stdout.String())
			}
		})
	}
}

func TestRunReport_MissingAPIKey(t *testing.T) {
	t.Parallel()

	env, mocks := testEnv(withTestStdin(sampleTranscript), withTestGetenv(staticEnv(nil)))
	opts := reportOpts("-")
	opts.service.provider = DeepSeekProvider

	err := runReport(context.Background(), env, opts)
	if !errors.Is(err, ErrDeepSeekKeyMissing) {
		t.Fatalf("runReport() error = %v, want ErrDeepSeekKeyMissing", err)
	}
	if len(mocks.completers.NewCompleterCalls()) != 0 {
		t.Error("NewCompleter should not be called without a key")
	}
}

// ---------------------------------------------------------------------------
// Tests for runReport - sentinel reports
// ---------------------------------------------------------------------------

func TestRunReport_InvalidKind(t *testing.T) {
	t.Parallel()

	env, mocks := testEnv(withTestStdin(sampleTranscript))

	err := runReport(context.Background(), env, reportOpts("-", "patient", "Patient"))
	if !errors.Is(err, ErrInvalidReports) {
		t.Fatalf("runReport() error = %v, want ErrInvalidReports", err)
	}

	out := mocks.stdout.String()
	if !strings.Contains(out, "REPORT_OK from gpt-4o") {
		t.Errorf("stdout = %q, want the valid report", out)
	}
	if !strings.Contains(out, "Invalid report type") {
		t.Errorf("stdout = %q, want invalid-kind notice", out)
	}
	if !strings.Contains(mocks.stderr.String(), `Warning: Invalid report type "Patient" (valid: patient, doctor, firm, sentiment, intent)`) {
		t.Errorf("stderr = %q, want invalid-kind warning", mocks.stderr.String())
	}
	if got := mocks.completers.completer.Models(); len(got) != 1 {
		t.Errorf("completer calls = %v, want 1 (invalid kinds never call it)", got)
	}
}

func TestRunReport_Fallback(t *testing.T) {
	t.Parallel()

	env, mocks := testEnv(withTestStdin(sampleTranscript))
	mocks.completers.completer.CompleteFunc = failModels(apierr.ErrRateLimit, "gpt-4o")

	if err := runReport(context.Background(), env, reportOpts("-", "firm")); err != nil {
		t.Fatalf("runReport() unexpected error: %v", err)
	}
	if got := mocks.completers.completer.Models(); !slices.Equal(got, []string{"gpt-4o", "gpt-4o-mini"}) {
		t.Errorf("models tried = %v, want [gpt-4o gpt-4o-mini]", got)
	}
	if !strings.Contains(mocks.stdout.String(), "REPORT_OK from gpt-4o-mini") {
		t.Errorf("stdout = %q, want fallback report", mocks.stdout.String())
	}
}

func TestRunReport_AllTiersFail(t *testing.T) {
	t.Parallel()

	env, mocks := testEnv(withTestStdin(sampleTranscript))
	mocks.completers.completer.CompleteFunc = failModels(apierr.ErrServer, "gpt-4o", "gpt-4o-mini")

	err := runReport(context.Background(), env, reportOpts("-", "sentiment"))
	if !errors.Is(err, ErrReportsUnavailable) {
		t.Fatalf("runReport() error = %v, want ErrReportsUnavailable", err)
	}
	if !strings.Contains(mocks.stdout.String(), "Could not generate report, try again later.") {
		t.Errorf("stdout = %q, want unavailable notice", mocks.stdout.String())
	}
	if !strings.Contains(mocks.stderr.String(), "Warning: Sentiment & Tone Analysis:") {
		t.Errorf("stderr = %q, want unavailable warning", mocks.stderr.String())
	}
}

func TestRunReport_InvalidTakesPrecedence(t *testing.T) {
	t.Parallel()

	env, mocks := testEnv(withTestStdin(sampleTranscript))
	mocks.completers.completer.CompleteFunc = failModels(apierr.ErrServer, "gpt-4o", "gpt-4o-mini")

	err := runReport(context.Background(), env, reportOpts("-", "doctor", "nurse"))
	if !errors.Is(err, ErrInvalidReports) {
		t.Errorf("runReport() error = %v, want ErrInvalidReports", err)
	}
}

// ---------------------------------------------------------------------------
// Tests for runReport - output
// ---------------------------------------------------------------------------

func TestRunReport_OutputFile(t *testing.T) {
	t.Parallel()

	env, mocks := testEnv(withTestStdin(sampleTranscript))
	path := filepath.Join(t.TempDir(), "visit.json")
	opts := reportOpts("-", "patient")
	opts.format = format.JSON
	opts.output = path

	if err := runReport(context.Background(), env, opts); err != nil {
		t.Fatalf("runReport() unexpected error: %v", err)
	}
	if mocks.stdout.String() != "" {
		t.Errorf("stdout = %q, want empty when writing a file", mocks.stdout.String())
	}
	if !strings.Contains(mocks.stderr.String(), "Done: "+path) {
		t.Errorf("stderr = %q, want Done line", mocks.stderr.String())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	var decoded struct {
		Reports []struct {
			Kind   string `json:"kind"`
			Status string `json:"status"`
		} `json:"reports"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, data)
	}
	if len(decoded.Reports) != 1 || decoded.Reports[0].Kind != "patient" || decoded.Reports[0].Status != "ok" {
		t.Errorf("decoded = %+v, want one ok patient report", decoded)
	}
}

func TestRunReport_OutputExistsFailsEarly(t *testing.T) {
	t.Parallel()

	env, mocks := testEnv(withTestStdin(sampleTranscript))
	path := filepath.Join(t.TempDir(), "visit.txt")
	if err := os.WriteFile(path, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}
	opts := reportOpts("-")
	opts.output = path

	err := runReport(context.Background(), env, opts)
	if !errors.Is(err, ErrOutputExists) {
		t.Fatalf("runReport() error = %v, want ErrOutputExists", err)
	}
	if len(mocks.completers.NewCompleterCalls()) != 0 {
		t.Error("completion service reached before the output check")
	}
}

func TestRunReport_OutputDirDefaultName(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	env, mocks := testEnv(
		withTestStdin(sampleTranscript),
		withTestConfig(config.Config{OutputDir: dir}),
	)

	if err := runReport(context.Background(), env, reportOpts("-", "doctor")); err != nil {
		t.Fatalf("runReport() unexpected error: %v", err)
	}

	want := filepath.Join(dir, "reports_20260126_143052.txt")
	if _, err := os.Stat(want); err != nil {
		t.Errorf("expected %s to exist: %v", want, err)
	}
	if mocks.stdout.String() != "" {
		t.Errorf("stdout = %q, want empty", mocks.stdout.String())
	}
}

func TestRunReport_ExtensionWarning(t *testing.T) {
	t.Parallel()

	env, mocks := testEnv(withTestStdin(sampleTranscript))
	opts := reportOpts("-", "doctor")
	opts.output = filepath.Join(t.TempDir(), "visit.md")

	if err := runReport(context.Background(), env, opts); err != nil {
		t.Fatalf("runReport() unexpected error: %v", err)
	}
	if !strings.Contains(mocks.stderr.String(), "Warning: output is text regardless of .md extension") {
		t.Errorf("stderr = %q, want extension warning", mocks.stderr.String())
	}
}

func TestRunReport_ConfigProviderAndLanguage(t *testing.T) {
	t.Parallel()

	env, mocks := testEnv(
		withTestStdin(sampleTranscript),
		withTestConfig(config.Config{Provider: "deepseek", ReportLanguage: "hi"}),
	)

	if err := runReport(context.Background(), env, reportOpts("-", "doctor")); err != nil {
		t.Fatalf("runReport() unexpected error: %v", err)
	}
	calls := mocks.completers.NewCompleterCalls()
	if len(calls) != 1 || calls[0].Provider != DeepSeekProvider || calls[0].APIKey != "test-deepseek-key" {
		t.Errorf("NewCompleter calls = %+v, want deepseek", calls)
	}
	if got := mocks.completers.completer.Models(); !slices.Equal(got, []string{"deepseek-reasoner"}) {
		t.Errorf("models = %v, want [deepseek-reasoner]", got)
	}
	if !promptContains(mocks.completers.completer.Prompts(), "Hindi") {
		t.Error("prompt does not carry the configured reporting language")
	}
}

func TestRunReport_Interrupted(t *testing.T) {
	t.Parallel()

	env, mocks := testEnv(withTestStdin(sampleTranscript))
	ctx, cancel := context.WithCancel(context.Background())
	mocks.completers.completer.CompleteFunc = func(ctx context.Context, _, _ string) (string, error) {
		cancel()
		return "", ctx.Err()
	}

	err := runReport(ctx, env, reportOpts("-", "patient"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("runReport() error = %v, want context.Canceled", err)
	}
	if mocks.stdout.String() != "" {
		t.Errorf("stdout = %q, want nothing after interrupt", mocks.stdout.String())
	}
}

// ---------------------------------------------------------------------------
// Tests for ReportCmd (Cobra integration)
// ---------------------------------------------------------------------------

func TestReportCmd_Flags(t *testing.T) {
	t.Parallel()

	env, _ := testEnv()
	cmd := ReportCmd(env)

	for _, name := range []string{"example", "kind", "format", "output", "provider", "model", "fallback-model", "report-language", "parallel", "verbose"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("ReportCmd missing flag --%s", name)
		}
	}
}

func TestReportCmd_Execute(t *testing.T) {
	t.Parallel()

	env, mocks := testEnv(withTestStdin(sampleTranscript))
	cmd := ReportCmd(env)
	cmd.SetOut(mocks.stdout)
	cmd.SetErr(mocks.stderr)
	cmd.SetArgs([]string{"-", "-k", "patient,doctor", "-f", "md"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() unexpected error: %v", err)
	}
	out := mocks.stdout.String()
	if !strings.HasPrefix(out, "# Medical Reports\n") {
		t.Errorf("stdout = %q, want markdown", out)
	}
	if strings.Count(out, "\n## ") != 2 {
		t.Errorf("stdout = %q, want two sections", out)
	}
}
