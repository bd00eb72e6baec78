package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/alnah/medreport/internal/config"
	"github.com/alnah/medreport/internal/dispatch"
	"github.com/alnah/medreport/internal/lang"
)

// serviceFlags holds the raw completion-service flags shared by the
// report, serve and mcp commands.
type serviceFlags struct {
	provider       string
	model          string
	fallbackModel  string
	reportLanguage string
	parallel       int
	verbose        bool
}

func (f *serviceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.provider, "provider", "", "Completion provider: openai, deepseek (default: config, then openai)")
	cmd.Flags().StringVar(&f.model, "model", "", "Primary model (default depends on provider)")
	cmd.Flags().StringVar(&f.fallbackModel, "fallback-model", "", "Model tried when the primary fails (same as --model disables fallback)")
	cmd.Flags().StringVarP(&f.reportLanguage, "report-language", "L", "", "Reporting language, ISO 639-1 code (default: en)")
	cmd.Flags().IntVarP(&f.parallel, "parallel", "p", 1, "Number of reports generated at once")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Log debug details to stderr")
}

// serviceOptions holds validated service flags. Zero fields mean "not set".
type serviceOptions struct {
	provider      Provider
	model         string
	fallbackModel string
	reportLang    lang.Language
	parallel      int
	verbose       bool
}

// parse validates the raw flags at the CLI boundary.
func (f serviceFlags) parse() (serviceOptions, error) {
	var opts serviceOptions

	if f.provider != "" {
		p, err := ParseProvider(f.provider)
		if err != nil {
			return opts, err
		}
		opts.provider = p
	}

	l, err := lang.Parse(f.reportLanguage)
	if err != nil {
		return opts, err
	}
	opts.reportLang = l

	if f.parallel < 1 {
		return opts, fmt.Errorf("--parallel %d: %w", f.parallel, ErrInvalidParallel)
	}

	opts.model = f.model
	opts.fallbackModel = f.fallbackModel
	opts.parallel = f.parallel
	opts.verbose = f.verbose
	return opts, nil
}

// settings are the effective service settings after applying flags,
// the config file, MEDREPORT_* variables and built-in defaults, in that order.
type settings struct {
	provider   Provider
	models     []string
	reportLang lang.Language
}

// resolveSettings merges validated flags over cfg. Config models are used
// only when the effective provider is the configured one, so that
// --provider never pairs with another provider's model names.
func resolveSettings(opts serviceOptions, cfg config.Config) (settings, error) {
	var cfgProvider Provider
	if cfg.Provider != "" {
		p, err := ParseProvider(cfg.Provider)
		if err != nil {
			return settings{}, fmt.Errorf("config %s: %w", config.KeyProvider, err)
		}
		cfgProvider = p
	}
	cfgProvider = cfgProvider.OrDefault()

	provider := cfgProvider
	if !opts.provider.IsZero() {
		provider = opts.provider
	}

	primary, fallback := provider.DefaultModels()
	if provider == cfgProvider {
		primary = firstNonEmpty(cfg.PrimaryModel, primary)
		fallback = firstNonEmpty(cfg.FallbackModel, fallback)
	}
	primary = firstNonEmpty(opts.model, primary)
	fallback = firstNonEmpty(opts.fallbackModel, fallback)

	reportLang := opts.reportLang
	if reportLang.IsZero() && cfg.ReportLanguage != "" {
		l, err := lang.Parse(cfg.ReportLanguage)
		if err != nil {
			return settings{}, fmt.Errorf("config %s: %w", config.KeyReportLanguage, err)
		}
		reportLang = l
	}

	return settings{
		provider:   provider,
		models:     dispatch.Tiers(primary, fallback),
		reportLang: reportLang.OrDefault(),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// loadConfig loads the config, warning on stderr and continuing with
// environment-only values when the file is unreadable.
func loadConfig(env *Env) config.Config {
	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		fmt.Fprintf(env.Stderr, "Warning: failed to load config: %v\n", err)
	}
	return cfg
}

// newDispatcher resolves the API key, builds the completer and returns a
// Dispatcher over s. base carries the caller's Parallel, Metrics, Logger
// and hooks. A missing key fails before any Dispatcher is built.
func newDispatcher(env *Env, s settings, base dispatch.Config) (*dispatch.Dispatcher, error) {
	apiKey, err := s.provider.apiKey(env.Getenv)
	if err != nil {
		return nil, err
	}

	completer, err := env.CompleterFactory.NewCompleter(s.provider, apiKey)
	if err != nil {
		return nil, err
	}

	base.Completer = completer
	base.Models = s.models
	base.ReportLanguage = s.reportLang
	return dispatch.New(base)
}

// newLogger returns a text logger on w at level, or Debug when verbose.
func newLogger(w io.Writer, level slog.Level, verbose bool) *slog.Logger {
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
