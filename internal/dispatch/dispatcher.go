// Package dispatch generates medical reports from doctor-patient transcripts.
//
// A Dispatcher builds the prompt for a report kind, sends it to an ordered
// list of model tiers until one answers, and memoizes the answer per
// (transcript, kind) for its own lifetime. Failures never escape as errors:
// they become sentinel Reports.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/alnah/medreport/internal/completion"
	"github.com/alnah/medreport/internal/lang"
	"github.com/alnah/medreport/internal/observe"
	"github.com/alnah/medreport/internal/report"
)

// Sentinel errors.
var (
	// ErrNoCompleter indicates Config.Completer was nil.
	ErrNoCompleter = errors.New("completer is required")

	// ErrNoModels indicates Config.Models held no usable model identifier.
	ErrNoModels = errors.New("at least one model is required")

	// ErrServiceUnavailable is the cause of a StatusUnavailable report.
	ErrServiceUnavailable = errors.New("completion service unavailable")

	// ErrEmptyCompletion indicates a model answered with blank text.
	ErrEmptyCompletion = errors.New("empty completion")
)

// Config configures a Dispatcher.
type Config struct {
	// Completer sends prompts to the completion service. Required.
	Completer completion.Completer

	// Models lists model identifiers in the order they are tried.
	// Empty identifiers are ignored. At least one is required.
	Models []string

	// ReportLanguage is the reporting language for every kind except patient.
	// Zero value means English.
	ReportLanguage lang.Language

	// Parallel bounds how many kinds a batch generates at once.
	// Values below 1 mean sequential.
	Parallel int

	// Metrics is optional.
	Metrics *observe.Metrics

	// Logger is optional; defaults to slog.Default().
	Logger *slog.Logger

	// OnStart and OnDone, when set, are called around each report of a batch.
	// With Parallel > 1 they are called from several goroutines.
	OnStart func(name string)
	OnDone  func(Report)
}

// Tiers returns the model list for a primary model and an optional fallback.
// An empty or duplicate fallback is dropped.
func Tiers(primary, fallback string) []string {
	if fallback == "" || fallback == primary {
		return []string{primary}
	}
	return []string{primary, fallback}
}

// Dispatcher generates reports. It is safe for concurrent use.
type Dispatcher struct {
	completer  completion.Completer
	models     []string
	promptOpts []report.PromptOption
	parallel   int
	metrics    *observe.Metrics
	logger     *slog.Logger
	onStart    func(string)
	onDone     func(Report)

	cache  *memoCache
	flight singleflight.Group
}

// New creates a Dispatcher with an empty cache.
// Returns ErrNoCompleter or ErrNoModels when the config is unusable.
func New(cfg Config) (*Dispatcher, error) {
	if cfg.Completer == nil {
		return nil, ErrNoCompleter
	}

	models := make([]string, 0, len(cfg.Models))
	for _, m := range cfg.Models {
		if m = strings.TrimSpace(m); m != "" {
			models = append(models, m)
		}
	}
	if len(models) == 0 {
		return nil, ErrNoModels
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	parallel := cfg.Parallel
	if parallel < 1 {
		parallel = 1
	}

	return &Dispatcher{
		completer:  cfg.Completer,
		models:     models,
		promptOpts: []report.PromptOption{report.WithReportLanguage(cfg.ReportLanguage)},
		parallel:   parallel,
		metrics:    cfg.Metrics,
		logger:     logger,
		onStart:    cfg.OnStart,
		onDone:     cfg.OnDone,
		cache:      newMemoCache(),
	}, nil
}

// Models returns a copy of the model tiers in the order they are tried.
func (d *Dispatcher) Models() []string {
	out := make([]string, len(d.models))
	copy(out, d.models)
	return out
}

// Generate returns the report of the given kind for transcript.
//
// An invalid kind yields a StatusInvalidKind report without touching the
// cache or the completer. A cached answer is returned with Cached set.
// Otherwise each model tier is tried once, in order; the first non-blank
// answer is cached and returned. If every tier fails the report has
// StatusUnavailable and nothing is cached.
func (d *Dispatcher) Generate(ctx context.Context, transcript string, kind report.Kind) Report {
	return d.generate(ctx, d.logger, transcript, kind)
}

// GenerateNamed parses name as a report kind and generates it.
// An unknown name yields a StatusInvalidKind report.
func (d *Dispatcher) GenerateNamed(ctx context.Context, transcript, name string) Report {
	return d.generateNamed(ctx, d.logger, transcript, name)
}

// GenerateAll generates all five kinds in canonical order.
func (d *Dispatcher) GenerateAll(ctx context.Context, transcript string) []Report {
	return d.GenerateBatch(ctx, transcript, nil)
}

// GenerateBatch generates the named kinds, in the given order, running up to
// Config.Parallel at once. Empty names means all kinds. One failing kind
// never affects the others.
func (d *Dispatcher) GenerateBatch(ctx context.Context, transcript string, names []string) []Report {
	if len(names) == 0 {
		names = report.Names()
	}

	logger := d.logger.With(slog.String("batch", uuid.NewString()))
	logger.Debug("batch started",
		slog.Int("kinds", len(names)),
		slog.Int("transcript_bytes", len(transcript)),
	)

	reports := make([]Report, len(names))
	var g errgroup.Group
	g.SetLimit(d.parallel)
	for i, name := range names {
		g.Go(func() error {
			if d.onStart != nil {
				d.onStart(name)
			}
			reports[i] = d.generateNamed(ctx, logger, transcript, name)
			if d.onDone != nil {
				d.onDone(reports[i])
			}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	return reports
}

// ClearCache removes every memoized report.
func (d *Dispatcher) ClearCache() {
	n := d.cache.clear()
	d.metrics.AddCacheEntries(context.Background(), -int64(n))
	d.logger.Info("cache cleared", slog.Int("entries", n))
}

// Len returns the number of memoized reports.
func (d *Dispatcher) Len() int {
	return d.cache.len()
}

func (d *Dispatcher) generateNamed(ctx context.Context, logger *slog.Logger, transcript, name string) Report {
	kind, err := report.ParseKind(name)
	if err != nil {
		d.metrics.RecordReport(ctx, name, StatusInvalidKind.String())
		logger.Warn("invalid report kind", slog.String("kind", name))
		return invalidKindReport(name, err)
	}
	return d.generate(ctx, logger, transcript, kind)
}

// outcome is the value shared by concurrent callers of one flight.
type outcome struct {
	text   string
	model  string
	cached bool
}

func (d *Dispatcher) generate(ctx context.Context, logger *slog.Logger, transcript string, kind report.Kind) Report {
	if !kind.Valid() {
		d.metrics.RecordReport(ctx, kind.String(), StatusInvalidKind.String())
		return invalidKindReport(kind.String(),
			fmt.Errorf("invalid report kind %q: %w", kind.String(), report.ErrUnknownKind))
	}

	key := cacheKey{transcript: transcript, kind: kind}
	if text, ok := d.cache.get(key); ok {
		d.metrics.RecordCacheLookup(ctx, kind.String(), true)
		d.metrics.RecordReport(ctx, kind.String(), StatusOK.String())
		logger.Debug("cache hit", slog.String("kind", kind.String()))
		return okReport(kind, outcome{text: text, cached: true})
	}
	d.metrics.RecordCacheLookup(ctx, kind.String(), false)

	v, err, _ := d.flight.Do(key.flightKey(), func() (any, error) {
		// A previous flight may have filled the entry between our lookup and now.
		if text, ok := d.cache.get(key); ok {
			return outcome{text: text, cached: true}, nil
		}
		return d.dispatch(ctx, logger, key)
	})
	if err != nil {
		d.metrics.RecordReport(ctx, kind.String(), StatusUnavailable.String())
		return unavailableReport(kind, err)
	}

	d.metrics.RecordReport(ctx, kind.String(), StatusOK.String())
	return okReport(kind, v.(outcome))
}

// dispatch tries each model tier once with the same prompt.
func (d *Dispatcher) dispatch(ctx context.Context, logger *slog.Logger, key cacheKey) (outcome, error) {
	kind := key.kind.String()
	prompt, err := report.BuildPrompt(key.transcript, key.kind, d.promptOpts...)
	if err != nil {
		return outcome{}, err
	}

	var lastErr error
	for i, model := range d.models {
		start := time.Now()
		text, err := d.completer.Complete(ctx, model, prompt)
		if err == nil && strings.TrimSpace(text) == "" {
			err = fmt.Errorf("%s: %w", model, ErrEmptyCompletion)
		}
		d.metrics.RecordCompletion(ctx, model, time.Since(start).Seconds(), err)

		if err == nil {
			if d.cache.put(key, text) {
				d.metrics.AddCacheEntries(ctx, 1)
			}
			logger.Debug("report generated",
				slog.String("kind", kind),
				slog.String("model", model),
				slog.Int("transcript_bytes", len(key.transcript)),
				slog.Duration("duration", time.Since(start)),
			)
			return outcome{text: text, model: model}, nil
		}

		lastErr = err
		if i < len(d.models)-1 {
			logger.Warn("model failed, trying next",
				slog.String("kind", kind),
				slog.String("model", model),
				slog.Any("error", err),
			)
		}
	}

	logger.Error("all models failed",
		slog.String("kind", kind),
		slog.Int("tiers", len(d.models)),
		slog.Any("error", lastErr),
	)
	return outcome{}, fmt.Errorf("%w: %w", ErrServiceUnavailable, lastErr)
}

func okReport(kind report.Kind, o outcome) Report {
	return Report{
		Kind:   kind,
		Name:   kind.String(),
		Title:  kind.Title(),
		Text:   o.text,
		Model:  o.model,
		Status: StatusOK,
		Cached: o.cached,
	}
}
