// Package observe provides the observability primitives for medreport:
// OpenTelemetry metrics, a Prometheus exporter bridge, and HTTP middleware
// that records request latency and logs each request.
//
// Metrics are recorded through the OpenTelemetry Metrics API. Tests should
// use [NewMetrics] with a custom [metric.MeterProvider] to avoid cross-test
// pollution. Every Record method is safe on a nil *Metrics, so components
// can treat metrics as optional.
package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all medreport metrics.
const meterName = "github.com/alnah/medreport"

// Metric names.
const (
	MetricReports            = "medreport.reports"
	MetricCacheLookups       = "medreport.cache.lookups"
	MetricCacheEntries       = "medreport.cache.entries"
	MetricCompletionDuration = "medreport.completion.duration"
	MetricCompletionErrors   = "medreport.completion.errors"
	MetricHTTPDuration       = "medreport.http.request.duration"
)

// Metrics holds all OpenTelemetry metric instruments for the application.
// The underlying OTel types handle their own synchronisation.
type Metrics struct {
	// Reports counts dispatched reports. Attributes: kind, status.
	Reports metric.Int64Counter

	// CacheLookups counts memo cache lookups. Attributes: kind, result (hit|miss).
	CacheLookups metric.Int64Counter

	// CacheEntries tracks the number of cached reports.
	CacheEntries metric.Int64UpDownCounter

	// CompletionDuration tracks completion-service latency. Attributes: model, status.
	CompletionDuration metric.Float64Histogram

	// CompletionErrors counts failed completion calls. Attribute: model.
	CompletionErrors metric.Int64Counter

	// HTTPRequestDuration tracks HTTP request processing time.
	// Attributes: method, path, status.
	HTTPRequestDuration metric.Float64Histogram
}

// completionBuckets defines histogram bucket boundaries (in seconds) for
// chat completions, which run from sub-second to minutes for reasoning models.
var completionBuckets = []float64{
	0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80, 160,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Reports, err = m.Int64Counter(MetricReports,
		metric.WithDescription("Total reports dispatched by kind and status."),
	); err != nil {
		return nil, err
	}
	if met.CacheLookups, err = m.Int64Counter(MetricCacheLookups,
		metric.WithDescription("Memo cache lookups by kind and result."),
	); err != nil {
		return nil, err
	}
	if met.CacheEntries, err = m.Int64UpDownCounter(MetricCacheEntries,
		metric.WithDescription("Number of cached reports."),
	); err != nil {
		return nil, err
	}
	if met.CompletionDuration, err = m.Float64Histogram(MetricCompletionDuration,
		metric.WithDescription("Latency of completion-service calls."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(completionBuckets...),
	); err != nil {
		return nil, err
	}
	if met.CompletionErrors, err = m.Int64Counter(MetricCompletionErrors,
		metric.WithDescription("Failed completion-service calls by model."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram(MetricHTTPDuration,
		metric.WithDescription("HTTP request latency by method, path and status."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// RecordReport records one dispatched report.
func (m *Metrics) RecordReport(ctx context.Context, kind, status string) {
	if m == nil {
		return
	}
	m.Reports.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("status", status),
	))
}

// RecordCacheLookup records a cache hit or miss for kind.
func (m *Metrics) RecordCacheLookup(ctx context.Context, kind string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("result", result),
	))
}

// AddCacheEntries moves the cache-size gauge by delta.
func (m *Metrics) AddCacheEntries(ctx context.Context, delta int64) {
	if m == nil || delta == 0 {
		return
	}
	m.CacheEntries.Add(ctx, delta)
}

// RecordCompletion records the latency of one completion call and, when err
// is non-nil, increments the error counter.
func (m *Metrics) RecordCompletion(ctx context.Context, model string, seconds float64, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
		m.CompletionErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("model", model)))
	}
	m.CompletionDuration.Record(ctx, seconds, metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("status", status),
	))
}
