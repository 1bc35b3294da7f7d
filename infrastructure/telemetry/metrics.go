// Package telemetry provides observability infrastructure including
// OpenTelemetry metrics and tracing for plan search runs.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsProvider provides access to metrics instruments.
type MetricsProvider struct {
	meter metric.Meter

	// Counters
	plansGenerated metric.Int64Counter
	verifications  metric.Int64Counter
	cacheHits      metric.Int64Counter
	cacheMisses    metric.Int64Counter
	switches       metric.Int64Counter
	errors         metric.Int64Counter

	// Histograms
	generationDuration metric.Float64Histogram
	runDuration        metric.Float64Histogram
	scores             metric.Float64Histogram

	// Gauges (using UpDownCounter for OpenTelemetry)
	activeRuns metric.Int64UpDownCounter

	initOnce sync.Once
	initErr  error
}

// MetricsConfig configures the metrics provider.
type MetricsConfig struct {
	// MeterName is the name of the meter (default: "github.com/felixgeelhaar/plansearch-go").
	MeterName string
	// MeterVersion is the version of the meter.
	MeterVersion string
	// Attributes are default attributes to attach to all metrics.
	Attributes []attribute.KeyValue
}

// DefaultMetricsConfig returns a default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		MeterName:    "github.com/felixgeelhaar/plansearch-go",
		MeterVersion: "1.0.0",
	}
}

// NewMetricsProvider creates a new metrics provider.
func NewMetricsProvider(config MetricsConfig) *MetricsProvider {
	if config.MeterName == "" {
		config = DefaultMetricsConfig()
	}

	provider := otel.GetMeterProvider()
	meter := provider.Meter(
		config.MeterName,
		metric.WithInstrumentationVersion(config.MeterVersion),
	)

	mp := &MetricsProvider{
		meter: meter,
	}

	mp.initOnce.Do(func() {
		mp.initErr = mp.initInstruments()
	})

	return mp
}

// initInstruments initializes all metric instruments.
func (mp *MetricsProvider) initInstruments() error {
	var err error

	mp.plansGenerated, err = mp.meter.Int64Counter(
		"plansearch.plans.generated",
		metric.WithDescription("Number of candidate plans generated"),
		metric.WithUnit("{plan}"),
	)
	if err != nil {
		return err
	}

	mp.verifications, err = mp.meter.Int64Counter(
		"plansearch.verifications",
		metric.WithDescription("Number of plan verifications"),
		metric.WithUnit("{verification}"),
	)
	if err != nil {
		return err
	}

	mp.cacheHits, err = mp.meter.Int64Counter(
		"plansearch.cache.hits",
		metric.WithDescription("Number of verification cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return err
	}

	mp.cacheMisses, err = mp.meter.Int64Counter(
		"plansearch.cache.misses",
		metric.WithDescription("Number of verification cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return err
	}

	mp.switches, err = mp.meter.Int64Counter(
		"plansearch.algorithm.switches",
		metric.WithDescription("Number of meta-controller algorithm switches"),
		metric.WithUnit("{switch}"),
	)
	if err != nil {
		return err
	}

	mp.errors, err = mp.meter.Int64Counter(
		"plansearch.errors",
		metric.WithDescription("Number of errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	mp.generationDuration, err = mp.meter.Float64Histogram(
		"plansearch.generation.duration",
		metric.WithDescription("Duration of model generation calls"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	mp.runDuration, err = mp.meter.Float64Histogram(
		"plansearch.run.duration",
		metric.WithDescription("Duration of search runs"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	mp.scores, err = mp.meter.Float64Histogram(
		"plansearch.scores",
		metric.WithDescription("Verification scores of generated plans"),
		metric.WithUnit("{score}"),
	)
	if err != nil {
		return err
	}

	mp.activeRuns, err = mp.meter.Int64UpDownCounter(
		"plansearch.runs.active",
		metric.WithDescription("Number of active search runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Error returns any initialization error.
func (mp *MetricsProvider) Error() error {
	return mp.initErr
}

// RecordPlanGenerated records a generated candidate and the generation latency.
func (mp *MetricsProvider) RecordPlanGenerated(ctx context.Context, algorithm string, provider string, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("algorithm", algorithm),
		attribute.String("provider.name", provider),
	}

	mp.plansGenerated.Add(ctx, 1, metric.WithAttributes(attrs...))
	mp.generationDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordVerification records a plan verification and its score.
func (mp *MetricsProvider) RecordVerification(ctx context.Context, algorithm string, score float64) {
	attrs := []attribute.KeyValue{
		attribute.String("algorithm", algorithm),
	}

	mp.verifications.Add(ctx, 1, metric.WithAttributes(attrs...))
	mp.scores.Record(ctx, score, metric.WithAttributes(attrs...))
}

// RecordCacheHit records a verification cache hit.
func (mp *MetricsProvider) RecordCacheHit(ctx context.Context) {
	mp.cacheHits.Add(ctx, 1)
}

// RecordCacheMiss records a verification cache miss.
func (mp *MetricsProvider) RecordCacheMiss(ctx context.Context) {
	mp.cacheMisses.Add(ctx, 1)
}

// RecordAlgorithmSwitch records a meta-controller switch between strategies.
func (mp *MetricsProvider) RecordAlgorithmSwitch(ctx context.Context, from, to string) {
	attrs := []attribute.KeyValue{
		attribute.String("algorithm.from", from),
		attribute.String("algorithm.to", to),
	}

	mp.switches.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordError records an error.
func (mp *MetricsProvider) RecordError(ctx context.Context, errorType string, details map[string]string) {
	attrs := []attribute.KeyValue{
		attribute.String("error.type", errorType),
	}
	for k, v := range details {
		attrs = append(attrs, attribute.String(k, v))
	}

	mp.errors.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRunDuration records the duration of a search run.
func (mp *MetricsProvider) RecordRunDuration(ctx context.Context, algorithm string, duration time.Duration, success bool) {
	attrs := []attribute.KeyValue{
		attribute.String("algorithm", algorithm),
		attribute.Bool("success", success),
	}

	mp.runDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// IncrementActiveRuns increments the active runs counter.
func (mp *MetricsProvider) IncrementActiveRuns(ctx context.Context) {
	mp.activeRuns.Add(ctx, 1)
}

// DecrementActiveRuns decrements the active runs counter.
func (mp *MetricsProvider) DecrementActiveRuns(ctx context.Context) {
	mp.activeRuns.Add(ctx, -1)
}

// NoopMetricsProvider is a no-op metrics provider for testing or when metrics are disabled.
type NoopMetricsProvider struct{}

// RecordPlanGenerated is a no-op.
func (n *NoopMetricsProvider) RecordPlanGenerated(ctx context.Context, algorithm string, provider string, duration time.Duration) {
}

// RecordVerification is a no-op.
func (n *NoopMetricsProvider) RecordVerification(ctx context.Context, algorithm string, score float64) {
}

// RecordCacheHit is a no-op.
func (n *NoopMetricsProvider) RecordCacheHit(ctx context.Context) {}

// RecordCacheMiss is a no-op.
func (n *NoopMetricsProvider) RecordCacheMiss(ctx context.Context) {}

// RecordAlgorithmSwitch is a no-op.
func (n *NoopMetricsProvider) RecordAlgorithmSwitch(ctx context.Context, from, to string) {}

// RecordError is a no-op.
func (n *NoopMetricsProvider) RecordError(ctx context.Context, errorType string, details map[string]string) {
}

// RecordRunDuration is a no-op.
func (n *NoopMetricsProvider) RecordRunDuration(ctx context.Context, algorithm string, duration time.Duration, success bool) {
}

// IncrementActiveRuns is a no-op.
func (n *NoopMetricsProvider) IncrementActiveRuns(ctx context.Context) {}

// DecrementActiveRuns is a no-op.
func (n *NoopMetricsProvider) DecrementActiveRuns(ctx context.Context) {}

// Metrics defines the interface for metrics recording.
type Metrics interface {
	RecordPlanGenerated(ctx context.Context, algorithm string, provider string, duration time.Duration)
	RecordVerification(ctx context.Context, algorithm string, score float64)
	RecordCacheHit(ctx context.Context)
	RecordCacheMiss(ctx context.Context)
	RecordAlgorithmSwitch(ctx context.Context, from, to string)
	RecordError(ctx context.Context, errorType string, details map[string]string)
	RecordRunDuration(ctx context.Context, algorithm string, duration time.Duration, success bool)
	IncrementActiveRuns(ctx context.Context)
	DecrementActiveRuns(ctx context.Context)
}

// Ensure implementations satisfy the interface.
var (
	_ Metrics = (*MetricsProvider)(nil)
	_ Metrics = (*NoopMetricsProvider)(nil)
)
