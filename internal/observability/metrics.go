package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	prometheusexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const (
	meterScope = "github.com/hrplus/talent-hub/internal/observability"
)

// latencyHistogramBoundaries are Prometheus-style buckets (seconds) for request duration histograms.
var latencyHistogramBoundaries = []float64{0.005, 0.025, 0.1, 0.5, 1, 2.5, 5}

// APIMetrics records HTTP request counts and latency.
type APIMetrics interface {
	RecordRequest(ctx context.Context, method, route, statusClass string, duration time.Duration)
}

// InsightsMetrics records detection and signal processing activity.
// Components accept a nil InsightsMetrics when metrics are disabled.
type InsightsMetrics interface {
	RecordDetectorRun(ctx context.Context, action string)
	RecordPatternDetected(ctx context.Context, patternType, severity string)
	RecordCycleProcessed(ctx context.Context)
	RecordSnapshotsWritten(ctx context.Context, count int)
	RecordAnonymitySkip(ctx context.Context)
}

// Metrics bundles all hub metric collectors. When metrics are disabled, the
// bundle is nil and components receive nil interfaces.
type Metrics struct {
	API      APIMetrics
	Insights InsightsMetrics
}

// Provider wires the OpenTelemetry meter to a Prometheus registry and exposes
// both the meter-backed collectors and the /metrics HTTP handler.
type Provider struct {
	meterProvider *sdkmetric.MeterProvider
	registry      *prometheus.Registry
	Metrics       *Metrics
}

// NewProvider sets up the Prometheus exporter, meter provider, and collectors.
func NewProvider() (*Provider, error) {
	registry := prometheus.NewRegistry()

	exporter, err := prometheusexporter.New(prometheusexporter.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := meterProvider.Meter(meterScope)

	api, err := newAPIMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("api metrics: %w", err)
	}

	insights, err := newInsightsMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("insights metrics: %w", err)
	}

	return &Provider{
		meterProvider: meterProvider,
		registry:      registry,
		Metrics:       &Metrics{API: api, Insights: insights},
	}, nil
}

// Handler returns the /metrics HTTP handler backed by the provider's registry.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes and stops the meter provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if err := p.meterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("meter provider shutdown: %w", err)
	}

	return nil
}

type apiMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

func newAPIMetrics(meter metric.Meter) (*apiMetrics, error) {
	requests, err := meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total HTTP requests handled"),
	)
	if err != nil {
		return nil, fmt.Errorf("requests counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithExplicitBucketBoundaries(latencyHistogramBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("duration histogram: %w", err)
	}

	return &apiMetrics{requests: requests, duration: duration}, nil
}

func (m *apiMetrics) RecordRequest(ctx context.Context, method, route, statusClass string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.String("status_class", statusClass),
	)

	m.requests.Add(ctx, 1, attrs)
	m.duration.Record(ctx, duration.Seconds(), attrs)
}

type insightsMetrics struct {
	detectorRuns     metric.Int64Counter
	patternsDetected metric.Int64Counter
	cyclesProcessed  metric.Int64Counter
	snapshotsWritten metric.Int64Counter
	anonymitySkips   metric.Int64Counter
}

func newInsightsMetrics(meter metric.Meter) (*insightsMetrics, error) {
	detectorRuns, err := meter.Int64Counter(
		"bias_detector_runs_total",
		metric.WithDescription("Bias detector runs by action"),
	)
	if err != nil {
		return nil, fmt.Errorf("detector runs counter: %w", err)
	}

	patternsDetected, err := meter.Int64Counter(
		"bias_patterns_detected_total",
		metric.WithDescription("Bias patterns detected by type and severity"),
	)
	if err != nil {
		return nil, fmt.Errorf("patterns counter: %w", err)
	}

	cyclesProcessed, err := meter.Int64Counter(
		"signal_cycles_processed_total",
		metric.WithDescription("Review cycles processed into talent signals"),
	)
	if err != nil {
		return nil, fmt.Errorf("cycles counter: %w", err)
	}

	snapshotsWritten, err := meter.Int64Counter(
		"signal_snapshots_written_total",
		metric.WithDescription("Talent signal snapshot versions written"),
	)
	if err != nil {
		return nil, fmt.Errorf("snapshots counter: %w", err)
	}

	anonymitySkips, err := meter.Int64Counter(
		"signal_anonymity_skips_total",
		metric.WithDescription("Employees skipped by the anonymity floor"),
	)
	if err != nil {
		return nil, fmt.Errorf("anonymity skips counter: %w", err)
	}

	return &insightsMetrics{
		detectorRuns:     detectorRuns,
		patternsDetected: patternsDetected,
		cyclesProcessed:  cyclesProcessed,
		snapshotsWritten: snapshotsWritten,
		anonymitySkips:   anonymitySkips,
	}, nil
}

func (m *insightsMetrics) RecordDetectorRun(ctx context.Context, action string) {
	m.detectorRuns.Add(ctx, 1, metric.WithAttributes(attribute.String("action", action)))
}

func (m *insightsMetrics) RecordPatternDetected(ctx context.Context, patternType, severity string) {
	m.patternsDetected.Add(ctx, 1, metric.WithAttributes(
		attribute.String("pattern_type", patternType),
		attribute.String("severity", severity),
	))
}

func (m *insightsMetrics) RecordCycleProcessed(ctx context.Context) {
	m.cyclesProcessed.Add(ctx, 1)
}

func (m *insightsMetrics) RecordSnapshotsWritten(ctx context.Context, count int) {
	m.snapshotsWritten.Add(ctx, int64(count))
}

func (m *insightsMetrics) RecordAnonymitySkip(ctx context.Context) {
	m.anonymitySkips.Add(ctx, 1)
}
