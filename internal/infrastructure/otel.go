package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"trainingtracker/internal/config"
	"trainingtracker/pkg/contracts/domain"
)

const (
	ServiceVersion = "1.0.0"
	MeterName      = "trainingtracker"
)

// Telemetry holds the tracer and meter providers of the process. Metrics
// are collected on a private registry so tests and the textfile output
// only see this application's series.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Registry       *prom.Registry
	Metrics        *BusinessMetrics

	traceOut io.Closer
	logger   *slog.Logger
}

// InitializeOTel sets up metrics and, when enabled, tracing. Spans go to
// cfg.TraceFile as JSON lines, or are discarded when no file is set.
func InitializeOTel(cfg config.TelemetryConfig, paths *config.Paths, logger *slog.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	name := cfg.ServiceName
	if name == "" {
		name = MeterName
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(name),
		semconv.ServiceVersion(ServiceVersion),
	)

	t := &Telemetry{logger: logger}

	if cfg.Tracing {
		if err := t.initializeTracing(cfg, paths, res); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}
	if err := t.initializeMetrics(res); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("telemetry initialized",
		slog.String("service", name),
		slog.Bool("tracing_enabled", cfg.Tracing),
		slog.String("trace_file", cfg.TraceFile))
	return t, nil
}

func (t *Telemetry) initializeTracing(cfg config.TelemetryConfig, paths *config.Paths, res *resource.Resource) error {
	var out io.Writer = io.Discard
	if cfg.TraceFile != "" {
		path := cfg.TraceFile
		if paths != nil {
			path = paths.OutputPath(cfg.TraceFile)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open trace file: %w", err)
		}
		t.traceOut = f
		out = f
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(out))
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	t.TracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(t.TracerProvider)
	return nil
}

func (t *Telemetry) initializeMetrics(res *resource.Resource) error {
	t.Registry = prom.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(t.Registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	t.MeterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	metrics, err := CreateBusinessMetrics(t.MeterProvider.Meter(MeterName, metric.WithInstrumentationVersion(ServiceVersion)))
	if err != nil {
		return err
	}
	t.Metrics = metrics
	return nil
}

// Handler exposes the registry in the Prometheus text format
func (t *Telemetry) Handler() http.Handler {
	return promhttp.HandlerFor(t.Registry, promhttp.HandlerOpts{})
}

// WriteMetricsTextfile writes the current metrics for the node exporter
// textfile collector
func (t *Telemetry) WriteMetricsTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := prom.WriteToTextfile(path, t.Registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

// Shutdown flushes pending spans and stops the providers
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.TracerProvider != nil {
		if err := t.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if t.MeterProvider != nil {
		if err := t.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}
	if t.traceOut != nil {
		if err := t.traceOut.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BusinessMetrics holds all application-specific metrics
type BusinessMetrics struct {
	RunsTotal          metric.Int64Counter
	RunDuration        metric.Float64Histogram
	EmployeesEvaluated metric.Int64Counter
	IssuesTotal        metric.Int64Counter
	OverallCompliance  metric.Float64Gauge

	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
}

// CreateBusinessMetrics creates application-specific metrics
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	var (
		m   BusinessMetrics
		err error
	)

	if m.RunsTotal, err = meter.Int64Counter(
		"tracker_runs",
		metric.WithDescription("Compliance runs by outcome"),
	); err != nil {
		return nil, err
	}
	if m.RunDuration, err = meter.Float64Histogram(
		"tracker_run_duration_seconds",
		metric.WithDescription("Compliance run duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.EmployeesEvaluated, err = meter.Int64Counter(
		"tracker_employees_evaluated",
		metric.WithDescription("Employees evaluated across runs"),
	); err != nil {
		return nil, err
	}
	if m.IssuesTotal, err = meter.Int64Counter(
		"tracker_validation_issues",
		metric.WithDescription("Validation issues by level and code"),
	); err != nil {
		return nil, err
	}
	if m.OverallCompliance, err = meter.Float64Gauge(
		"tracker_overall_completion_percent",
		metric.WithDescription("Weighted completion percentage of the last run"),
	); err != nil {
		return nil, err
	}

	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, err
	}
	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	return &m, nil
}

// RunOutcome summarizes a finished run for metrics
type RunOutcome struct {
	Duration  time.Duration
	Err       error
	Employees int
	Issues    []domain.Issue
	Overall   domain.Percentage
}

// RecordRun records the metrics of one run
func (m *BusinessMetrics) RecordRun(ctx context.Context, out RunOutcome) {
	if m == nil {
		return
	}

	status := "success"
	if out.Err != nil {
		status = "failure"
	}
	statusAttr := metric.WithAttributes(attribute.String("status", status))
	m.RunsTotal.Add(ctx, 1, statusAttr)
	m.RunDuration.Record(ctx, out.Duration.Seconds(), statusAttr)
	m.EmployeesEvaluated.Add(ctx, int64(out.Employees))

	type issueKey struct{ level, code string }
	counts := make(map[issueKey]int64)
	for _, i := range out.Issues {
		counts[issueKey{string(i.Level), i.Code}]++
	}
	for k, n := range counts {
		m.IssuesTotal.Add(ctx, n, metric.WithAttributes(
			attribute.String("level", k.level),
			attribute.String("code", k.code),
		))
	}

	if out.Err == nil && out.Overall.Applicable {
		m.OverallCompliance.Record(ctx, out.Overall.Value)
	}
}

// RecordHTTPRequest records one served request
func (m *BusinessMetrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}
