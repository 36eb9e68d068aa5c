package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"capflow/internal/config"
	"capflow/pkg/contracts"
)

const (
	ServiceName    = "capflow"
	ServiceVersion = contracts.Version
	MeterName      = "capflow"
)

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	EnableTracing  bool
	TraceFile      string // spans are written here as JSON lines
	MetricsFile    string // Prometheus textfile snapshot, empty to skip
	SampleRatio    float64
}

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Registry       *prometheus.Registry
	Logger         *slog.Logger

	metricsFile string
	traceFile   *os.File
}

// DefaultOTelConfig returns a configuration with tracing off and metrics kept in memory.
func DefaultOTelConfig() *OTelConfig {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	return &OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: ServiceVersion,
		Environment:    env,
		SampleRatio:    1.0,
	}
}

// OTelConfigFrom maps the telemetry section of the application config.
func OTelConfigFrom(cfg config.TelemetryConfig) *OTelConfig {
	otelCfg := DefaultOTelConfig()
	otelCfg.EnableTracing = cfg.TracingEnabled
	otelCfg.TraceFile = cfg.TraceFile
	otelCfg.MetricsFile = cfg.MetricsFile
	return otelCfg
}

// InitializeOTel sets up the tracer and meter providers. Metrics are always
// collected into a private Prometheus registry; WriteMetrics persists them.
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = DefaultOTelConfig()
	}
	if logger == nil {
		logger = GetLogger()
	}

	ctx := context.Background()

	res, err := createResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	providers := &OTelProviders{
		Logger:      logger,
		metricsFile: cfg.MetricsFile,
	}

	if cfg.EnableTracing {
		if err := initializeTracing(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	} else {
		providers.Tracer = noop.NewTracerProvider().Tracer(MeterName)
	}

	if err := initializeMetrics(ctx, cfg, res, providers); err != nil {
		providers.Shutdown(ctx)
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	logger.DebugContext(ctx, "OpenTelemetry initialized",
		slog.String("service", cfg.ServiceName),
		slog.Bool("tracing_enabled", cfg.EnableTracing),
		slog.String("metrics_file", cfg.MetricsFile))

	return providers, nil
}

// createResource creates the OpenTelemetry resource
func createResource(cfg *OTelConfig) (*resource.Resource, error) {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", generateInstanceID()),
	), nil
}

// initializeTracing exports spans as JSON lines to the trace file
func initializeTracing(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	if cfg.TraceFile == "" {
		return fmt.Errorf("tracing enabled without a trace file")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.TraceFile), 0755); err != nil {
		return fmt.Errorf("failed to create trace directory: %w", err)
	}
	file, err := os.OpenFile(cfg.TraceFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(file))
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	)

	providers.traceFile = file
	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))
	otel.SetTracerProvider(tp)

	providers.Logger.DebugContext(ctx, "Tracing initialized",
		slog.String("trace_file", cfg.TraceFile),
		slog.Float64("sample_ratio", cfg.SampleRatio))

	return nil
}

// initializeMetrics wires the OTel Prometheus exporter to a private registry
func initializeMetrics(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	providers.Registry = registry
	providers.MeterProvider = mp
	providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))
	otel.SetMeterProvider(mp)

	return nil
}

// WriteMetrics writes the current metric values in the Prometheus text format
// to the configured metrics file. It is a no-op when no file is configured.
func (p *OTelProviders) WriteMetrics() error {
	if p.metricsFile == "" || p.Registry == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(p.metricsFile), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(p.metricsFile, p.Registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

// PipelineMetrics holds the pipeline's instruments
type PipelineMetrics struct {
	RunsTotal      metric.Int64Counter
	RunDuration    metric.Float64Histogram
	StepsTotal     metric.Int64Counter
	StepDuration   metric.Float64Histogram
	StepErrors     metric.Int64Counter
	FilesLoaded    metric.Int64Counter
	PanelsBuilt    metric.Int64Counter
	ArtifactsTotal metric.Int64Counter
	CacheLookups   metric.Int64Counter
}

// CreatePipelineMetrics registers the pipeline instruments on meter
func CreatePipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	runsTotal, err := meter.Int64Counter(
		"capflow.pipeline.runs",
		metric.WithDescription("Total number of pipeline runs"),
	)
	if err != nil {
		return nil, err
	}

	runDuration, err := meter.Float64Histogram(
		"capflow.pipeline.run.duration",
		metric.WithDescription("Pipeline run duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	stepsTotal, err := meter.Int64Counter(
		"capflow.pipeline.steps",
		metric.WithDescription("Total number of pipeline steps executed"),
	)
	if err != nil {
		return nil, err
	}

	stepDuration, err := meter.Float64Histogram(
		"capflow.pipeline.step.duration",
		metric.WithDescription("Pipeline step duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	stepErrors, err := meter.Int64Counter(
		"capflow.pipeline.step.errors",
		metric.WithDescription("Total number of failed pipeline steps"),
	)
	if err != nil {
		return nil, err
	}

	filesLoaded, err := meter.Int64Counter(
		"capflow.ingest.files",
		metric.WithDescription("Total number of source files read"),
	)
	if err != nil {
		return nil, err
	}

	panelsBuilt, err := meter.Int64Counter(
		"capflow.derive.panels",
		metric.WithDescription("Total number of derived tables built"),
	)
	if err != nil {
		return nil, err
	}

	artifactsTotal, err := meter.Int64Counter(
		"capflow.output.artifacts",
		metric.WithDescription("Total number of files written"),
	)
	if err != nil {
		return nil, err
	}

	cacheLookups, err := meter.Int64Counter(
		"capflow.normalize.cache.lookups",
		metric.WithDescription("Memoized normalization lookups by result"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		RunsTotal:      runsTotal,
		RunDuration:    runDuration,
		StepsTotal:     stepsTotal,
		StepDuration:   stepDuration,
		StepErrors:     stepErrors,
		FilesLoaded:    filesLoaded,
		PanelsBuilt:    panelsBuilt,
		ArtifactsTotal: artifactsTotal,
		CacheLookups:   cacheLookups,
	}, nil
}

// Shutdown flushes and shuts down the providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if p.traceFile != nil {
		if err := p.traceFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("trace file close: %w", err))
		}
		p.traceFile = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %v", errs)
	}
	return nil
}

// generateInstanceID generates a unique instance identifier
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
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

// RecordStepMetrics records one pipeline step execution
func RecordStepMetrics(ctx context.Context, metrics *PipelineMetrics, step string, duration time.Duration, err error) {
	if metrics == nil {
		return
	}

	attrs := []attribute.KeyValue{attribute.String("step", step)}
	metrics.StepsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))

	status := "success"
	if err != nil {
		status = "failure"
		metrics.StepErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	metrics.StepDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(append(attrs, attribute.String("status", status))...))
}

// RecordRunMetrics records a completed pipeline run
func RecordRunMetrics(ctx context.Context, metrics *PipelineMetrics, duration time.Duration, err error) {
	if metrics == nil {
		return
	}

	status := attribute.String("status", "success")
	if err != nil {
		status = attribute.String("status", "failure")
	}
	metrics.RunsTotal.Add(ctx, 1, metric.WithAttributes(status))
	metrics.RunDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(status))
}

// RecordCacheStats adds memo hit and miss counts for one normalizer
func RecordCacheStats(ctx context.Context, metrics *PipelineMetrics, cache string, hits, misses int64) {
	if metrics == nil {
		return
	}
	metrics.CacheLookups.Add(ctx, hits, metric.WithAttributes(
		attribute.String("cache", cache), attribute.String("result", "hit")))
	metrics.CacheLookups.Add(ctx, misses, metric.WithAttributes(
		attribute.String("cache", cache), attribute.String("result", "miss")))
}

// RecordFilesLoaded counts source files read by ingest
func RecordFilesLoaded(ctx context.Context, metrics *PipelineMetrics, n int) {
	if metrics == nil {
		return
	}
	metrics.FilesLoaded.Add(ctx, int64(n))
}

// RecordPanelsBuilt counts derived panels
func RecordPanelsBuilt(ctx context.Context, metrics *PipelineMetrics, n int) {
	if metrics == nil {
		return
	}
	metrics.PanelsBuilt.Add(ctx, int64(n))
}

// RecordArtifacts counts written output files of one kind (figure, csv, xlsx, sqlite)
func RecordArtifacts(ctx context.Context, metrics *PipelineMetrics, kind string, n int) {
	if metrics == nil {
		return
	}
	metrics.ArtifactsTotal.Add(ctx, int64(n), metric.WithAttributes(attribute.String("kind", kind)))
}
