package observability

import (
	"context"
	"log"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Observability bundles the OpenTelemetry meter and tracer used by the
// search path. A zero value is usable and records nothing.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	searchCounter  otelmetric.Int64Counter
	remoteCounter  otelmetric.Int64Counter
	remoteDuration otelmetric.Float64Histogram
}

// New wires a Prometheus-backed meter provider registered on reg and an SDK
// tracer provider. Extra tracer options (span processors, samplers) are
// passed through.
func New(serviceName string, reg promclient.Registerer, opts ...sdktrace.TracerProviderOption) *Observability {
	res := resource.NewSchemaless(semconv.ServiceName(serviceName))

	tpOpts := append([]sdktrace.TracerProviderOption{sdktrace.WithResource(res)}, opts...)
	tracerProvider := sdktrace.NewTracerProvider(tpOpts...)

	o := &Observability{
		tracerProvider: tracerProvider,
		tracer:         tracerProvider.Tracer(serviceName),
	}

	exporter, err := prometheus.New(prometheus.WithRegisterer(reg))
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return o
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter), metric.WithResource(res))
	meter := provider.Meter(serviceName)

	o.meterProvider = provider
	o.searchCounter, _ = meter.Int64Counter(
		"search.requests",
		otelmetric.WithDescription("Number of searches processed"),
	)
	o.remoteCounter, _ = meter.Int64Counter(
		"servicenow.requests",
		otelmetric.WithDescription("Number of Table API calls"),
	)
	o.remoteDuration, _ = meter.Float64Histogram(
		"servicenow.request.duration",
		otelmetric.WithDescription("Table API call duration"),
		otelmetric.WithUnit("ms"),
	)
	return o
}

// SetGlobal installs the providers as the process-wide defaults.
func (o *Observability) SetGlobal() {
	if o.meterProvider != nil {
		otel.SetMeterProvider(o.meterProvider)
	}
	if o.tracerProvider != nil {
		otel.SetTracerProvider(o.tracerProvider)
	}
}

// StartSpan starts a child span of whatever span ctx carries.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if o == nil || o.tracer == nil {
		return noop.NewTracerProvider().Tracer("").Start(ctx, name)
	}
	return o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) RecordSearch(ctx context.Context, table, mode, outcome string) {
	if o == nil || o.searchCounter == nil {
		return
	}
	o.searchCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("table", table),
		attribute.String("mode", mode),
		attribute.String("outcome", outcome),
	))
}

func (o *Observability) RecordRemoteCall(ctx context.Context, table string, status int, duration time.Duration) {
	if o == nil || o.remoteCounter == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("table", table),
		attribute.Int("status", status),
	)
	o.remoteCounter.Add(ctx, 1, attrs)
	o.remoteDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

func (o *Observability) Shutdown(ctx context.Context) {
	if o == nil {
		return
	}
	if o.meterProvider != nil {
		if err := o.meterProvider.Shutdown(ctx); err != nil {
			log.Printf("meter provider shutdown: %v", err)
		}
	}
	if o.tracerProvider != nil {
		if err := o.tracerProvider.Shutdown(ctx); err != nil {
			log.Printf("tracer provider shutdown: %v", err)
		}
	}
}

// TraceID returns the trace id carried by ctx, or "" when there is none.
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// ShutdownTimeout is how long Shutdown callers should wait for flushes.
const ShutdownTimeout = 5 * time.Second
