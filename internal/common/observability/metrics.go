package observability

import (
	"context"
	"time"

	"business-workers/internal/common/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Observability records activation instruments through an OpenTelemetry
// meter exported on the default Prometheus registry, and traces activation
// steps into the structured log.
type Observability struct {
	meterProvider      *metric.MeterProvider
	activationCounter  otelmetric.Int64Counter
	activationDuration otelmetric.Float64Histogram

	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
}

func New(serviceName string, log logger.Logger) *Observability {
	var o *Observability
	exporter, err := prometheus.New()
	if err != nil {
		log.Warn("failed to create prometheus exporter, activation instruments disabled", map[string]interface{}{
			"error": err.Error(),
		})
		o = &Observability{}
	} else {
		provider := metric.NewMeterProvider(metric.WithReader(exporter))
		otel.SetMeterProvider(provider)
		o = newWithProvider(provider, serviceName)
	}

	installTracing(o, serviceName, log)
	return o
}

func newWithProvider(provider *metric.MeterProvider, serviceName string) *Observability {
	meter := provider.Meter(serviceName)

	counter, _ := meter.Int64Counter(
		"business.activations",
		otelmetric.WithDescription("Business activations processed"),
	)
	duration, _ := meter.Float64Histogram(
		"business.activation.duration",
		otelmetric.WithDescription("Time from job receipt to persisted activation"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider:      provider,
		activationCounter:  counter,
		activationDuration: duration,
	}
}

// RecordActivation counts one activation attempt and its duration.
func (o *Observability) RecordActivation(ctx context.Context, model, result string, d time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("business_model", model),
		attribute.String("result", result),
	)
	if o.activationCounter != nil {
		o.activationCounter.Add(ctx, 1, attrs)
	}
	if o.activationDuration != nil {
		o.activationDuration.Record(ctx, float64(d.Milliseconds()), attrs)
	}
}

func (o *Observability) Shutdown() {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	o.shutdownTracing(ctx)
}
