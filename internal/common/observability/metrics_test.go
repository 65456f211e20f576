package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"business-workers/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRecordActivation(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	obs := newWithProvider(provider, "business-workers-test")
	defer obs.Shutdown()

	obs.RecordActivation(context.Background(), "food", "activated", 120*time.Millisecond)
	obs.RecordActivation(context.Background(), "food", "activated", 80*time.Millisecond)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	byName := map[string]metricdata.Metrics{}
	for _, m := range rm.ScopeMetrics[0].Metrics {
		byName[m.Name] = m
	}

	sum, ok := byName["business.activations"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)

	hist, ok := byName["business.activation.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
}

func TestRecordActivation_NilSafe(t *testing.T) {
	var obs *Observability
	obs.RecordActivation(context.Background(), "food", "failed", time.Second)
	obs.Shutdown()
}

// ==========================
// Tracing Tests
// ==========================

func TestStartSpan_LogsAndRecords(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	recorder := tracetest.NewSpanRecorder()

	obs := &Observability{}
	obs.setTracing(newTracerProvider(logger.NewZapAdapter(zap.New(core)), recorder), "business-workers-test")
	defer obs.Shutdown()

	_, ok := obs.StartSpan(context.Background(), "business.activate", attribute.String("request_id", "req-1"))
	EndSpan(ok, nil)

	_, failed := obs.StartSpan(context.Background(), "business.index")
	EndSpan(failed, errors.New("directory down"))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "business.activate", spans[0].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)

	finished := logs.FilterMessage("span finished").All()
	require.Len(t, finished, 1)
	assert.Equal(t, "req-1", finished[0].ContextMap()["request_id"])

	failedLogs := logs.FilterMessage("span failed").All()
	require.Len(t, failedLogs, 1)
	assert.Equal(t, "directory down", failedLogs[0].ContextMap()["error"])
}

func TestStartSpan_NilSafe(t *testing.T) {
	var obs *Observability
	ctx, span := obs.StartSpan(context.Background(), "business.activate")
	assert.NotNil(t, ctx)
	EndSpan(span, errors.New("ignored"))
}
