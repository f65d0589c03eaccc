package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/ordset/pkg/observability"
)

func filteredTracer(t *testing.T, logger *slog.Logger) (*sdktrace.TracerProvider, *tracetest.InMemoryExporter) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	filter := observability.NewAttributeFilter(sdktrace.NewSimpleSpanProcessor(exporter), logger)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(filter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	return tp, exporter
}

func spanAttrMap(span sdktrace.ReadOnlySpan) map[string]any {
	attrs := map[string]any{}

	for _, kv := range span.Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}

	return attrs
}

func TestAttributeFilter_AllowsKnownKeys(t *testing.T) {
	t.Parallel()

	tp, exporter := filteredTracer(t, nil)

	_, span := tp.Tracer("test").Start(context.Background(), "op")
	span.SetAttributes(
		attribute.String("error.type", "arity"),
		attribute.Int("script.lines", 12),
		attribute.String("set.name", "default"),
		attribute.Int("ordset.sets", 2),
	)
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	attrs := spanAttrMap(spans[0].Snapshot())
	assert.Equal(t, "arity", attrs["error.type"])
	assert.Equal(t, int64(12), attrs["script.lines"])
	assert.Equal(t, "default", attrs["set.name"])
	assert.Equal(t, int64(2), attrs["ordset.sets"])
}

func TestAttributeFilter_DropsSetContents(t *testing.T) {
	t.Parallel()

	tp, exporter := filteredTracer(t, nil)

	_, span := tp.Tracer("test").Start(context.Background(), "op")
	span.SetAttributes(
		attribute.String("set.values", "1 2 3"),
		attribute.String("script.text", "insert 1"),
		attribute.String("user.id", "42"),
		attribute.String("host.name", "box"),
		attribute.String("set.name", "a"),
	)
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	attrs := spanAttrMap(spans[0].Snapshot())
	assert.NotContains(t, attrs, "set.values")
	assert.NotContains(t, attrs, "script.text")
	assert.NotContains(t, attrs, "user.id")
	assert.NotContains(t, attrs, "host.name")
	assert.Equal(t, "a", attrs["set.name"])
}

func TestAttributeFilter_LogsDroppedKeys(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	tp, exporter := filteredTracer(t, logger)

	_, span := tp.Tracer("test").Start(context.Background(), "op")
	span.SetAttributes(attribute.String("user.email", "a@b.c"))
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Empty(t, spans[0].Snapshot().Attributes())
	assert.Contains(t, buf.String(), "span attribute dropped")
	assert.Contains(t, buf.String(), "user.email")
}
