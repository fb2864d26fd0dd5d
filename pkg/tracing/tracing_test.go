package tracing

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestNewProvider_NoneStillCreatesValidSpans(t *testing.T) {
	tp, err := NewProvider(context.Background(), Options{Service: "storefront", Exporter: ExporterNone})
	require.NoError(t, err)
	defer tp.Shutdown(context.Background())

	_, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	assert.True(t, span.SpanContext().IsValid())
}

func TestNewProvider_StdoutWritesSpansOnShutdown(t *testing.T) {
	var buf bytes.Buffer
	tp, err := NewProvider(context.Background(), Options{Service: "storefront", Exporter: ExporterStdout, Output: &buf})
	require.NoError(t, err)

	_, span := tp.Tracer("test").Start(context.Background(), "checkout")
	traceID := span.SpanContext().TraceID().String()
	span.End()

	require.NoError(t, tp.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "checkout")
	assert.Contains(t, buf.String(), traceID)
}

func TestNewProvider_UnknownExporter(t *testing.T) {
	_, err := NewProvider(context.Background(), Options{Exporter: "zipkin"})
	assert.Error(t, err)
}

func TestPropagator_ExtractsTraceparent(t *testing.T) {
	h := http.Header{}
	h.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")

	ctx := Propagator().Extract(context.Background(), propagation.HeaderCarrier(h))
	sc := trace.SpanContextFromContext(ctx)

	assert.True(t, sc.IsRemote())
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", sc.TraceID().String())
}
