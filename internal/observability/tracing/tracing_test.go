package tracing

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestResourceAttributesCarryAccountingEnvironment(t *testing.T) {
	attrs := ResourceAttributes(Config{
		ServiceName:           "invoicedesk",
		ServiceVersion:        "1.0.0",
		Environment:           "staging",
		AccountingEnvironment: "sandbox",
	})
	set := attribute.NewSet(attrs...)

	env, ok := set.Value("accounting.environment")
	require.True(t, ok)
	assert.Equal(t, "sandbox", env.AsString())
	deployment, ok := set.Value("deployment.environment")
	require.True(t, ok)
	assert.Equal(t, "staging", deployment.AsString())

	unset := attribute.NewSet(ResourceAttributes(Config{ServiceName: "invoicedesk"})...)
	_, ok = unset.Value("accounting.environment")
	assert.False(t, ok)
}

func TestSamplerBounds(t *testing.T) {
	assert.Contains(t, Sampler(1).Description(), "root:AlwaysOnSampler")
	assert.Contains(t, Sampler(0).Description(), "root:AlwaysOffSampler")
	assert.Contains(t, Sampler(0.25).Description(), "root:TraceIDRatioBased{0.25}")
}

func TestHeadersRoundTripTraceContext(t *testing.T) {
	previous := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(Propagator())
	t.Cleanup(func() { otel.SetTextMapPropagator(previous) })

	provider := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	ctx, span := provider.Tracer("test").Start(context.Background(), "callback")
	defer span.End()

	header := http.Header{}
	injectHeaders(ctx, header)
	assert.Contains(t, header.Get("traceparent"), span.SpanContext().TraceID().String())

	extracted := trace.SpanContextFromContext(extractHeaders(context.Background(), header))
	assert.Equal(t, span.SpanContext().TraceID(), extracted.TraceID())
	assert.True(t, extracted.IsRemote())
}
