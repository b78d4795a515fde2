package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/vnvodich/tutor-api/pkg/config"
)

func TestSetupDisabledIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TracingConfig{Enabled: false}, "test")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestTraceparentRoundTrip(t *testing.T) {
	_, err := Setup(context.Background(), config.TracingConfig{}, "test")
	require.NoError(t, err)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	tp := Traceparent(ctx)
	require.NotEmpty(t, tp)

	restored := trace.SpanContextFromContext(ContextWithTraceparent(context.Background(), tp))
	assert.Equal(t, traceID, restored.TraceID())
	assert.Empty(t, Traceparent(context.Background()))
}
