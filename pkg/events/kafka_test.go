package events

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type writerStub struct {
	written []kafka.Message
	err     error
	closed  bool
}

func (w *writerStub) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *writerStub) Close() error {
	w.closed = true
	return nil
}

func TestPublishMapsHeadersAndTopic(t *testing.T) {
	stub := &writerStub{}
	pub := NewPublisher(stub)

	err := pub.Publish(context.Background(), Message{EventID: "evt-1", EventType: "booking.created", AggregateID: "sub-1", Payload: []byte(`{}`)})
	require.NoError(t, err)
	require.Len(t, stub.written, 1)
	msg := stub.written[0]
	assert.Equal(t, "booking.created", msg.Topic)
	assert.Equal(t, []byte("sub-1"), msg.Key)
	assert.Equal(t, "evt-1", HeaderValue(msg.Headers, "event_id"))
	assert.Equal(t, "booking.created", HeaderValue(msg.Headers, "event_type"))
}

func TestPublishInjectsTraceparent(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled,
	}))

	msg := ToKafkaMessage(ctx, Message{EventID: "evt-2", EventType: "refund.processed"})
	assert.Contains(t, HeaderValue(msg.Headers, "traceparent"), "4bf92f3577b34da6a3ce929d0e0e4736")
}

func TestPublishPropagatesWriterError(t *testing.T) {
	pub := NewPublisher(&writerStub{err: errors.New("broker down")})
	err := pub.Publish(context.Background(), Message{EventID: "evt-3", EventType: "x"})
	assert.EqualError(t, err, "broker down")
	assert.NoError(t, pub.Publish(context.Background()))
}

func TestToKafkaMessageRestoresStoredTraceparent(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	stored := "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01"

	msg := ToKafkaMessage(context.Background(), Message{EventID: "evt-4", EventType: "session.rescheduled", Traceparent: stored})
	assert.Equal(t, stored, HeaderValue(msg.Headers, "traceparent"))
}
