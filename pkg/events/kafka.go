package events

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"

	"github.com/vnvodich/tutor-api/pkg/tracing"
)

// Message is one domain event ready for the broker.
type Message struct {
	EventID     string
	EventType   string
	AggregateID string
	Payload     []byte
	// Traceparent, when set, replaces the publishing context's span as the
	// parent recorded in the message headers.
	Traceparent string
}

// Writer is the subset of *kafka.Writer used for publishing.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher sends domain events to Kafka, one topic per event type.
type Publisher struct {
	writer Writer
}

// NewKafkaWriter builds a writer that hashes keys so events for one
// aggregate stay ordered on a single partition.
func NewKafkaWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

// NewPublisher wraps an existing writer.
func NewPublisher(writer Writer) *Publisher {
	return &Publisher{writer: writer}
}

// Publish writes the batch; trace context from ctx is attached per message.
func (p *Publisher) Publish(ctx context.Context, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}
	out := make([]kafka.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, ToKafkaMessage(ctx, m))
	}
	return p.writer.WriteMessages(ctx, out...)
}

// Close releases the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// ToKafkaMessage maps an event to a Kafka record with id/type headers.
func ToKafkaMessage(ctx context.Context, m Message) kafka.Message {
	if m.Traceparent != "" {
		ctx = tracing.ContextWithTraceparent(ctx, m.Traceparent)
	}
	msg := kafka.Message{
		Topic: m.EventType,
		Key:   []byte(m.AggregateID),
		Value: m.Payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(m.EventID)},
			{Key: "event_type", Value: []byte(m.EventType)},
		},
	}
	msg.Headers = InjectTraceHeaders(ctx, msg.Headers)
	return msg
}

// HeaderValue returns the first header value for key.
func HeaderValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// InjectTraceHeaders appends W3C trace context headers.
func InjectTraceHeaders(ctx context.Context, headers []kafka.Header) []kafka.Header {
	carrier := &headerCarrier{headers: headers}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return carrier.headers
}

type headerCarrier struct {
	headers []kafka.Header
}

func (c *headerCarrier) Get(key string) string {
	return HeaderValue(c.headers, key)
}

func (c *headerCarrier) Set(key, value string) {
	for i := range c.headers {
		if c.headers[i].Key == key {
			c.headers[i].Value = []byte(value)
			return
		}
	}
	c.headers = append(c.headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c *headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.headers))
	for _, h := range c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}
