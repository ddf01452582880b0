package storage

import (
	"context"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestAMQPHeaderCarrierRoundTrip(t *testing.T) {
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	headers := amqp.Table{}
	prop := propagation.TraceContext{}
	prop.Inject(ctx, amqpHeaderCarrier(headers))

	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", headers["traceparent"])

	extracted := trace.SpanContextFromContext(prop.Extract(context.Background(), amqpHeaderCarrier(headers)))
	assert.Equal(t, traceID, extracted.TraceID())
	assert.Equal(t, spanID, extracted.SpanID())
	assert.True(t, extracted.IsRemote())
}

func TestAMQPHeaderCarrierIgnoresNonString(t *testing.T) {
	c := amqpHeaderCarrier(amqp.Table{"retry": int32(3), "source": "relay"})
	assert.Equal(t, "", c.Get("retry"))
	assert.Equal(t, "relay", c.Get("source"))
	assert.ElementsMatch(t, []string{"retry", "source"}, c.Keys())
}

func TestGetContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", GetContentType(".PDF"))
	assert.Equal(t, "application/msword", GetContentType(".doc"))
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", GetContentType(".docx"))
	assert.Equal(t, "application/octet-stream", GetContentType(".bin"))
}
