package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisherMessageShape(t *testing.T) {
	w := &recordingWriter{}
	p := &KafkaPublisher{writer: w}

	id := uint(42)
	env := NewEnvelope("appointment.confirmed", 7, &id, map[string]any{"order_id": "pi_1"})
	require.NoError(t, p.Publish(context.Background(), env))
	require.NoError(t, p.Close())

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "appointment-42", string(msg.Key))
	assert.Equal(t, []kafka.Header{
		{Key: "event_id", Value: []byte(env.EventID)},
		{Key: "event_type", Value: []byte("appointment.confirmed")},
	}, msg.Headers)

	var got Envelope
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, env.EventID, got.EventID)
	assert.Equal(t, uint(7), got.BusinessID)
	assert.True(t, w.closed)
}

func TestMessageKeyWithoutEntity(t *testing.T) {
	env := NewEnvelope("appointment.conflict", 1, nil, nil)
	assert.Equal(t, env.EventID, messageKey(env))
}
