package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return f.err
}

func (f *fakeWriter) Close() error { return nil }

type fakeReader struct {
	msgs      []kafka.Message
	committed []int64
}

func (f *fakeReader) FetchMessage(context.Context) (kafka.Message, error) {
	if len(f.msgs) == 0 {
		return kafka.Message{}, io.EOF
	}
	msg := f.msgs[0]
	f.msgs = f.msgs[1:]
	return msg, nil
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func (f *fakeReader) Close() error { return nil }

func TestPublishOrderPlaced(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, topic: domain.TopicOrderPlaced}

	err := p.PublishOrderPlaced(context.Background(), domain.OrderPlacedEvent{OrderID: "ord-1", OrderCode: "GHN123"})
	require.NoError(t, err)

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "ord-1", string(msg.Key))
	assert.Equal(t, domain.TopicOrderPlaced, carrierFor(&msg).Get(headerEventType))

	var got domain.OrderPlacedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "GHN123", got.OrderCode)
}

func TestPublishWriteError(t *testing.T) {
	p := &Producer{writer: &fakeWriter{err: errors.New("no brokers")}, topic: "t"}

	err := p.Publish(context.Background(), "k", "t", map[string]string{"a": "b"})

	assert.ErrorContains(t, err, "no brokers")
}

func TestConsume(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("commits poison messages and keeps going", func(t *testing.T) {
		r := &fakeReader{msgs: []kafka.Message{{Offset: 1, Value: []byte("bad")}, {Offset: 2, Value: []byte("good")}}}
		c := &Consumer{reader: r, topic: "t", logger: logger}
		var handled []string

		err := c.Consume(context.Background(), func(_ context.Context, payload []byte) error {
			handled = append(handled, string(payload))
			if string(payload) == "bad" {
				return fmt.Errorf("decode: %w", ErrPoison)
			}
			return nil
		})

		assert.ErrorIs(t, err, io.EOF)
		assert.Equal(t, []string{"bad", "good"}, handled)
		assert.Equal(t, []int64{1, 2}, r.committed)
	})

	t.Run("stops without committing on handler failure", func(t *testing.T) {
		r := &fakeReader{msgs: []kafka.Message{{Offset: 7}}}
		c := &Consumer{reader: r, topic: "t", logger: logger}
		boom := errors.New("db down")

		err := c.Consume(context.Background(), func(context.Context, []byte) error { return boom })

		assert.ErrorIs(t, err, boom)
		assert.Empty(t, r.committed)
	})
}

func TestHeaderCarrier(t *testing.T) {
	var msg kafka.Message
	c := carrierFor(&msg)

	c.Set("traceparent", "a")
	c.Set("traceparent", "b")
	c.Set("baggage", "x=1")

	assert.Equal(t, "b", c.Get("traceparent"))
	assert.Equal(t, []string{"traceparent", "baggage"}, c.Keys())
	assert.Len(t, msg.Headers, 2)
	assert.Empty(t, c.Get("missing"))
}
