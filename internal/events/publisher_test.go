package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/smartcart/pkg/errors"
	"github.com/segmentio/kafka-go"
)

type stubWriter struct {
	msgs     []kafka.Message
	err      error
	deadline bool
	closed   bool
}

func (s *stubWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	_, s.deadline = ctx.Deadline()
	if s.err != nil {
		return s.err
	}
	s.msgs = append(s.msgs, msgs...)
	return nil
}

func (s *stubWriter) Close() error {
	s.closed = true
	return nil
}

func TestNewEnvelope(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))
	env, err := NewEnvelope(EventCheckoutProceeded, "sess-1", at, CheckoutProceeded{SessionID: "sess-1", TotalPayable: 17800})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if env.EventID == "" || env.EventVersion != 1 || env.Producer != producerName {
		t.Fatalf("unexpected metadata %+v", env)
	}
	if !env.OccurredAt.Equal(at) || env.OccurredAt.Location() != time.UTC {
		t.Fatalf("expected UTC timestamp, got %v", env.OccurredAt)
	}

	payload, err := DecodePayload[CheckoutProceeded](env)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.TotalPayable != 17800 || payload.SessionID != "sess-1" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestNewEnvelopeRejectsUnmarshalablePayload(t *testing.T) {
	t.Parallel()

	if _, err := NewEnvelope("x", "", time.Now(), make(chan int)); err == nil {
		t.Fatalf("expected marshal error")
	}
}

func TestKafkaPublisherWritesKeyedMessage(t *testing.T) {
	t.Parallel()

	w := &stubWriter{}
	pub := newKafkaPublisher(w, time.Second)
	env, _ := NewEnvelope(EventCheckoutProceeded, "sess-9", time.Now(), CheckoutProceeded{SessionID: "sess-9"})

	if err := pub.Publish(context.Background(), env); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "sess-9" {
		t.Fatalf("unexpected key %q", msg.Key)
	}
	if len(msg.Headers) != 1 || string(msg.Headers[0].Value) != EventCheckoutProceeded {
		t.Fatalf("unexpected headers %+v", msg.Headers)
	}
	if !w.deadline {
		t.Fatalf("expected write deadline")
	}

	var decoded Envelope
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("value is not an envelope: %v", err)
	}
	if decoded.EventID != env.EventID {
		t.Fatalf("event id mismatch")
	}

	if err := pub.Close(); err != nil || !w.closed {
		t.Fatalf("expected writer closed")
	}
}

func TestKafkaPublisherWrapsWriteError(t *testing.T) {
	t.Parallel()

	pub := newKafkaPublisher(&stubWriter{err: errors.New("broker down")}, 0)
	env, _ := NewEnvelope(EventCheckoutProceeded, "sess", time.Now(), struct{}{})
	err := pub.Publish(context.Background(), env)
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestNewKafkaPublisherValidates(t *testing.T) {
	t.Parallel()

	if _, err := NewKafkaPublisher(nil, "topic", 0); err == nil {
		t.Fatalf("expected broker validation error")
	}
	if _, err := NewKafkaPublisher([]string{"localhost:9092"}, "", 0); err == nil {
		t.Fatalf("expected topic validation error")
	}
	pub, err := NewKafkaPublisher([]string{"localhost:9092"}, "topic", time.Second)
	if err != nil || pub == nil {
		t.Fatalf("unexpected error %v", err)
	}
	_ = pub.Close()
}

func TestNoopPublisher(t *testing.T) {
	t.Parallel()

	var pub Publisher = Noop{}
	if err := pub.Publish(context.Background(), Envelope{}); err != nil {
		t.Fatalf("noop publish failed: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("noop close failed: %v", err)
	}
}
