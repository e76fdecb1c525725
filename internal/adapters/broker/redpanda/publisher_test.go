package redpanda

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"oncology-dispatch/internal/ports/events"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestParseBrokers(t *testing.T) {
	got := ParseBrokers(" a:9092, ,b:9092 ")
	if len(got) != 2 || got[0] != "a:9092" || got[1] != "b:9092" {
		t.Fatalf("unexpected brokers %v", got)
	}
	if len(ParseBrokers("")) != 0 {
		t.Fatalf("expected no brokers")
	}
}

func TestNewPublisher_RequiresBrokers(t *testing.T) {
	if _, err := NewPublisher(Config{}, nil, nil); err == nil {
		t.Fatalf("expected error without brokers")
	}
}

func TestEncode_KeyHeadersAndTrace(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	e := events.Event{
		ID:         "evt-1",
		Type:       events.TypeStateChanged,
		Key:        "123",
		OccurredAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Data:       map[string]any{"accion": "entregar"},
	}
	rec, err := encode(ctx, DefaultTopic, e)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(rec.Key) != "123" || rec.Topic != DefaultTopic {
		t.Fatalf("unexpected record key/topic %q %q", rec.Key, rec.Topic)
	}

	c := headerCarrier{rec}
	if c.Get("event-type") != events.TypeStateChanged || c.Get("event-id") != "evt-1" {
		t.Fatalf("missing event headers %v", c.Keys())
	}
	if c.Get("traceparent") == "" {
		t.Fatalf("expected traceparent header, got %v", c.Keys())
	}

	var back events.Event
	if err := json.Unmarshal(rec.Value, &back); err != nil || back.Type != e.Type || back.ID != "evt-1" {
		t.Fatalf("unexpected payload %s (%v)", rec.Value, err)
	}
}

func TestHeaderCarrier_SetReplaces(t *testing.T) {
	rec, _ := encode(context.Background(), "t", events.Event{Type: "x"})
	c := headerCarrier{rec}
	c.Set("event-type", "y")
	if c.Get("event-type") != "y" || len(c.Keys()) != 2 {
		t.Fatalf("expected replace in place, got %v", c.Keys())
	}
}
