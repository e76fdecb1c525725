// Package redpanda publica los eventos de despachos en un topic Kafka/Redpanda con franz-go.
package redpanda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"oncology-dispatch/internal/platform/logger"
	"oncology-dispatch/internal/ports/events"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const DefaultTopic = "despachos.eventos"

type Config struct {
	Brokers []string
	Topic   string
	// tiempo máximo de espera por el ack de cada evento
	Timeout time.Duration
}

// ParseBrokers separa una lista "host1:9092,host2:9092".
func ParseBrokers(s string) []string {
	out := make([]string, 0)
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// PublishObserver recibe el resultado de cada publicación (métricas).
type PublishObserver func(err error)

// Publisher implementa events.Publisher. Cada Publish espera el ack; no reintenta más
// allá de lo que haga el cliente.
type Publisher struct {
	client  *kgo.Client
	topic   string
	timeout time.Duration
	log     logger.Logger
	tracer  trace.Tracer
	observe PublishObserver
}

func NewPublisher(cfg Config, log logger.Logger, observe PublishObserver) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("redpanda: no brokers configured")
	}
	if log == nil {
		log = logger.Nop()
	}
	topic := strings.TrimSpace(cfg.Topic)
	if topic == "" {
		topic = DefaultTopic
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.Lz4Compression()),
		kgo.ProducerLinger(10*time.Millisecond),
		kgo.RecordRetries(3),
	)
	if err != nil {
		return nil, fmt.Errorf("redpanda: create client: %w", err)
	}

	return &Publisher{
		client:  client,
		topic:   topic,
		timeout: timeout,
		log:     log,
		tracer:  otel.Tracer("oncology-dispatch/redpanda"),
		observe: observe,
	}, nil
}

func (p *Publisher) Publish(ctx context.Context, e events.Event) error {
	ctx, span := p.tracer.Start(ctx, "redpanda.Publish", trace.WithAttributes(
		attribute.String("messaging.destination", p.topic),
		attribute.String("event.type", e.Type),
	))
	defer span.End()

	rec, err := encode(ctx, p.topic, e)
	if err != nil {
		span.RecordError(err)
		p.done(err)
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		span.RecordError(err)
		p.done(err)
		return fmt.Errorf("redpanda: produce %s: %w", e.Type, err)
	}
	p.log.Debug("event published", map[string]any{"type": e.Type, "key": e.Key, "event_id": e.ID})
	p.done(nil)
	return nil
}

func (p *Publisher) done(err error) {
	if p.observe != nil {
		p.observe(err)
	}
}

// Ping verifica que algún broker responda.
func (p *Publisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

func (p *Publisher) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.client.Flush(ctx); err != nil {
		p.log.Warn("redpanda flush on close failed", map[string]any{"err": err.Error()})
	}
	p.client.Close()
}

// encode arma el record: clave = paciente (orden por paciente), headers con tipo y traza.
func encode(ctx context.Context, topic string, e events.Event) (*kgo.Record, error) {
	value, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("redpanda: marshal event: %w", err)
	}
	rec := &kgo.Record{
		Topic: topic,
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event-type", Value: []byte(e.Type)},
			{Key: "event-id", Value: []byte(e.ID)},
		},
	}
	if e.Key != "" {
		rec.Key = []byte(e.Key)
	}
	otel.GetTextMapPropagator().Inject(ctx, headerCarrier{rec})
	return rec, nil
}

// headerCarrier adapta los headers del record a propagation.TextMapCarrier.
type headerCarrier struct{ rec *kgo.Record }

func (c headerCarrier) Get(key string) string {
	for _, h := range c.rec.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c headerCarrier) Set(key, value string) {
	for i, h := range c.rec.Headers {
		if h.Key == key {
			c.rec.Headers[i].Value = []byte(value)
			return
		}
	}
	c.rec.Headers = append(c.rec.Headers, kgo.RecordHeader{Key: key, Value: []byte(value)})
}

func (c headerCarrier) Keys() []string {
	out := make([]string, len(c.rec.Headers))
	for i, h := range c.rec.Headers {
		out[i] = h.Key
	}
	return out
}
