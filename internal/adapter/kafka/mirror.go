// Package kafka mirrors pushed events to a Kafka topic for downstream consumers.
package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel/propagation"

	"github.com/polkiloo/fooddispatch/internal/domain/event"
)

const (
	clientID            = "fooddispatch"
	produceTimeout      = 10 * time.Second
	defaultFlushTimeout = 5 * time.Second
	traceparentHeader   = "traceparent"
)

// Producer is the subset of *kgo.Client the mirror relies on.
type Producer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
	Flush(ctx context.Context) error
	Close()
}

// Mirror produces every envelope asynchronously. A Mirror without a producer
// is disabled and drops envelopes.
type Mirror struct {
	producer     Producer
	topic        string
	logger       *slog.Logger
	flushTimeout time.Duration
}

// New connects to brokers. An empty broker list yields a disabled mirror.
func New(brokers []string, topic string, logger *slog.Logger) (*Mirror, error) {
	logger = logger.With(slog.String("component", "kafka-mirror"))
	if len(brokers) == 0 {
		return &Mirror{topic: topic, logger: logger, flushTimeout: defaultFlushTimeout}, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProduceRequestTimeout(produceTimeout),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ClientID(clientID),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return NewWithProducer(client, topic, logger), nil
}

// NewWithProducer builds an enabled mirror around an existing producer.
func NewWithProducer(producer Producer, topic string, logger *slog.Logger) *Mirror {
	return &Mirror{producer: producer, topic: topic, logger: logger, flushTimeout: defaultFlushTimeout}
}

func (m *Mirror) Enabled() bool {
	return m.producer != nil
}

// Mirror queues env keyed by its type. Failures are only logged.
func (m *Mirror) Mirror(ctx context.Context, env event.Envelope) {
	if m.producer == nil {
		return
	}
	payload, err := env.Encode()
	if err != nil {
		m.logger.Error("encode envelope failed", slog.String("event", string(env.Type)), slog.String("error", err.Error()))
		return
	}

	record := &kgo.Record{
		Topic:     m.topic,
		Key:       []byte(env.Type),
		Value:     payload,
		Headers:   traceHeaders(ctx),
		Timestamp: env.Timestamp,
	}
	// The record outlives the request that triggered it.
	m.producer.Produce(context.WithoutCancel(ctx), record, func(r *kgo.Record, err error) {
		if err != nil {
			m.logger.Warn("mirror event failed",
				slog.String("event", string(r.Key)),
				slog.String("topic", r.Topic),
				slog.String("error", err.Error()),
			)
		}
	})
}

// Close flushes buffered records for at most the flush timeout and closes the client.
func (m *Mirror) Close(ctx context.Context) error {
	if m.producer == nil {
		return nil
	}
	flushCtx, cancel := context.WithTimeout(ctx, m.flushTimeout)
	defer cancel()

	err := m.producer.Flush(flushCtx)
	m.producer.Close()
	if err != nil {
		return fmt.Errorf("flush kafka mirror: %w", err)
	}
	return nil
}

func traceHeaders(ctx context.Context) []kgo.RecordHeader {
	carrier := propagation.MapCarrier{}
	propagation.TraceContext{}.Inject(ctx, carrier)

	traceparent, ok := carrier[traceparentHeader]
	if !ok {
		return nil
	}
	return []kgo.RecordHeader{{Key: traceparentHeader, Value: []byte(traceparent)}}
}
