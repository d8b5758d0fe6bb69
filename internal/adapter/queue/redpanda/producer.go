package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"

	"github.com/aadhil-anwer/resume-analyzer/internal/domain"
	"github.com/aadhil-anwer/resume-analyzer/internal/observability"
)

// Producer implements domain.Queue on a Kafka producer. Records are
// keyed by record id so all tasks for one record stay ordered.
type Producer struct {
	client *kgo.Client
	topic  string
}

// NewProducer constructs the producer and makes sure the topic exists.
func NewProducer(brokers []string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no seed brokers provided")
	}

	kotelService := kotel.NewKotel(kotel.WithTracer(kotel.NewTracer(kotel.TracerProvider(otel.GetTracerProvider()))))
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.RequestRetries(10),
		kgo.ProducerBatchMaxBytes(1_000_000),
		kgo.WithHooks(kotelService.Hooks()...),
	)
	if err != nil {
		return nil, fmt.Errorf("redpanda client: %w", err)
	}

	if err := createTopicIfNotExists(context.Background(), client, TopicTasks, 1, 1); err != nil {
		slog.Warn("failed to create topic, it may already exist", slog.String("topic", TopicTasks), slog.Any("error", err))
	}
	return &Producer{client: client, topic: TopicTasks}, nil
}

// Enqueue produces one task synchronously and returns a message id.
func (p *Producer) Enqueue(ctx domain.Context, t domain.Task) (string, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("marshal task: %w", err)
	}

	msgID := ulid.Make().String()
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(t.RecordID),
		Value: b,
		Headers: []kgo.RecordHeader{
			{Key: "task_kind", Value: []byte(t.Kind)},
			{Key: "message_id", Value: []byte(msgID)},
		},
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return "", fmt.Errorf("op=queue.Enqueue kind=%s: %w", t.Kind, err)
	}

	observability.EnqueueJob(string(t.Kind))
	slog.Info("task enqueued",
		slog.String("kind", string(t.Kind)),
		slog.String("record_id", t.RecordID),
		slog.String("message_id", msgID))
	return msgID, nil
}

// Ping checks broker connectivity for readiness probes.
func (p *Producer) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// Close flushes and closes the underlying client.
func (p *Producer) Close() {
	_ = p.client.Flush(context.Background())
	p.client.Close()
}
