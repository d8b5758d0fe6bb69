package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"

	"github.com/aadhil-anwer/resume-analyzer/internal/domain"
)

// Handler runs one task to completion. It must be safe for concurrent
// use; the consumer fans tasks out across a bounded worker pool.
type Handler func(ctx context.Context, t domain.Task) error

// Consumer reads tasks from the topic in a consumer group and hands
// them to the pipeline handler.
type Consumer struct {
	client  *kgo.Client
	handler Handler
	sem     chan struct{}
	wg      sync.WaitGroup
}

// NewConsumer joins the group and subscribes to the task topic.
// maxConcurrency bounds how many tasks run at once.
func NewConsumer(brokers []string, groupID string, maxConcurrency int, handler Handler) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no seed brokers provided")
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}

	kotelService := kotel.NewKotel(kotel.WithTracer(kotel.NewTracer(kotel.TracerProvider(otel.GetTracerProvider()))))
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(groupID),
		kgo.ConsumeTopics(TopicTasks),
		kgo.WithHooks(kotelService.Hooks()...),
		kgo.DialTimeout(10*time.Second),
		kgo.SessionTimeout(30*time.Second),
		kgo.HeartbeatInterval(3*time.Second),
		kgo.FetchMaxWait(5*time.Second),
		kgo.AutoCommitMarks(),
		kgo.AutoCommitInterval(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("redpanda consumer client: %w", err)
	}

	if err := createTopicIfNotExists(context.Background(), client, TopicTasks, 1, 1); err != nil {
		slog.Warn("failed to create topic, it may already exist", slog.String("topic", TopicTasks), slog.Any("error", err))
	}

	return &Consumer{
		client:  client,
		handler: handler,
		sem:     make(chan struct{}, maxConcurrency),
	}, nil
}

// Start polls until the context is canceled. Records that fail to
// decode are marked and skipped; handler errors are logged, the
// pipeline is responsible for writing FAILED onto the record.
func (c *Consumer) Start(ctx context.Context) error {
	slog.Info("consumer started", slog.String("topic", TopicTasks))
	for {
		if ctx.Err() != nil {
			break
		}
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			break
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			slog.Error("fetch error", slog.String("topic", topic), slog.Int("partition", int(partition)), slog.Any("error", err))
		})
		fetches.EachRecord(func(record *kgo.Record) {
			var task domain.Task
			if err := json.Unmarshal(record.Value, &task); err != nil {
				slog.Error("dropping undecodable task", slog.Any("error", err))
				c.client.MarkCommitRecords(record)
				return
			}

			select {
			case c.sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			c.wg.Add(1)
			go func(rec *kgo.Record, t domain.Task) {
				defer c.wg.Done()
				defer func() { <-c.sem }()
				if err := c.handler(ctx, t); err != nil {
					slog.Error("task handler failed",
						slog.String("kind", string(t.Kind)),
						slog.String("record_id", t.RecordID),
						slog.Any("error", err))
				}
				c.client.MarkCommitRecords(rec)
			}(record, task)
		})
	}

	c.wg.Wait()
	slog.Info("consumer stopped")
	return nil
}

// Close waits for in-flight tasks and closes the client.
func (c *Consumer) Close() {
	c.wg.Wait()
	c.client.Close()
}
