package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"property-brokerage-system/internal/core/domain"
)

// Broker is the Kafka implementation of the EventPublisher port.
type Broker struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewBroker creates and pings a Kafka producer client.
func NewBroker(bootstrapServers []string, topic string, logger *slog.Logger) (*Broker, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(bootstrapServers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.RecordDeliveryTimeout(10 * time.Second),
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	if err := client.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to connect to kafka: %w", err)
	}

	return &Broker{
		client: client,
		topic:  topic,
		logger: logger,
	}, nil
}

// Publish produces a lifecycle event, keyed by property id so all events for
// one property land on the same partition in order.
func (b *Broker) Publish(ctx context.Context, ev domain.LifecycleEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal lifecycle event: %w", err)
	}

	record := &kgo.Record{
		Key:   []byte(ev.PropertyID.String()),
		Value: payload,
	}

	b.wg.Add(1)
	// Produce sends the record asynchronously.
	b.client.Produce(ctx, record, func(r *kgo.Record, err error) {
		defer b.wg.Done()
		if err != nil {
			b.logger.Error("failed to deliver event to kafka", "topic", r.Topic, "error", err)
		} else {
			b.logger.Debug("event delivered to kafka",
				"topic", r.Topic, "partition", r.Partition, "offset", r.Offset)
		}
	})

	return nil
}

// Close waits for in-flight deliveries and stops the client.
func (b *Broker) Close() {
	b.logger.Info("waiting for kafka deliveries to finish...")
	b.wg.Wait()
	b.client.Close()
	b.logger.Info("kafka client stopped")
}
