// Package publisher streams audit entries to Kafka for downstream
// compliance and analytics pipelines. The materialized store remains the
// query surface; the stream is a fan-out.
package publisher

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"gatehouse/pkg/platform/audit"
)

// Kafka publishes audit entries to a single topic, keyed by entity id so
// entries for one entity stay ordered within a partition.
type Kafka struct {
	client *kgo.Client
	topic  string
}

// NewKafka connects to the given brokers. Returns nil when no brokers are
// configured (streaming disabled).
func NewKafka(brokers []string, topic string) (*Kafka, error) {
	if len(brokers) == 0 {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka: %w", err)
	}
	return &Kafka{client: client, topic: topic}, nil
}

// Publish produces one entry synchronously. The caller (the audit worker)
// already runs off the request path, so waiting for the ack is fine here.
func (k *Kafka) Publish(ctx context.Context, entry *audit.Entry) error {
	payload, err := audit.MarshalWire(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(entry.EntityType + ":" + entry.EntityID),
		Value: payload,
	}
	if err := k.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit entry: %w", err)
	}
	return nil
}

// Close flushes and shuts down the producer.
func (k *Kafka) Close() {
	k.client.Close()
}
