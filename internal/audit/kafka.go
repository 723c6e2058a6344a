package audit

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSink mirrors audit rows onto a Kafka topic for downstream compliance
// consumers. Delivery is fire-and-forget: the Postgres/memory store is the
// durable record, the topic is a convenience feed.
type KafkaSink struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewKafkaSink connects a producer-only client to the given brokers.
func NewKafkaSink(brokers []string, topic string, logger *slog.Logger) (*KafkaSink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, err
	}
	return &KafkaSink{client: client, topic: topic, logger: logger}, nil
}

func (s *KafkaSink) Produce(ctx context.Context, row Log) {
	value, err := json.Marshal(row)
	if err != nil {
		s.logger.Error("marshal audit row for kafka", "audit_id", row.ID, "error", err)
		return
	}
	record := &kgo.Record{
		Key:   []byte(row.TenantID),
		Value: value,
		Topic: s.topic,
	}
	s.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			s.logger.Warn("kafka audit produce failed", "audit_id", row.ID, "error", err)
		}
	})
}

func (s *KafkaSink) Close() {
	s.client.Close()
}
