package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/agentgate/agentgate/internal/domain"
)

// KafkaPublisher implements domain.DecisionPublisher on a Kafka topic.
// Events are keyed by tenant so one tenant's decisions land in order on a
// single partition.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewKafkaPublisher creates a publisher writing to the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           2 * time.Second,
		RequiredAcks:           kafka.RequireOne,
	}
	return &KafkaPublisher{writer: writer, logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event domain.DecisionEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal decision event: %w", err)
	}

	key := event.TenantID
	if key == "" {
		key = event.Principal
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	})
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
