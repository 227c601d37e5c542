package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"pollkeeper/contexts/polling/poll-store/ports"

	"github.com/segmentio/kafka-go"
)

// Kafka is the event bus adapter for poll and schedule events. With brokers
// it writes every event to the broker keyed by partition key. An offline
// bus only logs what it would have published.
type Kafka struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewKafka builds the bus. Brokers are ignored when offline is true.
func NewKafka(brokers []string, offline bool, logger *slog.Logger) (*Kafka, error) {
	if logger == nil {
		logger = slog.Default()
	}
	bus := &Kafka{logger: logger}
	if offline || len(brokers) == 0 {
		return bus, nil
	}
	bus.writer = &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}
	return bus, nil
}

// Remote reports whether events leave the process.
func (k *Kafka) Remote() bool {
	return k.writer != nil
}

func (k *Kafka) Publish(ctx context.Context, topic string, event ports.EventEnvelope) error {
	if k.writer != nil {
		value, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("encode event %s: %w", event.EventID, err)
		}
		err = k.writer.WriteMessages(ctx, kafka.Message{
			Topic: topic,
			Key:   []byte(event.PartitionKey),
			Value: value,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(event.EventType)},
				{Key: "schema_version", Value: []byte(fmt.Sprint(event.SchemaVersion))},
			},
		})
		if err != nil {
			k.logger.Error("event publish failed",
				"event", "kafka_publish_failed",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"event_id", event.EventID,
				"error", err.Error(),
			)
			return fmt.Errorf("write event %s: %w", event.EventID, err)
		}
	}

	k.logger.Debug("event published",
		"event", "kafka_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"event_id", event.EventID,
		"event_type", event.EventType,
		"remote", k.writer != nil,
	)
	return nil
}

func (k *Kafka) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}

var _ ports.EventPublisher = (*Kafka)(nil)
