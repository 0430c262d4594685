package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/finvault/ledger/pkg/eventbus"
	"github.com/segmentio/kafka-go"
)

// KafkaPublisherConfig holds configuration for the Kafka publisher.
type KafkaPublisherConfig struct {
	Brokers string
	Topic   string
}

// KafkaPublisher writes events to a Kafka topic, one JSON envelope per
// event, keyed by event type so consumers of a given type stay ordered.
type KafkaPublisher struct {
	writer *kafka.Writer
	topic  string
	logger *slog.Logger
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewKafkaPublisher creates a Kafka-backed publisher.
// Brokers is a comma-separated list, e.g. "localhost:9092,localhost:9093".
func NewKafkaPublisher(cfg KafkaPublisherConfig, logger *slog.Logger) (*KafkaPublisher, error) {
	brokers := parseBrokers(cfg.Brokers)
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher: brokers are required")
	}
	topic := strings.TrimSpace(cfg.Topic)
	if topic == "" {
		return nil, fmt.Errorf("kafka publisher: topic is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		Balancer:               &kafka.Hash{},
	}

	return &KafkaPublisher{
		writer: writer,
		topic:  topic,
		logger: logger.With("bus", "kafka", "topic", topic),
	}, nil
}

// Publish writes the event to the topic.
func (p *KafkaPublisher) Publish(ctx context.Context, event eventbus.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka publisher: marshal failed: %w", err)
	}
	env, err := json.Marshal(envelope{Type: event.Type(), Payload: payload})
	if err != nil {
		return fmt.Errorf("kafka publisher: envelope marshal failed: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.Type()),
		Value: env,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publisher: publish failed: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func parseBrokers(brokers string) []string {
	parts := strings.Split(brokers, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

var _ eventbus.Publisher = (*KafkaPublisher)(nil)
