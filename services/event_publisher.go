package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/kendall-kelly/repair-shop-api/models"
	"github.com/segmentio/kafka-go"
)

// Event types published to the event stream
const (
	EventRequestCreated = "request_created"
	EventStatusChanged  = "status_changed"
	EventMessageCreated = "message_created"
)

// Event is one entry on the repair event stream
type Event struct {
	Type            string              `json:"type"`
	RepairRequestID string              `json:"repair_request_id"`
	From            models.RepairStatus `json:"from,omitempty"`
	To              models.RepairStatus `json:"to,omitempty"`
	ActorID         string              `json:"actor_id"`
	OccurredAt      time.Time           `json:"occurred_at"`
}

// EventPublisher hands events to the outbound stream
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// kafkaWriter is the part of *kafka.Writer the publisher uses
type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaEventPublisher writes events to a Kafka topic keyed by repair request id
type KafkaEventPublisher struct {
	writer kafkaWriter
}

// kafkaBatchTimeout bounds how long a single event waits for a batch to fill
const kafkaBatchTimeout = 10 * time.Millisecond

// NewKafkaEventPublisher creates a publisher for topic on brokers. Each write
// is flushed as a one-message batch.
func NewKafkaEventPublisher(brokers []string, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			BatchSize:              1,
			BatchTimeout:           kafkaBatchTimeout,
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
	}
}

// Publish writes one event. Messages for the same request share a key so
// they stay ordered within a partition.
func (p *KafkaEventPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.RepairRequestID),
		Value: value,
		Time:  event.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("failed to write event to kafka: %w", err)
	}
	return nil
}

// Close flushes and closes the writer
func (p *KafkaEventPublisher) Close() error {
	return p.writer.Close()
}

// LogEventPublisher only logs events. It is used when no brokers are configured.
type LogEventPublisher struct {
	log logr.Logger
}

// NewLogEventPublisher creates a publisher that writes events to log at debug level
func NewLogEventPublisher(log logr.Logger) *LogEventPublisher {
	return &LogEventPublisher{log: log}
}

func (p *LogEventPublisher) Publish(_ context.Context, event Event) error {
	p.log.V(1).Info("event", "type", event.Type, "repairRequestID", event.RepairRequestID, "from", event.From, "to", event.To)
	return nil
}

func (p *LogEventPublisher) Close() error {
	return nil
}
