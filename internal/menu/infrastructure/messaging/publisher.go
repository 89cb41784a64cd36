// Package messaging publishes menu domain events.
package messaging

import (
	"context"
	"fmt"

	"github.com/wyfcoding/littlelemon/internal/menu/domain"
	"github.com/wyfcoding/littlelemon/pkg/logger"
)

// messageSender is satisfied by *mq.KafkaProducer.
type messageSender interface {
	SendMessage(ctx context.Context, topic string, key string, value any) error
}

type kafkaPublisher struct {
	sender messageSender
	topic  string
}

// NewKafkaPublisher publishes every event to topic through a Kafka producer.
// An empty topic sends each event to a topic named after its type.
func NewKafkaPublisher(sender messageSender, topic string) domain.EventPublisher {
	return &kafkaPublisher{sender: sender, topic: topic}
}

func (p *kafkaPublisher) Publish(ctx context.Context, eventType string, key string, event any) error {
	topic := p.topic
	if topic == "" {
		topic = eventType
	}
	if err := p.sender.SendMessage(ctx, topic, key, event); err != nil {
		return fmt.Errorf("publish %s to %s: %w", eventType, topic, err)
	}
	return nil
}

type logPublisher struct{}

// NewLogPublisher only logs events. Used when no broker is configured.
func NewLogPublisher() domain.EventPublisher {
	return logPublisher{}
}

func (logPublisher) Publish(ctx context.Context, eventType string, key string, _ any) error {
	logger.Debug(ctx, "event not published, no broker configured", "event_type", eventType, "key", key)
	return nil
}
