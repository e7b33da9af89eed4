package messaging

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/director74/logistics-tracker/pkg/events"
	"github.com/director74/logistics-tracker/pkg/rabbitmq"
)

// EventPublisher публикует доменные события за границу сервиса
type EventPublisher interface {
	Publish(ctx context.Context, event events.DomainEvent) error
}

// RabbitEventPublisher публикует события в topic exchange RabbitMQ.
// Ключ маршрутизации выводится из типа события, тело — конверт события.
type RabbitEventPublisher struct {
	publisher   MessagePublisher
	exchange    string
	topicPrefix string
	logger      *log.Logger
}

// NewRabbitEventPublisher создает издатель событий поверх RabbitMQ
func NewRabbitEventPublisher(publisher MessagePublisher, exchange, topicPrefix string, logger *log.Logger) *RabbitEventPublisher {
	if logger == nil {
		logger = log.New(log.Writer(), "[Events] ", log.LstdFlags)
	}
	return &RabbitEventPublisher{
		publisher:   publisher,
		exchange:    exchange,
		topicPrefix: topicPrefix,
		logger:      logger,
	}
}

// Publish оборачивает событие в конверт и публикует его.
// Заголовки дублируют метаданные конверта, чтобы брокеры и инструменты
// могли маршрутизировать без разбора тела.
func (p *RabbitEventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	envelope, err := events.NewEnvelope(event)
	if err != nil {
		return fmt.Errorf("не удалось сформировать конверт события %s: %w", event.EventType(), err)
	}

	topic := events.TopicName(p.topicPrefix, envelope.EventType)

	opts := rabbitmq.PublishOptions{
		MessageID: envelope.EventID,
		Headers: map[string]interface{}{
			"event-id":      envelope.EventID,
			"event-type":    envelope.EventType,
			"event-version": envelope.Version,
			"occurred-at":   envelope.OccurredAt.Format(time.RFC3339Nano),
		},
	}

	if err := p.publisher.PublishMessageWithOptions(p.exchange, topic, envelope, opts); err != nil {
		return fmt.Errorf("не удалось опубликовать событие %s в %s: %w", envelope.EventType, topic, err)
	}

	p.logger.Printf("Опубликовано событие %s (id=%s, topic=%s)", envelope.EventType, envelope.EventID, topic)
	return nil
}
