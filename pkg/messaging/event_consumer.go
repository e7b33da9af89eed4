package messaging

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/director74/logistics-tracker/pkg/events"
)

// EventHandler обработчик доменного события определенного типа
type EventHandler func(envelope events.Envelope) error

// EventConsumer подписывает группу потребителей на доменные события.
// Для каждого типа события объявляется отдельная очередь вида
// "<группа>.<топик>", привязанная к topic exchange по имени топика.
type EventConsumer struct {
	consumer    MessageConsumer
	exchange    string
	topicPrefix string
	group       string
	logger      *log.Logger
	handlers    map[string][]EventHandler
}

// NewEventConsumer создает потребителя событий для указанной группы
func NewEventConsumer(consumer MessageConsumer, exchange, topicPrefix, group string, logger *log.Logger) *EventConsumer {
	if logger == nil {
		logger = log.New(log.Writer(), "[Events] ", log.LstdFlags)
	}
	return &EventConsumer{
		consumer:    consumer,
		exchange:    exchange,
		topicPrefix: topicPrefix,
		group:       group,
		logger:      logger,
		handlers:    make(map[string][]EventHandler),
	}
}

// Subscribe регистрирует обработчик для типа события. Несколько обработчиков
// одного типа вызываются последовательно в порядке регистрации.
func (c *EventConsumer) Subscribe(eventType string, handler EventHandler) {
	c.handlers[eventType] = append(c.handlers[eventType], handler)
}

// Start объявляет очереди для всех подписок и начинает обработку.
// Ошибки декодирования и ошибки обработчиков логируются, но сообщение
// подтверждается: повторная доставка не исправит некорректный конверт,
// а обработчики обязаны быть идемпотентными.
func (c *EventConsumer) Start() error {
	for eventType := range c.handlers {
		topic := events.TopicName(c.topicPrefix, eventType)
		queueName := fmt.Sprintf("%s.%s", c.group, topic)

		if err := c.consumer.DeclareQueue(queueName); err != nil {
			return fmt.Errorf("не удалось объявить очередь %s: %w", queueName, err)
		}
		if err := c.consumer.BindQueue(queueName, c.exchange, topic); err != nil {
			return fmt.Errorf("не удалось привязать очередь %s к %s: %w", queueName, topic, err)
		}

		et := eventType
		handleFn := func(body []byte) error {
			c.dispatch(et, body)
			return nil
		}

		consumerName := fmt.Sprintf("%s-consumer", queueName)
		if err := c.consumer.ConsumeMessages(queueName, consumerName, handleFn); err != nil {
			return fmt.Errorf("не удалось начать обработку очереди %s: %w", queueName, err)
		}

		c.logger.Printf("Группа %s подписана на %s (очередь %s)", c.group, topic, queueName)
	}

	return nil
}

// dispatch декодирует конверт и передает его всем обработчикам типа
func (c *EventConsumer) dispatch(eventType string, body []byte) {
	var envelope events.Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		c.logger.Printf("Ошибка декодирования конверта события %s: %v", eventType, err)
		return
	}

	for _, handler := range c.handlers[eventType] {
		if err := handler(envelope); err != nil {
			c.logger.Printf("Ошибка обработки события %s (id=%s): %v", envelope.EventType, envelope.EventID, err)
		}
	}
}
