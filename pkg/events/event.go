package events

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// DomainEvent полезная нагрузка доменного события. Имя типа события задает
// топик, в который оно маршрутизируется (см. TopicName).
type DomainEvent interface {
	EventType() string
}

// Version текущая версия схемы всех доменных событий
const Version = 1

// Envelope конверт доменного события: уникальный идентификатор, имя типа,
// версия схемы, время возникновения и сериализованная полезная нагрузка
type Envelope struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	Version    int             `json:"version"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// NewEnvelope упаковывает доменное событие в конверт
func NewEnvelope(event DomainEvent) (Envelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return Envelope{}, fmt.Errorf("ошибка сериализации события %s: %w", event.EventType(), err)
	}

	return Envelope{
		EventID:    uuid.NewString(),
		EventType:  event.EventType(),
		Version:    Version,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}, nil
}

// DecodePayload извлекает полезную нагрузку конверта в указанную структуру
func (e Envelope) DecodePayload(target interface{}) error {
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return fmt.Errorf("ошибка десериализации события %s: %w", e.EventType, err)
	}
	return nil
}

// TopicName выводит имя топика из имени типа события: имя разбивается на
// слова по верхнему регистру и соединяется точками под заданным префиксом.
// Например, "OrderConfirmed" с префиксом "logistics" дает
// "logistics.order.confirmed".
func TopicName(prefix, eventType string) string {
	words := splitCamelCase(eventType)
	return prefix + "." + strings.ToLower(strings.Join(words, "."))
}

// splitCamelCase разбивает CamelCase-строку на слова
func splitCamelCase(input string) []string {
	var words []string
	var current strings.Builder

	for _, r := range input {
		if unicode.IsUpper(r) && current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
		current.WriteRune(r)
	}

	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}
