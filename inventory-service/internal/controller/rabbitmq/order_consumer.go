package rabbitmq

import (
	"context"
	"log"

	"github.com/director74/logistics-tracker/inventory-service/internal/usecase"
	"github.com/director74/logistics-tracker/pkg/events"
	"github.com/director74/logistics-tracker/pkg/messaging"
)

// OrderEventsConsumer обрабатывает события заказов, затрагивающие склад
type OrderEventsConsumer struct {
	ledger   *usecase.InventoryLedger
	consumer *messaging.EventConsumer
	logger   *log.Logger
}

// NewOrderEventsConsumer создает обработчик событий заказов
func NewOrderEventsConsumer(ledger *usecase.InventoryLedger, consumer *messaging.EventConsumer) *OrderEventsConsumer {
	return &OrderEventsConsumer{
		ledger:   ledger,
		consumer: consumer,
		logger:   log.New(log.Writer(), "[InventoryService] [OrderEvents] ", log.LstdFlags),
	}
}

// Setup подписывает обработчики и запускает потребление событий
func (c *OrderEventsConsumer) Setup() error {
	c.consumer.Subscribe("OrderCreated", c.handleOrderCreated)
	c.consumer.Subscribe("OrderCancelled", c.handleOrderCancelled)
	return c.consumer.Start()
}

// handleOrderCreated фиксирует созданный заказ в журнале. Резервации к этому
// моменту уже сделаны сагой, складу остается только наблюдение.
func (c *OrderEventsConsumer) handleOrderCreated(envelope events.Envelope) error {
	var payload events.OrderCreated
	if err := envelope.DecodePayload(&payload); err != nil {
		return err
	}

	c.logger.Printf("Создан заказ %s (%s): позиций %d, резерваций %d",
		payload.OrderNumber, payload.OrderID, len(payload.Items), len(payload.ReservationIDs))
	return nil
}

// handleOrderCancelled освобождает резервации отмененного заказа.
// Резервации, уже освобожденные компенсацией саги, пропускаются.
func (c *OrderEventsConsumer) handleOrderCancelled(envelope events.Envelope) error {
	var payload events.OrderCancelled
	if err := envelope.DecodePayload(&payload); err != nil {
		return err
	}

	c.logger.Printf("Заказ %s (%s) отменен, освобождаем резервации", payload.OrderNumber, payload.OrderID)

	released, err := c.ledger.ReleaseByOrderID(context.Background(), payload.OrderID)
	if err != nil {
		c.logger.Printf("[ERROR] Ошибка освобождения резерваций заказа %s: %v", payload.OrderID, err)
		return err
	}

	c.logger.Printf("Освобождено резерваций заказа %s: %d", payload.OrderID, released)
	return nil
}
