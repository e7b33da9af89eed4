package rabbitmq

import (
	"log"

	"github.com/director74/logistics-tracker/pkg/events"
	"github.com/director74/logistics-tracker/pkg/messaging"
)

// InventoryEventsConsumer обрабатывает события склада, интересные сервису заказов
type InventoryEventsConsumer struct {
	consumer *messaging.EventConsumer
	logger   *log.Logger
}

// NewInventoryEventsConsumer создает обработчик событий склада
func NewInventoryEventsConsumer(consumer *messaging.EventConsumer) *InventoryEventsConsumer {
	return &InventoryEventsConsumer{
		consumer: consumer,
		logger:   log.New(log.Writer(), "[OrderService] [InventoryEvents] ", log.LstdFlags),
	}
}

// Setup подписывает обработчики и запускает потребление событий
func (c *InventoryEventsConsumer) Setup() error {
	c.consumer.Subscribe("InventoryReleased", c.handleInventoryReleased)
	c.consumer.Subscribe("LowStockAlert", c.handleLowStockAlert)
	return c.consumer.Start()
}

func (c *InventoryEventsConsumer) handleInventoryReleased(envelope events.Envelope) error {
	var payload events.InventoryReleased
	if err := envelope.DecodePayload(&payload); err != nil {
		return err
	}

	c.logger.Printf("Резервация %s освобождена: товар %s (%s), заказ %s, доступно теперь %d",
		payload.ReservationID, payload.StockKeepingUnit, payload.ProductID, payload.OrderID, payload.NewAvailableQuantity)
	return nil
}

func (c *InventoryEventsConsumer) handleLowStockAlert(envelope events.Envelope) error {
	var payload events.LowStockAlert
	if err := envelope.DecodePayload(&payload); err != nil {
		return err
	}

	c.logger.Printf("[WARN] Низкий остаток %s (%s): осталось %d при точке дозаказа %d, серьезность %s",
		payload.ProductName, payload.StockKeepingUnit, payload.CurrentQuantity, payload.ReorderPoint, payload.Severity)
	return nil
}
