package rabbitmq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/director74/logistics-tracker/pkg/events"
)

func TestHandleOrderCreatedOnlyObserves(t *testing.T) {
	consumer := NewOrderEventsConsumer(nil, nil)

	envelope, err := events.NewEnvelope(events.OrderCreated{
		OrderID:        "order-1",
		OrderNumber:    "ORD-20260829-001000",
		CustomerID:     "cust-1",
		Items:          []events.OrderItemData{{ProductID: "prod-1", StockKeepingUnit: "WID-001-BLK", Quantity: 2}},
		ReservationIDs: []string{"res-1"},
	})
	require.NoError(t, err)

	// Обработчик не обращается к журналу склада, поэтому nil-журнал не мешает
	assert.NoError(t, consumer.handleOrderCreated(envelope))
}

func TestHandleOrderCreatedRejectsMalformedPayload(t *testing.T) {
	consumer := NewOrderEventsConsumer(nil, nil)

	envelope := events.Envelope{EventType: "OrderCreated", Payload: []byte("{не json")}
	assert.Error(t, consumer.handleOrderCreated(envelope))
}
