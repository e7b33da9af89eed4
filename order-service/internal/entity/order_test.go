package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidStatusTransition(t *testing.T) {
	tests := []struct {
		current OrderStatus
		next    OrderStatus
		valid   bool
	}{
		{OrderStatusPending, OrderStatusProcessing, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusPending, OrderStatusDelivered, false},
		{OrderStatusProcessing, OrderStatusConfirmed, true},
		{OrderStatusProcessing, OrderStatusCancelled, true},
		{OrderStatusProcessing, OrderStatusShipped, false},
		{OrderStatusConfirmed, OrderStatusShipped, true},
		{OrderStatusConfirmed, OrderStatusCancelled, true},
		{OrderStatusConfirmed, OrderStatusDelivered, false},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusPending, false},
		// Переход в тот же статус всегда допустим
		{OrderStatusDelivered, OrderStatusDelivered, true},
		{OrderStatusCancelled, OrderStatusCancelled, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.valid, IsValidStatusTransition(tt.current, tt.next),
			"переход %s -> %s", tt.current, tt.next)
	}
}

func TestParseOrderStatus(t *testing.T) {
	status, ok := ParseOrderStatus("confirmed")
	assert.True(t, ok)
	assert.Equal(t, OrderStatusConfirmed, status)

	_, ok = ParseOrderStatus("unknown")
	assert.False(t, ok)
}

func TestCalculateTotal(t *testing.T) {
	order := Order{
		Items: []OrderItem{
			{Quantity: 2, UnitPrice: 10.5},
			{Quantity: 3, UnitPrice: 4.0},
		},
	}

	assert.Equal(t, 33.0, order.CalculateTotal())
	assert.Equal(t, 33.0, order.TotalAmount)
}

func TestOrderIsValid(t *testing.T) {
	valid := Order{Items: []OrderItem{{Quantity: 1, UnitPrice: 1.0}}}
	valid.CalculateTotal()
	assert.True(t, valid.IsValid())

	empty := Order{TotalAmount: 10}
	assert.False(t, empty.IsValid())

	zeroQuantity := Order{Items: []OrderItem{{Quantity: 0, UnitPrice: 1.0}}, TotalAmount: 10}
	assert.False(t, zeroQuantity.IsValid())

	zeroPrice := Order{Items: []OrderItem{{Quantity: 1, UnitPrice: 0}}, TotalAmount: 10}
	assert.False(t, zeroPrice.IsValid())
}
