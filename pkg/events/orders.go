package events

import "time"

// OrderItemData элемент заказа в составе события
type OrderItemData struct {
	ProductID        string  `json:"product_id"`
	ProductName      string  `json:"product_name"`
	StockKeepingUnit string  `json:"stock_keeping_unit"`
	Quantity         int     `json:"quantity"`
	UnitPrice        float64 `json:"unit_price"`
}

// OrderCreated заказ создан и товары под него зарезервированы
type OrderCreated struct {
	OrderID        string          `json:"order_id"`
	OrderNumber    string          `json:"order_number"`
	CustomerID     string          `json:"customer_id"`
	CustomerName   string          `json:"customer_name"`
	CustomerEmail  string          `json:"customer_email"`
	Items          []OrderItemData `json:"items"`
	TotalAmount    float64         `json:"total_amount"`
	ReservationIDs []string        `json:"reservation_ids"`
}

func (OrderCreated) EventType() string { return "OrderCreated" }

// OrderConfirmed заказ подтвержден
type OrderConfirmed struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	CustomerID  string    `json:"customer_id"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

func (OrderConfirmed) EventType() string { return "OrderConfirmed" }

// OrderCancelled заказ отменен
type OrderCancelled struct {
	OrderID            string   `json:"order_id"`
	OrderNumber        string   `json:"order_number"`
	ReservationIDs     []string `json:"reservation_ids"`
	CancellationReason string   `json:"cancellation_reason,omitempty"`
}

func (OrderCancelled) EventType() string { return "OrderCancelled" }

// OrderStatusChanged статус заказа изменился
type OrderStatusChanged struct {
	OrderID        string `json:"order_id"`
	OrderNumber    string `json:"order_number"`
	PreviousStatus string `json:"previous_status"`
	NewStatus      string `json:"new_status"`
	Reason         string `json:"reason,omitempty"`
}

func (OrderStatusChanged) EventType() string { return "OrderStatusChanged" }
