package entity

import (
	"time"

	"gorm.io/datatypes"
)

// OrderStatus статус заказа
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// ParseOrderStatus проверяет, что строка является известным статусом заказа
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusConfirmed,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return OrderStatus(s), true
	}
	return "", false
}

// IsValidStatusTransition проверяет допустимость перехода между статусами заказа.
// Переход в тот же статус всегда разрешен.
func IsValidStatusTransition(current, next OrderStatus) bool {
	if current == next {
		return true
	}

	switch current {
	case OrderStatusPending:
		return next == OrderStatusProcessing || next == OrderStatusCancelled
	case OrderStatusProcessing:
		return next == OrderStatusConfirmed || next == OrderStatusCancelled
	case OrderStatusConfirmed:
		return next == OrderStatusShipped || next == OrderStatusCancelled
	case OrderStatusShipped:
		return next == OrderStatusDelivered
	}

	// delivered и cancelled — терминальные статусы
	return false
}

// Address адрес доставки заказа
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// OrderItem позиция заказа
type OrderItem struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	SKU         string  `json:"sku"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// LineTotal стоимость позиции заказа
func (i OrderItem) LineTotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

// Order хранит информацию о заказе клиента, его статусе и связанных позициях
type Order struct {
	ID                 string                         `json:"id" gorm:"primaryKey;type:uuid"`
	OrderNumber        string                         `json:"order_number" gorm:"uniqueIndex"`
	CustomerID         string                         `json:"customer_id" gorm:"index;type:uuid"`
	CustomerName       string                         `json:"customer_name"`
	CustomerEmail      string                         `json:"customer_email"`
	ShippingAddress    Address                        `json:"shipping_address" gorm:"embedded;embeddedPrefix:shipping_"`
	Items              datatypes.JSONSlice[OrderItem] `json:"items"`
	TotalAmount        float64                        `json:"total_amount"`
	Currency           string                         `json:"currency"`
	Status             OrderStatus                    `json:"status" gorm:"index"`
	ReservationIDs     datatypes.JSONSlice[string]    `json:"reservation_ids"`
	PaymentID          string                         `json:"payment_id"`
	ConfirmationNumber string                         `json:"confirmation_number"`
	Notes              string                         `json:"notes"`
	CreatedAt          time.Time                      `json:"created_at"`
	UpdatedAt          time.Time                      `json:"updated_at"`
}

// CalculateTotal пересчитывает сумму заказа по позициям
func (o *Order) CalculateTotal() float64 {
	var total float64
	for _, item := range o.Items {
		total += item.LineTotal()
	}
	o.TotalAmount = total
	return total
}

// IsValid проверяет, что заказ состоятелен: есть позиции, сумма положительна,
// у каждой позиции положительные количество и цена
func (o *Order) IsValid() bool {
	if len(o.Items) == 0 || o.TotalAmount <= 0 {
		return false
	}
	for _, item := range o.Items {
		if item.Quantity <= 0 || item.UnitPrice <= 0 {
			return false
		}
	}
	return true
}

// CreateOrderItemRequest позиция заказа в запросе на создание
type CreateOrderItemRequest struct {
	ProductID   string  `json:"product_id" binding:"required"`
	ProductName string  `json:"product_name"`
	SKU         string  `json:"sku" binding:"required"`
	Quantity    int     `json:"quantity" binding:"required"`
	UnitPrice   float64 `json:"unit_price" binding:"required"`
}

// CreateOrderRequest запрос на создание заказа
type CreateOrderRequest struct {
	CustomerID      string                   `json:"customer_id" binding:"required"`
	CustomerName    string                   `json:"customer_name" binding:"required"`
	CustomerEmail   string                   `json:"customer_email" binding:"required,email"`
	ShippingAddress Address                  `json:"shipping_address"`
	Items           []CreateOrderItemRequest `json:"items" binding:"required"`
	Notes           string                   `json:"notes"`
}

// CreateOrderResponse ответ на успешное создание заказа
type CreateOrderResponse struct {
	ID                 string      `json:"id"`
	OrderNumber        string      `json:"order_number"`
	Status             OrderStatus `json:"status"`
	TotalAmount        float64     `json:"total_amount"`
	Currency           string      `json:"currency"`
	ConfirmationNumber string      `json:"confirmation_number"`
	PaymentID          string      `json:"payment_id"`
	ReservationIDs     []string    `json:"reservation_ids"`
	CreatedAt          time.Time   `json:"created_at"`
}

// GetOrderResponse ответ с полной информацией о заказе
type GetOrderResponse struct {
	ID                 string      `json:"id"`
	OrderNumber        string      `json:"order_number"`
	CustomerID         string      `json:"customer_id"`
	CustomerName       string      `json:"customer_name"`
	CustomerEmail      string      `json:"customer_email"`
	ShippingAddress    Address     `json:"shipping_address"`
	Items              []OrderItem `json:"items"`
	TotalAmount        float64     `json:"total_amount"`
	Currency           string      `json:"currency"`
	Status             OrderStatus `json:"status"`
	ConfirmationNumber string      `json:"confirmation_number,omitempty"`
	Notes              string      `json:"notes,omitempty"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// ListOrdersResponse постраничный список заказов
type ListOrdersResponse struct {
	Orders []GetOrderResponse `json:"orders"`
	Total  int64              `json:"total"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

// UpdateOrderStatusRequest запрос на смену статуса заказа
type UpdateOrderStatusRequest struct {
	NewStatus string `json:"new_status" binding:"required"`
	Reason    string `json:"reason"`
}

// CancelOrderResponse ответ на отмену заказа
type CancelOrderResponse struct {
	ID          string      `json:"id"`
	OrderNumber string      `json:"order_number"`
	Status      OrderStatus `json:"status"`
}
