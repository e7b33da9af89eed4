package usecase

import (
	"context"

	"github.com/director74/logistics-tracker/order-service/internal/entity"
)

// StockCheckItem результат проверки наличия одной позиции заказа
type StockCheckItem struct {
	ProductID         string
	SKU               string
	RequestedQuantity int
	AvailableQuantity int
	CanFulfill        bool
	Message           string
}

// StockCheckResult итог проверки наличия по всем позициям заказа
type StockCheckResult struct {
	AllAvailable bool
	Items        []StockCheckItem
}

// ReservationResult результат резервирования одной позиции заказа
type ReservationResult struct {
	ReservationID string
	ProductID     string
	SKU           string
	Quantity      int
	Success       bool
	Message       string
}

// InventoryService интерфейс для работы с сервисом склада
type InventoryService interface {
	CheckStockAvailability(ctx context.Context, items []entity.OrderItem) (StockCheckResult, error)
	ReserveInventoryForOrder(ctx context.Context, orderID string, items []entity.OrderItem) ([]ReservationResult, error)
	ReleaseOrderReservations(ctx context.Context, orderID string, reservationIDs []string) error
}

// PaymentResult результат проведения платежа
type PaymentResult struct {
	Success   bool
	PaymentID string
	Message   string
}

// PaymentService интерфейс для работы с сервисом платежей
type PaymentService interface {
	ProcessPayment(ctx context.Context, orderID, customerID string, amount float64, currency string) (PaymentResult, error)
	RefundPayment(ctx context.Context, paymentID string, amount float64) (bool, error)
}

// OrderNumberGenerator генерирует уникальные номера заказов
type OrderNumberGenerator interface {
	Next() string
}
