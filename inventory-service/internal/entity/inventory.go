package entity

import (
	"time"
)

// StockMovementType тип движения товара по складу
type StockMovementType string

// Константы для типов движения товара
const (
	MovementReceipt     StockMovementType = "receipt"     // Приход от поставщика
	MovementAdjustment  StockMovementType = "adjustment"  // Корректировка до абсолютного значения
	MovementReservation StockMovementType = "reservation" // Резервирование под заказ
	MovementRelease     StockMovementType = "release"     // Освобождение резервации
	MovementShipment    StockMovementType = "shipment"    // Отгрузка покупателю
	MovementReturn      StockMovementType = "return"      // Возврат от покупателя
	MovementDamage      StockMovementType = "damage"      // Списание брака
)

// InventoryItem представляет товарную позицию на складе
type InventoryItem struct {
	ID                string    `json:"id" gorm:"type:uuid;primaryKey"`
	ProductID         string    `json:"product_id" gorm:"type:uuid;not null;uniqueIndex"`
	SKU               string    `json:"sku" gorm:"not null;uniqueIndex"`
	ProductName       string    `json:"product_name" gorm:"not null"`
	QuantityAvailable int       `json:"quantity_available" gorm:"not null;default:0"`
	QuantityReserved  int       `json:"quantity_reserved" gorm:"not null;default:0"`
	ReorderPoint      int       `json:"reorder_point" gorm:"not null;default:0"`
	ReorderQuantity   int       `json:"reorder_quantity" gorm:"not null;default:0"`
	UnitPrice         float64   `json:"unit_price" gorm:"not null"`
	WarehouseLocation string    `json:"warehouse_location" gorm:"not null;default:''"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TotalQuantity возвращает общее количество товара: доступное плюс зарезервированное
func (i *InventoryItem) TotalQuantity() int {
	return i.QuantityAvailable + i.QuantityReserved
}

// IsLowStock проверяет, достиг ли остаток точки перезаказа
func (i *InventoryItem) IsLowStock() bool {
	return i.TotalQuantity() <= i.ReorderPoint
}

// IsOutOfStock проверяет, закончился ли доступный товар
func (i *InventoryItem) IsOutOfStock() bool {
	return i.QuantityAvailable <= 0
}

// CanReserve проверяет, достаточно ли доступного товара для резервирования
func (i *InventoryItem) CanReserve(quantity int) bool {
	return i.QuantityAvailable >= quantity
}

// RecommendedReorderQuantity возвращает рекомендуемое количество для дозаказа
func (i *InventoryItem) RecommendedReorderQuantity() int {
	recommended := i.ReorderPoint + i.ReorderQuantity - i.TotalQuantity()
	if recommended < 0 {
		return 0
	}
	return recommended
}

// InventoryReservation представляет резервацию товара под заказ.
// После освобождения резервация неизменяема и не может быть освобождена повторно.
type InventoryReservation struct {
	ID         string     `json:"id" gorm:"type:uuid;primaryKey"`
	ProductID  string     `json:"product_id" gorm:"type:uuid;not null;index"`
	OrderID    string     `json:"order_id" gorm:"type:uuid;not null;index"`
	Quantity   int        `json:"quantity" gorm:"not null"`
	ReservedAt time.Time  `json:"reserved_at"`
	ReleasedAt *time.Time `json:"released_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// IsActive проверяет, активна ли резервация
func (r *InventoryReservation) IsActive() bool {
	return r.ReleasedAt == nil
}

// CreateInventoryItemRequest запрос на заведение товара на складе
type CreateInventoryItemRequest struct {
	ProductID         string  `json:"product_id" binding:"required"`
	SKU               string  `json:"sku" binding:"required"`
	ProductName       string  `json:"product_name" binding:"required"`
	InitialQuantity   int     `json:"initial_quantity" binding:"gte=0"`
	ReorderPoint      int     `json:"reorder_point" binding:"gte=0"`
	ReorderQuantity   int     `json:"reorder_quantity" binding:"gte=0"`
	UnitPrice         float64 `json:"unit_price" binding:"required,gt=0"`
	WarehouseLocation string  `json:"warehouse_location"`
}

// GetInventoryResponse ответ на запрос информации о товаре
type GetInventoryResponse struct {
	ID                string    `json:"id"`
	ProductID         string    `json:"product_id"`
	SKU               string    `json:"sku"`
	ProductName       string    `json:"product_name"`
	QuantityAvailable int       `json:"quantity_available"`
	QuantityReserved  int       `json:"quantity_reserved"`
	TotalQuantity     int       `json:"total_quantity"`
	ReorderPoint      int       `json:"reorder_point"`
	ReorderQuantity   int       `json:"reorder_quantity"`
	UnitPrice         float64   `json:"unit_price"`
	WarehouseLocation string    `json:"warehouse_location"`
	IsLowStock        bool      `json:"is_low_stock"`
	IsOutOfStock      bool      `json:"is_out_of_stock"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ListInventoryResponse ответ на запрос списка товаров
type ListInventoryResponse struct {
	Items []GetInventoryResponse `json:"items"`
	Total int64                  `json:"total"`
}

// LowStockItemResponse товар с низким остатком и рекомендацией по дозаказу
type LowStockItemResponse struct {
	ProductID        string `json:"product_id"`
	SKU              string `json:"sku"`
	ProductName      string `json:"product_name"`
	TotalQuantity    int    `json:"total_quantity"`
	ReorderPoint     int    `json:"reorder_point"`
	QuantityToOrder  int    `json:"quantity_to_order"`
	Severity         string `json:"severity"`
	QuantityReserved int    `json:"quantity_reserved"`
}

// CheckItem элемент запроса на проверку наличия
type CheckItem struct {
	SKU      string `json:"sku" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
}

// CheckAvailabilityRequest запрос на проверку наличия товаров
type CheckAvailabilityRequest struct {
	Items []CheckItem `json:"items" binding:"required,dive"`
}

// ItemAvailability результат проверки наличия одного товара
type ItemAvailability struct {
	SKU        string `json:"sku"`
	Available  int    `json:"available"`
	CanFulfill bool   `json:"can_fulfill"`
	Message    string `json:"message,omitempty"`
}

// CheckAvailabilityResponse ответ на проверку наличия товаров
type CheckAvailabilityResponse struct {
	AllAvailable bool               `json:"all_available"`
	Items        []ItemAvailability `json:"items"`
}

// ReserveItem элемент запроса на резервирование
type ReserveItem struct {
	ProductID string `json:"product_id" binding:"required"`
	SKU       string `json:"sku"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

// ReserveForOrderRequest запрос на резервирование товаров под заказ
type ReserveForOrderRequest struct {
	OrderID string        `json:"order_id" binding:"required"`
	Items   []ReserveItem `json:"items" binding:"required,dive"`
}

// ReservedItemResult результат резервирования одного товара.
// Каждый элемент резервируется независимо от остальных.
type ReservedItemResult struct {
	ProductID     string `json:"product_id"`
	SKU           string `json:"sku"`
	Quantity      int    `json:"quantity"`
	ReservationID string `json:"reservation_id,omitempty"`
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
}

// ReserveForOrderResponse ответ на резервирование товаров под заказ
type ReserveForOrderResponse struct {
	OrderID string               `json:"order_id"`
	Items   []ReservedItemResult `json:"items"`
}

// ReleaseForOrderRequest запрос на освобождение резерваций заказа
type ReleaseForOrderRequest struct {
	OrderID        string   `json:"order_id" binding:"required"`
	ReservationIDs []string `json:"reservation_ids" binding:"required"`
}

// ReleaseForOrderResponse ответ на освобождение резерваций
type ReleaseForOrderResponse struct {
	OrderID  string `json:"order_id"`
	Released int    `json:"released"`
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
}

// UpdateStockRequest запрос на изменение остатка товара
type UpdateStockRequest struct {
	Quantity     int               `json:"quantity" binding:"gte=0"`
	MovementType StockMovementType `json:"movement_type" binding:"required"`
	Reason       string            `json:"reason"`
}
