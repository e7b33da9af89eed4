package events

// AlertSeverity серьезность предупреждения о низком остатке
type AlertSeverity string

const (
	SeverityCritical AlertSeverity = "critical" // Товар полностью закончился
	SeverityHigh     AlertSeverity = "high"     // Остаток не выше 25% точки перезаказа
	SeverityMedium   AlertSeverity = "medium"   // Остаток не выше 50% точки перезаказа
	SeverityLow      AlertSeverity = "low"      // Остаток ниже точки перезаказа
)

// InventoryItemCreated товар заведен на складе
type InventoryItemCreated struct {
	ProductID         string  `json:"product_id"`
	StockKeepingUnit  string  `json:"stock_keeping_unit"`
	ProductName       string  `json:"product_name"`
	InitialQuantity   int     `json:"initial_quantity"`
	UnitPrice         float64 `json:"unit_price"`
	WarehouseLocation string  `json:"warehouse_location"`
}

func (InventoryItemCreated) EventType() string { return "InventoryItemCreated" }

// InventoryReserved товар зарезервирован под заказ
type InventoryReserved struct {
	ReservationID     string `json:"reservation_id"`
	ProductID         string `json:"product_id"`
	StockKeepingUnit  string `json:"stock_keeping_unit"`
	OrderID           string `json:"order_id"`
	Quantity          int    `json:"quantity"`
	RemainingQuantity int    `json:"remaining_quantity"`
}

func (InventoryReserved) EventType() string { return "InventoryReserved" }

// InventoryReleased резервация товара освобождена
type InventoryReleased struct {
	ReservationID        string `json:"reservation_id"`
	ProductID            string `json:"product_id"`
	StockKeepingUnit     string `json:"stock_keeping_unit"`
	OrderID              string `json:"order_id"`
	Quantity             int    `json:"quantity"`
	NewAvailableQuantity int    `json:"new_available_quantity"`
}

func (InventoryReleased) EventType() string { return "InventoryReleased" }

// StockLevelChanged остаток товара изменился вследствие движения по складу
type StockLevelChanged struct {
	ProductID        string `json:"product_id"`
	StockKeepingUnit string `json:"stock_keeping_unit"`
	PreviousQuantity int    `json:"previous_quantity"`
	NewQuantity      int    `json:"new_quantity"`
	QuantityChanged  int    `json:"quantity_changed"`
	MovementType     string `json:"movement_type"`
	Reason           string `json:"reason,omitempty"`
}

func (StockLevelChanged) EventType() string { return "StockLevelChanged" }

// LowStockAlert остаток товара достиг точки перезаказа
type LowStockAlert struct {
	ProductID        string        `json:"product_id"`
	StockKeepingUnit string        `json:"stock_keeping_unit"`
	ProductName      string        `json:"product_name"`
	CurrentQuantity  int           `json:"current_quantity"`
	ReorderPoint     int           `json:"reorder_point"`
	ReorderQuantity  int           `json:"reorder_quantity"`
	QuantityToOrder  int           `json:"quantity_to_order"`
	Severity         AlertSeverity `json:"severity"`
}

func (LowStockAlert) EventType() string { return "LowStockAlert" }
