package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/director74/logistics-tracker/inventory-service/internal/entity"
	"github.com/director74/logistics-tracker/inventory-service/internal/repo"
	"github.com/director74/logistics-tracker/inventory-service/internal/validator"
	apperrors "github.com/director74/logistics-tracker/pkg/errors"
	"github.com/director74/logistics-tracker/pkg/events"
	"github.com/director74/logistics-tracker/pkg/messaging"
)

// InventoryLedger бизнес-логика учета товаров на складе.
//
// Все три мутирующие операции (Reserve, Release, UpdateStock) выполняются
// под одним общим мьютексом, а не под блокировкой на товар: потерянные
// обновления счетчиков available/reserved исключаются полной сериализацией.
// Критическая секция покрывает только чтение и запись состояния; публикация
// событий выполняется после ее освобождения.
type InventoryLedger struct {
	mu        sync.Mutex
	repo      repo.InventoryRepository
	publisher messaging.EventPublisher
	logger    *log.Logger
}

// NewInventoryLedger создает новый ledger склада
func NewInventoryLedger(repo repo.InventoryRepository, publisher messaging.EventPublisher, logger *log.Logger) *InventoryLedger {
	if logger == nil {
		logger = log.New(log.Writer(), "[InventoryLedger] ", log.LstdFlags)
	}
	return &InventoryLedger{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// publish отправляет доменное событие. Ошибка публикации не откатывает
// складскую операцию: доставка не реже одного раза, потребители идемпотентны.
func (l *InventoryLedger) publish(ctx context.Context, event events.DomainEvent) {
	if l.publisher == nil {
		return
	}
	if err := l.publisher.Publish(ctx, event); err != nil {
		apperrors.LogError(err, "InventoryLedger.publish")
	}
}

// CreateItem заводит новую товарную позицию на складе
func (l *InventoryLedger) CreateItem(ctx context.Context, req *entity.CreateInventoryItemRequest) (*entity.InventoryItem, error) {
	sku := validator.NormalizeSKU(req.SKU)
	if err := validator.ValidateSKU(sku); err != nil {
		return nil, apperrors.NewValidationError("sku", err.Error())
	}

	l.mu.Lock()

	existing, err := l.repo.GetItemBySKU(ctx, sku)
	if err != nil {
		l.mu.Unlock()
		return nil, err
	}
	if existing != nil {
		l.mu.Unlock()
		return nil, apperrors.NewAlreadyExistsError("товар", "sku", sku)
	}

	existing, err = l.repo.GetItemByProductID(ctx, req.ProductID)
	if err != nil {
		l.mu.Unlock()
		return nil, err
	}
	if existing != nil {
		l.mu.Unlock()
		return nil, apperrors.NewAlreadyExistsError("товар", "product_id", req.ProductID)
	}

	now := time.Now().UTC()
	item := &entity.InventoryItem{
		ID:                uuid.NewString(),
		ProductID:         req.ProductID,
		SKU:               sku,
		ProductName:       req.ProductName,
		QuantityAvailable: req.InitialQuantity,
		ReorderPoint:      req.ReorderPoint,
		ReorderQuantity:   req.ReorderQuantity,
		UnitPrice:         req.UnitPrice,
		WarehouseLocation: req.WarehouseLocation,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := l.repo.CreateItem(ctx, item); err != nil {
		l.mu.Unlock()
		return nil, err
	}
	l.mu.Unlock()

	l.logger.Printf("Товар %s (%s) заведен на складе, начальный остаток %d", item.SKU, item.ProductID, item.QuantityAvailable)

	l.publish(ctx, events.InventoryItemCreated{
		ProductID:         item.ProductID,
		StockKeepingUnit:  item.SKU,
		ProductName:       item.ProductName,
		InitialQuantity:   item.QuantityAvailable,
		UnitPrice:         item.UnitPrice,
		WarehouseLocation: item.WarehouseLocation,
	})

	return item, nil
}

// Reserve резервирует количество товара под заказ.
// Атомарно уменьшает доступный остаток и увеличивает зарезервированный.
func (l *InventoryLedger) Reserve(ctx context.Context, productID, orderID string, quantity int) (*entity.InventoryReservation, error) {
	if quantity <= 0 {
		return nil, apperrors.NewValidationError("quantity", "количество должно быть положительным")
	}

	l.mu.Lock()

	item, err := l.repo.GetItemByProductID(ctx, productID)
	if err != nil {
		l.mu.Unlock()
		return nil, err
	}
	if item == nil {
		l.mu.Unlock()
		return nil, apperrors.NewNotFoundError("товар", productID)
	}

	if !item.CanReserve(quantity) {
		l.mu.Unlock()
		return nil, apperrors.NewInsufficientStockError(item.SKU, quantity, item.QuantityAvailable)
	}

	item.QuantityAvailable -= quantity
	item.QuantityReserved += quantity
	item.UpdatedAt = time.Now().UTC()

	if err := l.repo.UpdateItem(ctx, item); err != nil {
		l.mu.Unlock()
		return nil, err
	}

	reservation := &entity.InventoryReservation{
		ID:         uuid.NewString(),
		ProductID:  productID,
		OrderID:    orderID,
		Quantity:   quantity,
		ReservedAt: time.Now().UTC(),
	}
	if err := l.repo.CreateReservation(ctx, reservation); err != nil {
		l.mu.Unlock()
		return nil, err
	}

	remaining := item.QuantityAvailable
	sku := item.SKU
	l.mu.Unlock()

	l.logger.Printf("Зарезервировано %d x %s под заказ %s (резервация %s, доступно %d)",
		quantity, sku, orderID, reservation.ID, remaining)

	l.publish(ctx, events.InventoryReserved{
		ReservationID:     reservation.ID,
		ProductID:         productID,
		StockKeepingUnit:  sku,
		OrderID:           orderID,
		Quantity:          quantity,
		RemainingQuantity: remaining,
	})

	return reservation, nil
}

// Release освобождает резервацию. Резервация освобождается ровно один раз:
// повторный вызов для той же резервации возвращает ошибку и не меняет остатки.
func (l *InventoryLedger) Release(ctx context.Context, reservationID string) error {
	l.mu.Lock()

	reservation, err := l.repo.GetReservationByID(ctx, reservationID)
	if err != nil {
		l.mu.Unlock()
		return err
	}
	if reservation == nil {
		l.mu.Unlock()
		return apperrors.NewNotFoundError("резервация", reservationID)
	}
	if !reservation.IsActive() {
		l.mu.Unlock()
		return apperrors.NewConflictError(fmt.Sprintf("резервация %s уже освобождена", reservationID))
	}

	item, err := l.repo.GetItemByProductID(ctx, reservation.ProductID)
	if err != nil {
		l.mu.Unlock()
		return err
	}
	if item == nil {
		l.mu.Unlock()
		return apperrors.NewNotFoundError("товар", reservation.ProductID)
	}

	item.QuantityAvailable += reservation.Quantity
	item.QuantityReserved -= reservation.Quantity
	item.UpdatedAt = time.Now().UTC()

	if err := l.repo.UpdateItem(ctx, item); err != nil {
		l.mu.Unlock()
		return err
	}

	now := time.Now().UTC()
	reservation.ReleasedAt = &now
	if err := l.repo.UpdateReservation(ctx, reservation); err != nil {
		l.mu.Unlock()
		return err
	}

	available := item.QuantityAvailable
	sku := item.SKU
	l.mu.Unlock()

	l.logger.Printf("Резервация %s освобождена: %d x %s возвращено в остаток (доступно %d)",
		reservationID, reservation.Quantity, sku, available)

	l.publish(ctx, events.InventoryReleased{
		ReservationID:        reservationID,
		ProductID:            reservation.ProductID,
		StockKeepingUnit:     sku,
		OrderID:              reservation.OrderID,
		Quantity:             reservation.Quantity,
		NewAvailableQuantity: available,
	})

	return nil
}

// UpdateStock изменяет остаток товара в соответствии с типом движения.
// Receipt и Return прибавляют количество, Adjustment выставляет доступный
// остаток абсолютно, Shipment и Damage вычитают и завершаются конфликтом
// при нехватке. Остальные типы движения не принимаются.
func (l *InventoryLedger) UpdateStock(ctx context.Context, productID string, quantity int, movementType entity.StockMovementType, reason string) (*entity.InventoryItem, error) {
	if quantity < 0 {
		return nil, apperrors.NewValidationError("quantity", "количество не может быть отрицательным")
	}

	l.mu.Lock()

	item, err := l.repo.GetItemByProductID(ctx, productID)
	if err != nil {
		l.mu.Unlock()
		return nil, err
	}
	if item == nil {
		l.mu.Unlock()
		return nil, apperrors.NewNotFoundError("товар", productID)
	}

	previous := item.QuantityAvailable

	switch movementType {
	case entity.MovementReceipt, entity.MovementReturn:
		item.QuantityAvailable += quantity
	case entity.MovementAdjustment:
		item.QuantityAvailable = quantity
	case entity.MovementShipment, entity.MovementDamage:
		if item.QuantityAvailable < quantity {
			l.mu.Unlock()
			return nil, apperrors.NewInsufficientStockError(item.SKU, quantity, previous)
		}
		item.QuantityAvailable -= quantity
	default:
		l.mu.Unlock()
		return nil, apperrors.NewValidationError("movement_type",
			fmt.Sprintf("тип движения %q не поддерживается для изменения остатка", movementType))
	}

	item.UpdatedAt = time.Now().UTC()
	if err := l.repo.UpdateItem(ctx, item); err != nil {
		l.mu.Unlock()
		return nil, err
	}

	snapshot := *item
	l.mu.Unlock()

	l.logger.Printf("Остаток %s изменен движением %s: %d -> %d",
		snapshot.SKU, movementType, previous, snapshot.QuantityAvailable)

	l.publish(ctx, events.StockLevelChanged{
		ProductID:        snapshot.ProductID,
		StockKeepingUnit: snapshot.SKU,
		PreviousQuantity: previous,
		NewQuantity:      snapshot.QuantityAvailable,
		QuantityChanged:  snapshot.QuantityAvailable - previous,
		MovementType:     string(movementType),
		Reason:           reason,
	})

	if snapshot.IsLowStock() {
		l.publishLowStockAlert(ctx, &snapshot)
	}

	return &snapshot, nil
}

// publishLowStockAlert публикует предупреждение о низком остатке
func (l *InventoryLedger) publishLowStockAlert(ctx context.Context, item *entity.InventoryItem) {
	severity := LowStockSeverity(item)
	toOrder := item.RecommendedReorderQuantity()

	l.logger.Printf("Низкий остаток %s: всего %d при точке перезаказа %d (severity=%s, дозаказать %d)",
		item.SKU, item.TotalQuantity(), item.ReorderPoint, severity, toOrder)

	l.publish(ctx, events.LowStockAlert{
		ProductID:        item.ProductID,
		StockKeepingUnit: item.SKU,
		ProductName:      item.ProductName,
		CurrentQuantity:  item.TotalQuantity(),
		ReorderPoint:     item.ReorderPoint,
		ReorderQuantity:  item.ReorderQuantity,
		QuantityToOrder:  toOrder,
		Severity:         severity,
	})
}

// LowStockSeverity вычисляет серьезность предупреждения по доле общего
// остатка от точки перезаказа: ровно 0% — critical, не выше 25% — high,
// не выше 50% — medium, иначе low.
func LowStockSeverity(item *entity.InventoryItem) events.AlertSeverity {
	total := item.TotalQuantity()
	if total <= 0 {
		return events.SeverityCritical
	}

	percentage := float64(total) / float64(item.ReorderPoint) * 100
	switch {
	case percentage <= 25:
		return events.SeverityHigh
	case percentage <= 50:
		return events.SeverityMedium
	default:
		return events.SeverityLow
	}
}

// CheckAvailability проверяет наличие товаров по списку позиций
func (l *InventoryLedger) CheckAvailability(ctx context.Context, req *entity.CheckAvailabilityRequest) (*entity.CheckAvailabilityResponse, error) {
	response := &entity.CheckAvailabilityResponse{
		AllAvailable: true,
		Items:        make([]entity.ItemAvailability, 0, len(req.Items)),
	}

	for _, check := range req.Items {
		sku := validator.NormalizeSKU(check.SKU)

		item, err := l.repo.GetItemBySKU(ctx, sku)
		if err != nil {
			return nil, err
		}

		result := entity.ItemAvailability{SKU: sku}
		switch {
		case item == nil:
			result.CanFulfill = false
			result.Message = "товар не найден"
			response.AllAvailable = false
		case !item.CanReserve(check.Quantity):
			result.Available = item.QuantityAvailable
			result.CanFulfill = false
			result.Message = fmt.Sprintf("запрошено %d, доступно %d", check.Quantity, item.QuantityAvailable)
			response.AllAvailable = false
		default:
			result.Available = item.QuantityAvailable
			result.CanFulfill = true
		}

		response.Items = append(response.Items, result)
	}

	return response, nil
}

// ReserveForOrder резервирует товары под заказ. Каждая позиция резервируется
// независимо: неудача одной не откатывает резервации остальных, ответ
// содержит результат по каждой позиции.
func (l *InventoryLedger) ReserveForOrder(ctx context.Context, req *entity.ReserveForOrderRequest) (*entity.ReserveForOrderResponse, error) {
	response := &entity.ReserveForOrderResponse{
		OrderID: req.OrderID,
		Items:   make([]entity.ReservedItemResult, 0, len(req.Items)),
	}

	for _, item := range req.Items {
		result := entity.ReservedItemResult{
			ProductID: item.ProductID,
			SKU:       item.SKU,
			Quantity:  item.Quantity,
		}

		reservation, err := l.Reserve(ctx, item.ProductID, req.OrderID, item.Quantity)
		if err != nil {
			result.Success = false
			result.Message = err.Error()
		} else {
			result.Success = true
			result.ReservationID = reservation.ID
		}

		response.Items = append(response.Items, result)
	}

	return response, nil
}

// ReleaseForOrder освобождает перечисленные резервации заказа.
// Уже освобожденные резервации пропускаются и не считаются ошибкой:
// освобождение по компенсации саги и по событию отмены заказа может
// приходить повторно.
func (l *InventoryLedger) ReleaseForOrder(ctx context.Context, req *entity.ReleaseForOrderRequest) (*entity.ReleaseForOrderResponse, error) {
	response := &entity.ReleaseForOrderResponse{
		OrderID: req.OrderID,
		Success: true,
	}

	var failed []string
	for _, reservationID := range req.ReservationIDs {
		err := l.Release(ctx, reservationID)
		if err != nil && !isAlreadyReleased(err) {
			failed = append(failed, fmt.Sprintf("%s: %v", reservationID, err))
			continue
		}
		response.Released++
	}

	if len(failed) > 0 {
		response.Success = false
		response.Message = strings.Join(failed, "; ")
	}

	return response, nil
}

// ReleaseByOrderID освобождает все активные резервации заказа
func (l *InventoryLedger) ReleaseByOrderID(ctx context.Context, orderID string) (int, error) {
	reservations, err := l.repo.GetActiveReservationsByOrderID(ctx, orderID)
	if err != nil {
		return 0, err
	}

	released := 0
	for _, reservation := range reservations {
		if err := l.Release(ctx, reservation.ID); err != nil {
			if isAlreadyReleased(err) {
				continue
			}
			return released, err
		}
		released++
	}

	return released, nil
}

// GetItemByProductID получает информацию о товаре по ID продукта
func (l *InventoryLedger) GetItemByProductID(ctx context.Context, productID string) (*entity.GetInventoryResponse, error) {
	item, err := l.repo.GetItemByProductID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperrors.NewNotFoundError("товар", productID)
	}
	return toInventoryResponse(item), nil
}

// GetAllItems получает список всех товаров с пагинацией
func (l *InventoryLedger) GetAllItems(ctx context.Context, limit, offset int) (*entity.ListInventoryResponse, error) {
	if limit <= 0 {
		limit = 10
	}

	items, total, err := l.repo.GetAllItems(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	response := &entity.ListInventoryResponse{Total: total}
	for i := range items {
		response.Items = append(response.Items, *toInventoryResponse(&items[i]))
	}

	return response, nil
}

// GetLowStockItems получает товары с низким остатком и рекомендацией по дозаказу
func (l *InventoryLedger) GetLowStockItems(ctx context.Context) ([]entity.LowStockItemResponse, error) {
	items, err := l.repo.GetLowStockItems(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]entity.LowStockItemResponse, 0, len(items))
	for i := range items {
		item := &items[i]
		result = append(result, entity.LowStockItemResponse{
			ProductID:        item.ProductID,
			SKU:              item.SKU,
			ProductName:      item.ProductName,
			TotalQuantity:    item.TotalQuantity(),
			ReorderPoint:     item.ReorderPoint,
			QuantityToOrder:  item.RecommendedReorderQuantity(),
			Severity:         string(LowStockSeverity(item)),
			QuantityReserved: item.QuantityReserved,
		})
	}

	return result, nil
}

// isAlreadyReleased проверяет, что ошибка означает повторное освобождение
func isAlreadyReleased(err error) bool {
	return errors.Is(err, apperrors.ErrConflict)
}

func toInventoryResponse(item *entity.InventoryItem) *entity.GetInventoryResponse {
	return &entity.GetInventoryResponse{
		ID:                item.ID,
		ProductID:         item.ProductID,
		SKU:               item.SKU,
		ProductName:       item.ProductName,
		QuantityAvailable: item.QuantityAvailable,
		QuantityReserved:  item.QuantityReserved,
		TotalQuantity:     item.TotalQuantity(),
		ReorderPoint:      item.ReorderPoint,
		ReorderQuantity:   item.ReorderQuantity,
		UnitPrice:         item.UnitPrice,
		WarehouseLocation: item.WarehouseLocation,
		IsLowStock:        item.IsLowStock(),
		IsOutOfStock:      item.IsOutOfStock(),
		CreatedAt:         item.CreatedAt,
		UpdatedAt:         item.UpdatedAt,
	}
}
