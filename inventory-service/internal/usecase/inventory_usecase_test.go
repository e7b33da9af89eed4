package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/director74/logistics-tracker/inventory-service/internal/entity"
	"github.com/director74/logistics-tracker/inventory-service/internal/repo"
	apperrors "github.com/director74/logistics-tracker/pkg/errors"
	"github.com/director74/logistics-tracker/pkg/events"
)

// recordingPublisher собирает опубликованные события для проверок
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) byType(eventType string) []events.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var matched []events.DomainEvent
	for _, event := range p.events {
		if event.EventType() == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}

func newTestLedger(t *testing.T) (*InventoryLedger, *recordingPublisher) {
	t.Helper()
	publisher := &recordingPublisher{}
	ledger := NewInventoryLedger(repo.NewMemoryInventoryRepo(), publisher, nil)
	return ledger, publisher
}

func createTestItem(t *testing.T, ledger *InventoryLedger, productID string, quantity, reorderPoint, reorderQuantity int) *entity.InventoryItem {
	t.Helper()
	item, err := ledger.CreateItem(context.Background(), &entity.CreateInventoryItemRequest{
		ProductID:       productID,
		SKU:             "wid-001-blk",
		ProductName:     "Тестовый виджет",
		InitialQuantity: quantity,
		ReorderPoint:    reorderPoint,
		ReorderQuantity: reorderQuantity,
		UnitPrice:       9.99,
	})
	require.NoError(t, err)
	return item
}

func TestCreateItemNormalizesSKU(t *testing.T) {
	ledger, publisher := newTestLedger(t)

	item := createTestItem(t, ledger, "prod-1", 100, 10, 20)

	assert.Equal(t, "WID-001-BLK", item.SKU)
	assert.Len(t, publisher.byType("InventoryItemCreated"), 1)
}

func TestCreateItemRejectsDuplicateSKU(t *testing.T) {
	ledger, _ := newTestLedger(t)
	createTestItem(t, ledger, "prod-1", 100, 10, 20)

	_, err := ledger.CreateItem(context.Background(), &entity.CreateInventoryItemRequest{
		ProductID:       "prod-2",
		SKU:             "WID-001-BLK",
		ProductName:     "Дубликат",
		InitialQuantity: 5,
		UnitPrice:       1.0,
	})

	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestCreateItemRejectsInvalidSKU(t *testing.T) {
	ledger, _ := newTestLedger(t)

	_, err := ledger.CreateItem(context.Background(), &entity.CreateInventoryItemRequest{
		ProductID:       "prod-1",
		SKU:             "BAD-SKU",
		ProductName:     "Некорректный",
		InitialQuantity: 5,
		UnitPrice:       1.0,
	})

	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestReserveMovesQuantityFromAvailableToReserved(t *testing.T) {
	ledger, publisher := newTestLedger(t)
	createTestItem(t, ledger, "prod-1", 100, 10, 20)

	reservation, err := ledger.Reserve(context.Background(), "prod-1", "order-1", 30)
	require.NoError(t, err)
	assert.True(t, reservation.IsActive())
	assert.Equal(t, 30, reservation.Quantity)

	item, err := ledger.GetItemByProductID(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 70, item.QuantityAvailable)
	assert.Equal(t, 30, item.QuantityReserved)
	assert.Equal(t, 100, item.TotalQuantity)

	reserved := publisher.byType("InventoryReserved")
	require.Len(t, reserved, 1)
	assert.Equal(t, 70, reserved[0].(events.InventoryReserved).RemainingQuantity)
}

func TestReserveFailsOnUnknownProduct(t *testing.T) {
	ledger, _ := newTestLedger(t)

	_, err := ledger.Reserve(context.Background(), "missing", "order-1", 1)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestReserveFailsOnInsufficientStock(t *testing.T) {
	ledger, _ := newTestLedger(t)
	createTestItem(t, ledger, "prod-1", 5, 0, 0)

	_, err := ledger.Reserve(context.Background(), "prod-1", "order-1", 6)

	assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)

	item, gerr := ledger.GetItemByProductID(context.Background(), "prod-1")
	require.NoError(t, gerr)
	assert.Equal(t, 5, item.QuantityAvailable)
	assert.Equal(t, 0, item.QuantityReserved)
}

func TestReleaseIsRejectedSecondTime(t *testing.T) {
	ledger, _ := newTestLedger(t)
	createTestItem(t, ledger, "prod-1", 100, 10, 20)

	reservation, err := ledger.Reserve(context.Background(), "prod-1", "order-1", 40)
	require.NoError(t, err)

	// Первое освобождение возвращает количество в остаток ровно один раз
	require.NoError(t, ledger.Release(context.Background(), reservation.ID))

	item, err := ledger.GetItemByProductID(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 100, item.QuantityAvailable)
	assert.Equal(t, 0, item.QuantityReserved)

	// Повторное освобождение отклоняется и не меняет остатки
	err = ledger.Release(context.Background(), reservation.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	item, err = ledger.GetItemByProductID(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 100, item.QuantityAvailable)
	assert.Equal(t, 0, item.QuantityReserved)
}

func TestUpdateStockMovementArithmetic(t *testing.T) {
	tests := []struct {
		name         string
		movementType entity.StockMovementType
		quantity     int
		expected     int
	}{
		{"приход прибавляет", entity.MovementReceipt, 50, 150},
		{"возврат прибавляет", entity.MovementReturn, 10, 110},
		{"корректировка выставляет абсолютно", entity.MovementAdjustment, 42, 42},
		{"отгрузка вычитает", entity.MovementShipment, 30, 70},
		{"списание брака вычитает", entity.MovementDamage, 99, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger, _ := newTestLedger(t)
			createTestItem(t, ledger, "prod-1", 100, 10, 20)

			item, err := ledger.UpdateStock(context.Background(), "prod-1", tt.quantity, tt.movementType, "")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, item.QuantityAvailable)
		})
	}
}

func TestUpdateStockShipmentFailsOnInsufficientStock(t *testing.T) {
	ledger, _ := newTestLedger(t)
	createTestItem(t, ledger, "prod-1", 10, 0, 0)

	_, err := ledger.UpdateStock(context.Background(), "prod-1", 11, entity.MovementShipment, "")

	assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)
}

func TestUpdateStockRejectsUnknownMovementType(t *testing.T) {
	ledger, _ := newTestLedger(t)
	createTestItem(t, ledger, "prod-1", 10, 0, 0)

	_, err := ledger.UpdateStock(context.Background(), "prod-1", 1, entity.StockMovementType("teleport"), "")

	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestUpdateStockEmitsStockLevelChangedWithActualDelta(t *testing.T) {
	ledger, publisher := newTestLedger(t)
	createTestItem(t, ledger, "prod-1", 100, 10, 20)

	_, err := ledger.UpdateStock(context.Background(), "prod-1", 42, entity.MovementAdjustment, "инвентаризация")
	require.NoError(t, err)

	changed := publisher.byType("StockLevelChanged")
	require.Len(t, changed, 1)
	payload := changed[0].(events.StockLevelChanged)
	assert.Equal(t, 100, payload.PreviousQuantity)
	assert.Equal(t, 42, payload.NewQuantity)
	assert.Equal(t, -58, payload.QuantityChanged)
}

func TestLowStockSeverityTiers(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		reorder  int
		expected events.AlertSeverity
	}{
		{"ноль — critical", 0, 20, events.SeverityCritical},
		{"25% — high", 5, 20, events.SeverityHigh},
		{"50% — medium", 10, 20, events.SeverityMedium},
		{"выше 50% — low", 15, 20, events.SeverityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := &entity.InventoryItem{
				QuantityAvailable: tt.total,
				ReorderPoint:      tt.reorder,
			}
			assert.Equal(t, tt.expected, LowStockSeverity(item))
		})
	}
}

func TestUpdateStockEmitsLowStockAlertWithReorderRecommendation(t *testing.T) {
	ledger, publisher := newTestLedger(t)
	createTestItem(t, ledger, "prod-1", 100, 20, 30)

	// Отгружаем до остатка 5: ниже точки перезаказа
	_, err := ledger.UpdateStock(context.Background(), "prod-1", 95, entity.MovementShipment, "")
	require.NoError(t, err)

	alerts := publisher.byType("LowStockAlert")
	require.Len(t, alerts, 1)
	payload := alerts[0].(events.LowStockAlert)
	assert.Equal(t, events.SeverityHigh, payload.Severity)
	// reorderPoint + reorderQuantity - total = 20 + 30 - 5
	assert.Equal(t, 45, payload.QuantityToOrder)
}

func TestReserveForOrderReservesEachItemIndependently(t *testing.T) {
	ledger, _ := newTestLedger(t)
	createTestItem(t, ledger, "prod-1", 100, 10, 20)

	response, err := ledger.ReserveForOrder(context.Background(), &entity.ReserveForOrderRequest{
		OrderID: "order-1",
		Items: []entity.ReserveItem{
			{ProductID: "prod-1", SKU: "WID-001-BLK", Quantity: 10},
			{ProductID: "missing", SKU: "NOP-000-AAA", Quantity: 1},
		},
	})
	require.NoError(t, err)
	require.Len(t, response.Items, 2)

	// Первая позиция зарезервирована и не откатывается при неудаче второй
	assert.True(t, response.Items[0].Success)
	assert.NotEmpty(t, response.Items[0].ReservationID)
	assert.False(t, response.Items[1].Success)
	assert.NotEmpty(t, response.Items[1].Message)

	item, err := ledger.GetItemByProductID(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 10, item.QuantityReserved)
}

func TestReleaseForOrderSkipsAlreadyReleased(t *testing.T) {
	ledger, _ := newTestLedger(t)
	createTestItem(t, ledger, "prod-1", 100, 10, 20)

	r1, err := ledger.Reserve(context.Background(), "prod-1", "order-1", 10)
	require.NoError(t, err)
	r2, err := ledger.Reserve(context.Background(), "prod-1", "order-1", 20)
	require.NoError(t, err)

	require.NoError(t, ledger.Release(context.Background(), r1.ID))

	response, err := ledger.ReleaseForOrder(context.Background(), &entity.ReleaseForOrderRequest{
		OrderID:        "order-1",
		ReservationIDs: []string{r1.ID, r2.ID},
	})
	require.NoError(t, err)
	assert.True(t, response.Success)
	assert.Equal(t, 2, response.Released)

	item, err := ledger.GetItemByProductID(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 100, item.QuantityAvailable)
	assert.Equal(t, 0, item.QuantityReserved)
}

func TestConcurrentReservationsConserveTotalQuantity(t *testing.T) {
	ledger, _ := newTestLedger(t)
	createTestItem(t, ledger, "prod-1", 50, 0, 0)

	// 20 конкурентных запросов по 10 единиц при доступных 50:
	// успеть должны ровно пять
	const workers = 20
	const perRequest = 10

	var wg sync.WaitGroup
	successes := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ledger.Reserve(context.Background(), "prod-1", "order-burst", perRequest); err == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	succeeded := 0
	for range successes {
		succeeded++
	}
	assert.Equal(t, 5, succeeded)

	item, err := ledger.GetItemByProductID(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 0, item.QuantityAvailable)
	assert.Equal(t, 50, item.QuantityReserved)
	assert.Equal(t, 50, item.TotalQuantity)
}

func TestConcurrentReserveAndReleaseKeepBalance(t *testing.T) {
	ledger, _ := newTestLedger(t)
	createTestItem(t, ledger, "prod-1", 100, 0, 0)

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reservation, err := ledger.Reserve(context.Background(), "prod-1", "order-rr", 7)
			if err != nil {
				return
			}
			_ = ledger.Release(context.Background(), reservation.ID)
		}()
	}
	wg.Wait()

	item, err := ledger.GetItemByProductID(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 100, item.QuantityAvailable)
	assert.Equal(t, 0, item.QuantityReserved)
}
