package repo

import (
	"context"
	"sort"
	"sync"

	"github.com/director74/logistics-tracker/inventory-service/internal/entity"
)

// MemoryInventoryRepo хранилище товаров и резерваций в памяти процесса.
// Используется в тестах и при локальном запуске без базы данных.
type MemoryInventoryRepo struct {
	mu           sync.RWMutex
	items        map[string]*entity.InventoryItem
	reservations map[string]*entity.InventoryReservation
}

// NewMemoryInventoryRepo создает новое хранилище в памяти
func NewMemoryInventoryRepo() *MemoryInventoryRepo {
	return &MemoryInventoryRepo{
		items:        make(map[string]*entity.InventoryItem),
		reservations: make(map[string]*entity.InventoryReservation),
	}
}

// GetItemByID получает товар по ID
func (r *MemoryInventoryRepo) GetItemByID(_ context.Context, id string) (*entity.InventoryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	copied := *item
	return &copied, nil
}

// GetItemByProductID получает товар по ID продукта
func (r *MemoryInventoryRepo) GetItemByProductID(_ context.Context, productID string) (*entity.InventoryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items {
		if item.ProductID == productID {
			copied := *item
			return &copied, nil
		}
	}
	return nil, nil
}

// GetItemBySKU получает товар по SKU
func (r *MemoryInventoryRepo) GetItemBySKU(_ context.Context, sku string) (*entity.InventoryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items {
		if item.SKU == sku {
			copied := *item
			return &copied, nil
		}
	}
	return nil, nil
}

// GetAllItems получает список всех товаров с пагинацией
func (r *MemoryInventoryRepo) GetAllItems(_ context.Context, limit, offset int) ([]entity.InventoryItem, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]entity.InventoryItem, 0, len(r.items))
	for _, item := range r.items {
		all = append(all, *item)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].SKU < all[j].SKU })

	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}

	return all[offset:end], total, nil
}

// GetLowStockItems получает товары, остаток которых не выше точки перезаказа
func (r *MemoryInventoryRepo) GetLowStockItems(_ context.Context) ([]entity.InventoryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var items []entity.InventoryItem
	for _, item := range r.items {
		if item.IsLowStock() {
			items = append(items, *item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].SKU < items[j].SKU })
	return items, nil
}

// CreateItem создает новый товар
func (r *MemoryInventoryRepo) CreateItem(_ context.Context, item *entity.InventoryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *item
	r.items[item.ID] = &copied
	return nil
}

// UpdateItem обновляет товар
func (r *MemoryInventoryRepo) UpdateItem(_ context.Context, item *entity.InventoryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *item
	r.items[item.ID] = &copied
	return nil
}

// GetReservationByID получает резервацию по ID
func (r *MemoryInventoryRepo) GetReservationByID(_ context.Context, id string) (*entity.InventoryReservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reservation, ok := r.reservations[id]
	if !ok {
		return nil, nil
	}
	copied := *reservation
	return &copied, nil
}

// GetActiveReservationsByOrderID получает активные резервации заказа
func (r *MemoryInventoryRepo) GetActiveReservationsByOrderID(_ context.Context, orderID string) ([]entity.InventoryReservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var reservations []entity.InventoryReservation
	for _, reservation := range r.reservations {
		if reservation.OrderID == orderID && reservation.IsActive() {
			reservations = append(reservations, *reservation)
		}
	}
	sort.Slice(reservations, func(i, j int) bool {
		return reservations[i].ReservedAt.Before(reservations[j].ReservedAt)
	})
	return reservations, nil
}

// CreateReservation создает запись о резервации
func (r *MemoryInventoryRepo) CreateReservation(_ context.Context, reservation *entity.InventoryReservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *reservation
	r.reservations[reservation.ID] = &copied
	return nil
}

// UpdateReservation обновляет запись о резервации
func (r *MemoryInventoryRepo) UpdateReservation(_ context.Context, reservation *entity.InventoryReservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *reservation
	r.reservations[reservation.ID] = &copied
	return nil
}
