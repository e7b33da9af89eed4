package repo

import (
	"context"
	"sort"
	"sync"

	"github.com/director74/logistics-tracker/order-service/internal/entity"
)

// MemoryOrderRepo потокобезопасная реализация репозитория заказов в памяти.
// Используется в тестах вместо PostgreSQL.
type MemoryOrderRepo struct {
	mu     sync.RWMutex
	orders map[string]entity.Order
}

func NewMemoryOrderRepo() *MemoryOrderRepo {
	return &MemoryOrderRepo{
		orders: make(map[string]entity.Order),
	}
}

func (r *MemoryOrderRepo) Create(_ context.Context, order *entity.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = *order
	return nil
}

func (r *MemoryOrderRepo) GetByID(_ context.Context, id string) (*entity.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	copied := order
	return &copied, nil
}

func (r *MemoryOrderRepo) GetByOrderNumber(_ context.Context, orderNumber string) (*entity.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, order := range r.orders {
		if order.OrderNumber == orderNumber {
			copied := order
			return &copied, nil
		}
	}
	return nil, ErrOrderNotFound
}

func (r *MemoryOrderRepo) List(_ context.Context, limit, offset int) ([]entity.Order, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return pageOrders(r.sortedLocked(), limit, offset), int64(len(r.orders)), nil
}

func (r *MemoryOrderRepo) ListByCustomerID(_ context.Context, customerID string, limit, offset int) ([]entity.Order, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var filtered []entity.Order
	for _, order := range r.sortedLocked() {
		if order.CustomerID == customerID {
			filtered = append(filtered, order)
		}
	}
	return pageOrders(filtered, limit, offset), int64(len(filtered)), nil
}

func (r *MemoryOrderRepo) Update(_ context.Context, order *entity.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[order.ID]; !ok {
		return ErrOrderNotFound
	}
	r.orders[order.ID] = *order
	return nil
}

func (r *MemoryOrderRepo) sortedLocked() []entity.Order {
	orders := make([]entity.Order, 0, len(r.orders))
	for _, order := range r.orders {
		orders = append(orders, order)
	}
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].OrderNumber > orders[j].OrderNumber
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders
}

func pageOrders(orders []entity.Order, limit, offset int) []entity.Order {
	if offset >= len(orders) {
		return nil
	}
	end := offset + limit
	if limit <= 0 || end > len(orders) {
		end = len(orders)
	}
	return orders[offset:end]
}
