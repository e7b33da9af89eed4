package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/director74/logistics-tracker/order-service/internal/entity"
)

// OrderRepository интерфейс репозитория для работы с заказами
type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	GetByOrderNumber(ctx context.Context, orderNumber string) (*entity.Order, error)
	List(ctx context.Context, limit, offset int) ([]entity.Order, int64, error)
	ListByCustomerID(ctx context.Context, customerID string, limit, offset int) ([]entity.Order, int64, error)
	Update(ctx context.Context, order *entity.Order) error
}

// ErrOrderNotFound ошибка, когда заказ не найден
var ErrOrderNotFound = errors.New("заказ не найден")

// OrderRepositoryImpl реализация репозитория заказов на GORM
type OrderRepositoryImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &OrderRepositoryImpl{
		db: db,
	}
}

func (r *OrderRepositoryImpl) Create(ctx context.Context, order *entity.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *OrderRepositoryImpl) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	var order entity.Order
	result := r.db.WithContext(ctx).First(&order, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, result.Error
	}
	return &order, nil
}

func (r *OrderRepositoryImpl) GetByOrderNumber(ctx context.Context, orderNumber string) (*entity.Order, error) {
	var order entity.Order
	result := r.db.WithContext(ctx).First(&order, "order_number = ?", orderNumber)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, result.Error
	}
	return &order, nil
}

// List возвращает страницу заказов и общее количество
func (r *OrderRepositoryImpl) List(ctx context.Context, limit, offset int) ([]entity.Order, int64, error) {
	var orders []entity.Order
	var total int64

	if err := r.db.WithContext(ctx).Model(&entity.Order{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	result := r.db.WithContext(ctx).
		Limit(limit).
		Offset(offset).
		Order("created_at DESC").
		Find(&orders)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return orders, total, nil
}

// ListByCustomerID возвращает страницу заказов клиента и их общее количество
func (r *OrderRepositoryImpl) ListByCustomerID(ctx context.Context, customerID string, limit, offset int) ([]entity.Order, int64, error) {
	var orders []entity.Order
	var total int64

	if err := r.db.WithContext(ctx).Model(&entity.Order{}).Where("customer_id = ?", customerID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	result := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Limit(limit).
		Offset(offset).
		Order("created_at DESC").
		Find(&orders)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return orders, total, nil
}

// Update обновляет заказ
func (r *OrderRepositoryImpl) Update(ctx context.Context, order *entity.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}
