package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/director74/logistics-tracker/inventory-service/internal/entity"
)

// InventoryRepository интерфейс хранилища товаров и резерваций
type InventoryRepository interface {
	GetItemByID(ctx context.Context, id string) (*entity.InventoryItem, error)
	GetItemByProductID(ctx context.Context, productID string) (*entity.InventoryItem, error)
	GetItemBySKU(ctx context.Context, sku string) (*entity.InventoryItem, error)
	GetAllItems(ctx context.Context, limit, offset int) ([]entity.InventoryItem, int64, error)
	GetLowStockItems(ctx context.Context) ([]entity.InventoryItem, error)
	CreateItem(ctx context.Context, item *entity.InventoryItem) error
	UpdateItem(ctx context.Context, item *entity.InventoryItem) error

	GetReservationByID(ctx context.Context, id string) (*entity.InventoryReservation, error)
	GetActiveReservationsByOrderID(ctx context.Context, orderID string) ([]entity.InventoryReservation, error)
	CreateReservation(ctx context.Context, reservation *entity.InventoryReservation) error
	UpdateReservation(ctx context.Context, reservation *entity.InventoryReservation) error
}

// InventoryRepo репозиторий склада поверх PostgreSQL
type InventoryRepo struct {
	db *gorm.DB
}

// NewInventoryRepo создает новый репозиторий склада
func NewInventoryRepo(db *gorm.DB) *InventoryRepo {
	return &InventoryRepo{
		db: db,
	}
}

// GetItemByID получает товар по ID
func (r *InventoryRepo) GetItemByID(ctx context.Context, id string) (*entity.InventoryItem, error) {
	var item entity.InventoryItem
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&item)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &item, nil
}

// GetItemByProductID получает товар по ID продукта
func (r *InventoryRepo) GetItemByProductID(ctx context.Context, productID string) (*entity.InventoryItem, error) {
	var item entity.InventoryItem
	result := r.db.WithContext(ctx).Where("product_id = ?", productID).First(&item)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &item, nil
}

// GetItemBySKU получает товар по SKU
func (r *InventoryRepo) GetItemBySKU(ctx context.Context, sku string) (*entity.InventoryItem, error) {
	var item entity.InventoryItem
	result := r.db.WithContext(ctx).Where("sku = ?", sku).First(&item)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &item, nil
}

// GetAllItems получает список всех товаров с пагинацией
func (r *InventoryRepo) GetAllItems(ctx context.Context, limit, offset int) ([]entity.InventoryItem, int64, error) {
	var items []entity.InventoryItem
	var total int64

	if err := r.db.WithContext(ctx).Model(&entity.InventoryItem{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	result := r.db.WithContext(ctx).Limit(limit).Offset(offset).Order("sku").Find(&items)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return items, total, nil
}

// GetLowStockItems получает товары, остаток которых не выше точки перезаказа
func (r *InventoryRepo) GetLowStockItems(ctx context.Context) ([]entity.InventoryItem, error) {
	var items []entity.InventoryItem
	result := r.db.WithContext(ctx).
		Where("quantity_available + quantity_reserved <= reorder_point").
		Order("sku").
		Find(&items)
	if result.Error != nil {
		return nil, result.Error
	}
	return items, nil
}

// CreateItem создает новый товар
func (r *InventoryRepo) CreateItem(ctx context.Context, item *entity.InventoryItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// UpdateItem обновляет товар
func (r *InventoryRepo) UpdateItem(ctx context.Context, item *entity.InventoryItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// GetReservationByID получает резервацию по ID
func (r *InventoryRepo) GetReservationByID(ctx context.Context, id string) (*entity.InventoryReservation, error) {
	var reservation entity.InventoryReservation
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&reservation)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &reservation, nil
}

// GetActiveReservationsByOrderID получает активные резервации заказа
func (r *InventoryRepo) GetActiveReservationsByOrderID(ctx context.Context, orderID string) ([]entity.InventoryReservation, error) {
	var reservations []entity.InventoryReservation
	result := r.db.WithContext(ctx).
		Where("order_id = ? AND released_at IS NULL", orderID).
		Find(&reservations)
	if result.Error != nil {
		return nil, result.Error
	}
	return reservations, nil
}

// CreateReservation создает запись о резервации
func (r *InventoryRepo) CreateReservation(ctx context.Context, reservation *entity.InventoryReservation) error {
	return r.db.WithContext(ctx).Create(reservation).Error
}

// UpdateReservation обновляет запись о резервации
func (r *InventoryRepo) UpdateReservation(ctx context.Context, reservation *entity.InventoryReservation) error {
	return r.db.WithContext(ctx).Save(reservation).Error
}
