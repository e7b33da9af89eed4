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

	"github.com/director74/logistics-tracker/order-service/internal/entity"
	"github.com/director74/logistics-tracker/order-service/internal/repo"
	apperrors "github.com/director74/logistics-tracker/pkg/errors"
	"github.com/director74/logistics-tracker/pkg/events"
	"github.com/director74/logistics-tracker/pkg/messaging"
	"github.com/director74/logistics-tracker/pkg/saga"
)

// OrderUseCase представляет usecase для работы с заказами
type OrderUseCase struct {
	repo      repo.OrderRepository
	inventory InventoryService
	creation  *OrderCreationSaga
	publisher messaging.EventPublisher
	numbers   OrderNumberGenerator
	logger    *log.Logger
}

func NewOrderUseCase(
	orderRepo repo.OrderRepository,
	inventory InventoryService,
	payments PaymentService,
	publisher messaging.EventPublisher,
	numbers OrderNumberGenerator,
) *OrderUseCase {
	logger := log.New(log.Writer(), "[OrderUseCase] ", log.LstdFlags)

	if numbers == nil {
		numbers = NewSequentialOrderNumbers()
	}

	return &OrderUseCase{
		repo:      orderRepo,
		inventory: inventory,
		creation:  NewOrderCreationSaga(orderRepo, inventory, payments, publisher, logger),
		publisher: publisher,
		numbers:   numbers,
		logger:    logger,
	}
}

// CreateOrder создает заказ и прогоняет сагу его оформления: валидация,
// резервирование товаров, оплата и подтверждение. При сбое любого шага
// выполненные шаги компенсируются, после чего заказ переводится в статус
// cancelled уже вне саги.
func (uc *OrderUseCase) CreateOrder(ctx context.Context, req entity.CreateOrderRequest) (entity.CreateOrderResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	order := &entity.Order{
		ID:              uuid.NewString(),
		OrderNumber:     uc.numbers.Next(),
		CustomerID:      req.CustomerID,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		ShippingAddress: req.ShippingAddress,
		Items:           make([]entity.OrderItem, len(req.Items)),
		Currency:        "USD",
		Status:          entity.OrderStatusPending,
		Notes:           req.Notes,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	for i, item := range req.Items {
		order.Items[i] = entity.OrderItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			SKU:         item.SKU,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}
	}
	order.CalculateTotal()

	if !order.IsValid() {
		return entity.CreateOrderResponse{}, apperrors.NewBadRequestError("заказ не прошел проверку: позиции, количества и цены должны быть положительными")
	}

	stock, err := uc.inventory.CheckStockAvailability(ctx, order.Items)
	if err != nil {
		return entity.CreateOrderResponse{}, apperrors.NewInternalServerError(fmt.Errorf("проверка наличия товаров: %w", err))
	}
	if !stock.AllAvailable {
		var unavailable []string
		for _, item := range stock.Items {
			if !item.CanFulfill {
				unavailable = append(unavailable, fmt.Sprintf("%s (нужно %d, доступно %d)", item.SKU, item.RequestedQuantity, item.AvailableQuantity))
			}
		}
		return entity.CreateOrderResponse{}, apperrors.NewConflictError("товары недоступны: " + strings.Join(unavailable, ", "))
	}

	if err := uc.repo.Create(ctx, order); err != nil {
		return entity.CreateOrderResponse{}, apperrors.NewInternalServerError(fmt.Errorf("сохранение заказа: %w", err))
	}

	uc.logger.Printf("Создан заказ %s (%s), сумма %.2f %s", order.OrderNumber, order.ID, order.TotalAmount, order.Currency)

	sc := NewOrderCreationSagaContext(order)
	result, err := uc.creation.Run(ctx, sc)
	if err != nil {
		return entity.CreateOrderResponse{}, apperrors.NewInternalServerError(err)
	}

	switch result.Status {
	case saga.StatusSuccess:
		uc.publishOrderCreated(ctx, order, sc.ReservationIDs)
		return entity.CreateOrderResponse{
			ID:                 order.ID,
			OrderNumber:        order.OrderNumber,
			Status:             entity.OrderStatusConfirmed,
			TotalAmount:        order.TotalAmount,
			Currency:           order.Currency,
			ConfirmationNumber: sc.ConfirmationNumber,
			PaymentID:          sc.PaymentID,
			ReservationIDs:     sc.ReservationIDs,
			CreatedAt:          order.CreatedAt,
		}, nil
	case saga.StatusCompensationFailed:
		uc.logger.Printf("[CRITICAL] Заказ %s: компенсация шага %s не удалась: %s",
			order.OrderNumber, result.FailedStep, result.CompensationError)
		return entity.CreateOrderResponse{}, apperrors.NewInternalServerError(
			fmt.Errorf("заказ %s требует ручного вмешательства: %s", order.OrderNumber, result.CompensationError))
	default:
		uc.logger.Printf("Заказ %s отменен: шаг %s, причина: %s", order.OrderNumber, result.FailedStep, result.Reason)
		uc.cancelFailedOrder(ctx, order, sc.ReservationIDs)
		if result.FailedStep == StepValidateOrder {
			return entity.CreateOrderResponse{}, apperrors.NewBadRequestError(result.Reason)
		}
		return entity.CreateOrderResponse{}, apperrors.NewConflictError(result.Reason)
	}
}

// GetOrder возвращает заказ по его идентификатору
func (uc *OrderUseCase) GetOrder(ctx context.Context, id string) (entity.GetOrderResponse, error) {
	order, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrOrderNotFound) {
			return entity.GetOrderResponse{}, apperrors.NewNotFoundError("заказ", id)
		}
		return entity.GetOrderResponse{}, apperrors.NewInternalServerError(err)
	}
	return toGetOrderResponse(order), nil
}

// GetOrderByNumber возвращает заказ по его номеру
func (uc *OrderUseCase) GetOrderByNumber(ctx context.Context, orderNumber string) (entity.GetOrderResponse, error) {
	order, err := uc.repo.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, repo.ErrOrderNotFound) {
			return entity.GetOrderResponse{}, apperrors.NewNotFoundError("заказ", orderNumber)
		}
		return entity.GetOrderResponse{}, apperrors.NewInternalServerError(err)
	}
	return toGetOrderResponse(order), nil
}

// ListOrders возвращает страницу заказов
func (uc *OrderUseCase) ListOrders(ctx context.Context, customerID string, limit, offset int) (entity.ListOrdersResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var orders []entity.Order
	var total int64
	var err error
	if customerID != "" {
		orders, total, err = uc.repo.ListByCustomerID(ctx, customerID, limit, offset)
	} else {
		orders, total, err = uc.repo.List(ctx, limit, offset)
	}
	if err != nil {
		return entity.ListOrdersResponse{}, apperrors.NewInternalServerError(err)
	}

	response := entity.ListOrdersResponse{
		Orders: make([]entity.GetOrderResponse, len(orders)),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
	for i := range orders {
		response.Orders[i] = toGetOrderResponse(&orders[i])
	}
	return response, nil
}

// UpdateOrderStatus переводит заказ в новый статус с проверкой допустимости
// перехода и публикует событие смены статуса
func (uc *OrderUseCase) UpdateOrderStatus(ctx context.Context, id string, req entity.UpdateOrderStatusRequest) (entity.GetOrderResponse, error) {
	newStatus, ok := entity.ParseOrderStatus(req.NewStatus)
	if !ok {
		return entity.GetOrderResponse{}, apperrors.NewBadRequestError(fmt.Sprintf("неизвестный статус заказа: %s", req.NewStatus))
	}

	order, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrOrderNotFound) {
			return entity.GetOrderResponse{}, apperrors.NewNotFoundError("заказ", id)
		}
		return entity.GetOrderResponse{}, apperrors.NewInternalServerError(err)
	}

	if !entity.IsValidStatusTransition(order.Status, newStatus) {
		return entity.GetOrderResponse{}, apperrors.NewConflictError(
			fmt.Sprintf("недопустимый переход статуса: %s -> %s", order.Status, newStatus))
	}

	previous := order.Status
	order.Status = newStatus
	order.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, order); err != nil {
		return entity.GetOrderResponse{}, apperrors.NewInternalServerError(err)
	}

	uc.publish(ctx, events.OrderStatusChanged{
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		PreviousStatus: string(previous),
		NewStatus:      string(newStatus),
		Reason:         req.Reason,
	})

	if newStatus == entity.OrderStatusConfirmed && previous != entity.OrderStatusConfirmed {
		uc.publish(ctx, events.OrderConfirmed{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			CustomerID:  order.CustomerID,
			ConfirmedAt: time.Now(),
		})
	}

	return toGetOrderResponse(order), nil
}

// CancelOrder отменяет заказ: освобождает его резервации на складе,
// переводит в статус cancelled и публикует событие отмены. Отгруженный или
// доставленный заказ отменить нельзя.
func (uc *OrderUseCase) CancelOrder(ctx context.Context, id string) (entity.CancelOrderResponse, error) {
	order, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrOrderNotFound) {
			return entity.CancelOrderResponse{}, apperrors.NewNotFoundError("заказ", id)
		}
		return entity.CancelOrderResponse{}, apperrors.NewInternalServerError(err)
	}

	if order.Status == entity.OrderStatusShipped || order.Status == entity.OrderStatusDelivered {
		return entity.CancelOrderResponse{}, apperrors.NewConflictError("нельзя отменить отгруженный или доставленный заказ")
	}

	if len(order.ReservationIDs) > 0 {
		if err := uc.inventory.ReleaseOrderReservations(ctx, order.ID, order.ReservationIDs); err != nil {
			return entity.CancelOrderResponse{}, apperrors.NewInternalServerError(fmt.Errorf("освобождение резерваций: %w", err))
		}
	}

	order.Status = entity.OrderStatusCancelled
	order.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, order); err != nil {
		return entity.CancelOrderResponse{}, apperrors.NewInternalServerError(err)
	}

	uc.publish(ctx, events.OrderCancelled{
		OrderID:            order.ID,
		OrderNumber:        order.OrderNumber,
		ReservationIDs:     order.ReservationIDs,
		CancellationReason: "отмена по запросу пользователя",
	})

	return entity.CancelOrderResponse{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
	}, nil
}

// cancelFailedOrder переводит заказ, сага которого откатилась, в статус
// cancelled и публикует событие отмены. Сбой здесь не меняет ответ клиенту:
// причина отказа уже определена результатом саги
func (uc *OrderUseCase) cancelFailedOrder(ctx context.Context, order *entity.Order, reservationIDs []string) {
	order.Status = entity.OrderStatusCancelled
	order.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, order); err != nil {
		uc.logger.Printf("[WARN] Не удалось отменить заказ %s после отката саги: %v", order.OrderNumber, err)
		return
	}

	uc.publish(ctx, events.OrderCancelled{
		OrderID:            order.ID,
		OrderNumber:        order.OrderNumber,
		ReservationIDs:     reservationIDs,
		CancellationReason: "создание заказа не завершилось",
	})
}

func (uc *OrderUseCase) publishOrderCreated(ctx context.Context, order *entity.Order, reservationIDs []string) {
	items := make([]events.OrderItemData, len(order.Items))
	for i, item := range order.Items {
		items[i] = events.OrderItemData{
			ProductID:        item.ProductID,
			ProductName:      item.ProductName,
			StockKeepingUnit: item.SKU,
			Quantity:         item.Quantity,
			UnitPrice:        item.UnitPrice,
		}
	}
	uc.publish(ctx, events.OrderCreated{
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		CustomerID:     order.CustomerID,
		CustomerName:   order.CustomerName,
		CustomerEmail:  order.CustomerEmail,
		Items:          items,
		TotalAmount:    order.TotalAmount,
		ReservationIDs: reservationIDs,
	})
}

func (uc *OrderUseCase) publish(ctx context.Context, event events.DomainEvent) {
	if uc.publisher == nil {
		return
	}
	if err := uc.publisher.Publish(ctx, event); err != nil {
		uc.logger.Printf("[ERROR] Не удалось опубликовать событие %s: %v", event.EventType(), err)
	}
}

func toGetOrderResponse(order *entity.Order) entity.GetOrderResponse {
	return entity.GetOrderResponse{
		ID:                 order.ID,
		OrderNumber:        order.OrderNumber,
		CustomerID:         order.CustomerID,
		CustomerName:       order.CustomerName,
		CustomerEmail:      order.CustomerEmail,
		ShippingAddress:    order.ShippingAddress,
		Items:              order.Items,
		TotalAmount:        order.TotalAmount,
		Currency:           order.Currency,
		Status:             order.Status,
		ConfirmationNumber: order.ConfirmationNumber,
		Notes:              order.Notes,
		CreatedAt:          order.CreatedAt,
		UpdatedAt:          order.UpdatedAt,
	}
}

// SequentialOrderNumbers генерирует номера заказов вида ORD-YYYYMMDD-NNNNNN
// из монотонной последовательности, защищенной мьютексом
type SequentialOrderNumbers struct {
	mu       sync.Mutex
	sequence int
}

func NewSequentialOrderNumbers() *SequentialOrderNumbers {
	return &SequentialOrderNumbers{sequence: 1000}
}

func (g *SequentialOrderNumbers) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	seq := g.sequence
	g.sequence++
	return fmt.Sprintf("ORD-%s-%06d", time.Now().UTC().Format("20060102"), seq)
}
