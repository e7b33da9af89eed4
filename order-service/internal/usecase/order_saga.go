package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/director74/logistics-tracker/order-service/internal/entity"
	"github.com/director74/logistics-tracker/order-service/internal/repo"
	"github.com/director74/logistics-tracker/pkg/events"
	"github.com/director74/logistics-tracker/pkg/messaging"
	"github.com/director74/logistics-tracker/pkg/saga"
)

// Имена шагов саги создания заказа
const (
	StepValidateOrder    = "ValidateOrder"
	StepReserveInventory = "ReserveInventory"
	StepProcessPayment   = "ProcessPayment"
	StepConfirmOrder     = "ConfirmOrder"
)

// OrderCreationSagaContext хранит состояние одного прогона саги создания заказа
type OrderCreationSagaContext struct {
	*saga.Context

	OrderID            string
	OrderNumber        string
	CustomerID         string
	Items              []entity.OrderItem
	TotalAmount        float64
	Currency           string
	ReservationIDs     []string
	PaymentID          string
	ConfirmationNumber string
}

// NewOrderCreationSagaContext создает контекст саги для заказа
func NewOrderCreationSagaContext(order *entity.Order) *OrderCreationSagaContext {
	return &OrderCreationSagaContext{
		Context:     saga.NewContext(),
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID,
		Items:       order.Items,
		TotalAmount: order.TotalAmount,
		Currency:    order.Currency,
	}
}

// OrderCreationResult итог успешно завершенной саги создания заказа
type OrderCreationResult struct {
	OrderID            string
	ConfirmationNumber string
	PaymentID          string
	ReservationIDs     []string
}

// OrderCreationSaga собирает шаги процесса создания заказа: валидация,
// резервирование на складе, оплата и подтверждение. Откат идет в обратном
// порядке: возврат платежа, освобождение резерваций; валидация отката не
// требует, заказ при откате остается в статусе pending.
type OrderCreationSaga struct {
	orders    repo.OrderRepository
	inventory InventoryService
	payments  PaymentService
	publisher messaging.EventPublisher
	logger    *log.Logger
}

func NewOrderCreationSaga(
	orders repo.OrderRepository,
	inventory InventoryService,
	payments PaymentService,
	publisher messaging.EventPublisher,
	logger *log.Logger,
) *OrderCreationSaga {
	if logger == nil {
		logger = log.New(log.Writer(), "[OrderCreationSaga] ", log.LstdFlags)
	}
	return &OrderCreationSaga{
		orders:    orders,
		inventory: inventory,
		payments:  payments,
		publisher: publisher,
		logger:    logger,
	}
}

// Orchestrator собирает оркестратор с шагами саги создания заказа
func (s *OrderCreationSaga) Orchestrator() (*saga.Orchestrator[*OrderCreationSagaContext], error) {
	steps := []saga.Step[*OrderCreationSagaContext]{
		{
			Name:    StepValidateOrder,
			Execute: s.validateOrder,
		},
		{
			Name:       StepReserveInventory,
			Execute:    s.reserveInventory,
			Compensate: s.releaseReservations,
		},
		{
			Name:       StepProcessPayment,
			Execute:    s.processPayment,
			Compensate: s.refundPayment,
		},
		{
			Name:       StepConfirmOrder,
			Execute:    s.confirmOrder,
			Compensate: s.cancelOrder,
		},
	}
	return saga.NewOrchestrator(steps, s.logger)
}

// Run прогоняет сагу создания заказа до конца
func (s *OrderCreationSaga) Run(ctx context.Context, sc *OrderCreationSagaContext) (saga.Result, error) {
	orch, err := s.Orchestrator()
	if err != nil {
		return saga.Result{}, err
	}
	return orch.Execute(ctx, sc), nil
}

func (s *OrderCreationSaga) validateOrder(_ context.Context, sc *OrderCreationSagaContext) saga.StepResult {
	if len(sc.Items) == 0 {
		return saga.StepFailed("заказ не содержит ни одной позиции")
	}
	if sc.TotalAmount <= 0 {
		return saga.StepFailed("сумма заказа должна быть больше нуля")
	}
	for _, item := range sc.Items {
		if item.Quantity <= 0 {
			return saga.StepFailedf("некорректное количество для товара %s", item.ProductID)
		}
		if item.UnitPrice <= 0 {
			return saga.StepFailedf("некорректная цена для товара %s", item.ProductID)
		}
	}
	return saga.StepSucceeded(nil, nil)
}

func (s *OrderCreationSaga) reserveInventory(ctx context.Context, sc *OrderCreationSagaContext) saga.StepResult {
	results, err := s.inventory.ReserveInventoryForOrder(ctx, sc.OrderID, sc.Items)
	if err != nil {
		return saga.StepFailedf("ошибка резервирования на складе: %v", err)
	}

	var reserved []string
	var failures []string
	for _, res := range results {
		if res.Success {
			reserved = append(reserved, res.ReservationID)
			continue
		}
		failures = append(failures, fmt.Sprintf("%s: %s", res.SKU, res.Message))
	}

	if len(failures) > 0 {
		reason := "не удалось зарезервировать товары: " + strings.Join(failures, ", ")
		if len(reserved) == 0 {
			return saga.StepFailed(reason)
		}
		// Частичный результат: успешные резервации соседних позиций должны
		// быть освобождены при откате, хотя сам шаг не считается выполненным
		sc.ReservationIDs = reserved
		return saga.StepFailedWithCompensation(reason, reserved)
	}

	sc.ReservationIDs = reserved
	return saga.StepSucceeded(nil, reserved)
}

func (s *OrderCreationSaga) processPayment(ctx context.Context, sc *OrderCreationSagaContext) saga.StepResult {
	result, err := s.payments.ProcessPayment(ctx, sc.OrderID, sc.CustomerID, sc.TotalAmount, sc.Currency)
	if err != nil {
		return saga.StepFailedf("ошибка проведения платежа: %v", err)
	}
	if !result.Success {
		return saga.StepFailedf("платеж отклонен: %s", result.Message)
	}

	sc.PaymentID = result.PaymentID
	return saga.StepSucceeded(nil, result.PaymentID)
}

func (s *OrderCreationSaga) confirmOrder(ctx context.Context, sc *OrderCreationSagaContext) saga.StepResult {
	order, err := s.orders.GetByID(ctx, sc.OrderID)
	if err != nil {
		return saga.StepFailedf("не удалось загрузить заказ: %v", err)
	}

	sc.ConfirmationNumber = generateConfirmationNumber(order.ID)

	order.Status = entity.OrderStatusConfirmed
	order.ConfirmationNumber = sc.ConfirmationNumber
	order.PaymentID = sc.PaymentID
	order.ReservationIDs = sc.ReservationIDs
	order.UpdatedAt = time.Now()

	if err := s.orders.Update(ctx, order); err != nil {
		return saga.StepFailedf("не удалось подтвердить заказ: %v", err)
	}

	s.publish(ctx, events.OrderConfirmed{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID,
		ConfirmedAt: time.Now(),
	})

	return saga.StepSucceeded(OrderCreationResult{
		OrderID:            sc.OrderID,
		ConfirmationNumber: sc.ConfirmationNumber,
		PaymentID:          sc.PaymentID,
		ReservationIDs:     sc.ReservationIDs,
	}, nil)
}

// cancelOrder откатывает подтверждение заказа, возвращая его в статус
// cancelled
func (s *OrderCreationSaga) cancelOrder(ctx context.Context, sc *OrderCreationSagaContext) error {
	order, err := s.orders.GetByID(ctx, sc.OrderID)
	if err != nil {
		return fmt.Errorf("не удалось загрузить заказ для отмены: %w", err)
	}

	order.Status = entity.OrderStatusCancelled
	order.UpdatedAt = time.Now()
	if err := s.orders.Update(ctx, order); err != nil {
		return fmt.Errorf("не удалось отменить заказ: %w", err)
	}

	s.publish(ctx, events.OrderCancelled{
		OrderID:            order.ID,
		OrderNumber:        order.OrderNumber,
		ReservationIDs:     sc.ReservationIDs,
		CancellationReason: "создание заказа не завершилось",
	})
	return nil
}

func (s *OrderCreationSaga) releaseReservations(ctx context.Context, sc *OrderCreationSagaContext) error {
	if len(sc.ReservationIDs) == 0 {
		return nil
	}
	if err := s.inventory.ReleaseOrderReservations(ctx, sc.OrderID, sc.ReservationIDs); err != nil {
		return fmt.Errorf("не удалось освободить резервации: %w", err)
	}
	return nil
}

func (s *OrderCreationSaga) refundPayment(ctx context.Context, sc *OrderCreationSagaContext) error {
	if sc.PaymentID == "" {
		return nil
	}
	ok, err := s.payments.RefundPayment(ctx, sc.PaymentID, sc.TotalAmount)
	if err != nil {
		return fmt.Errorf("не удалось вернуть платеж: %w", err)
	}
	if !ok {
		return fmt.Errorf("возврат платежа %s отклонен", sc.PaymentID)
	}
	return nil
}

func (s *OrderCreationSaga) publish(ctx context.Context, event events.DomainEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Printf("[ERROR] Не удалось опубликовать событие %s: %v", event.EventType(), err)
	}
}

// generateConfirmationNumber выводит номер подтверждения из идентификатора
// заказа: CONF- плюс hex заказа без дефисов, обрезанный до 20 символов
func generateConfirmationNumber(orderID string) string {
	raw := "CONF-" + strings.ReplaceAll(orderID, "-", "")
	if len(raw) > 20 {
		raw = raw[:20]
	}
	return strings.ToUpper(raw)
}
