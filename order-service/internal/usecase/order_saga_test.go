package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/director74/logistics-tracker/order-service/internal/entity"
	"github.com/director74/logistics-tracker/order-service/internal/repo"
	"github.com/director74/logistics-tracker/pkg/events"
	"github.com/director74/logistics-tracker/pkg/saga"
)

// Мок для InventoryService
type MockInventoryService struct {
	mock.Mock
}

func (m *MockInventoryService) CheckStockAvailability(ctx context.Context, items []entity.OrderItem) (StockCheckResult, error) {
	args := m.Called(ctx, items)
	return args.Get(0).(StockCheckResult), args.Error(1)
}

func (m *MockInventoryService) ReserveInventoryForOrder(ctx context.Context, orderID string, items []entity.OrderItem) ([]ReservationResult, error) {
	args := m.Called(ctx, orderID, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ReservationResult), args.Error(1)
}

func (m *MockInventoryService) ReleaseOrderReservations(ctx context.Context, orderID string, reservationIDs []string) error {
	args := m.Called(ctx, orderID, reservationIDs)
	return args.Error(0)
}

// Мок для PaymentService
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) ProcessPayment(ctx context.Context, orderID, customerID string, amount float64, currency string) (PaymentResult, error) {
	args := m.Called(ctx, orderID, customerID, amount, currency)
	return args.Get(0).(PaymentResult), args.Error(1)
}

func (m *MockPaymentService) RefundPayment(ctx context.Context, paymentID string, amount float64) (bool, error) {
	args := m.Called(ctx, paymentID, amount)
	return args.Bool(0), args.Error(1)
}

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

func newTestOrder(t *testing.T, orders *repo.MemoryOrderRepo) *entity.Order {
	t.Helper()
	order := &entity.Order{
		ID:          uuid.NewString(),
		OrderNumber: "ORD-20260829-001000",
		CustomerID:  uuid.NewString(),
		Items: []entity.OrderItem{
			{ProductID: "prod-1", ProductName: "Виджет", SKU: "WID-001-BLK", Quantity: 2, UnitPrice: 10.0},
			{ProductID: "prod-2", ProductName: "Гаджет", SKU: "GAD-002-RED", Quantity: 1, UnitPrice: 5.0},
		},
		Currency: "USD",
		Status:   entity.OrderStatusPending,
	}
	order.CalculateTotal()
	require.NoError(t, orders.Create(context.Background(), order))
	return order
}

func newTestSaga(orders *repo.MemoryOrderRepo, inventory *MockInventoryService, payments *MockPaymentService) (*OrderCreationSaga, *recordingPublisher) {
	publisher := &recordingPublisher{}
	return NewOrderCreationSaga(orders, inventory, payments, publisher, nil), publisher
}

func TestOrderCreationSagaSuccess(t *testing.T) {
	orders := repo.NewMemoryOrderRepo()
	inventory := new(MockInventoryService)
	payments := new(MockPaymentService)
	creation, publisher := newTestSaga(orders, inventory, payments)

	order := newTestOrder(t, orders)

	inventory.On("ReserveInventoryForOrder", mock.Anything, order.ID, []entity.OrderItem(order.Items)).Return([]ReservationResult{
		{ReservationID: "res-1", ProductID: "prod-1", SKU: "WID-001-BLK", Quantity: 2, Success: true},
		{ReservationID: "res-2", ProductID: "prod-2", SKU: "GAD-002-RED", Quantity: 1, Success: true},
	}, nil)
	payments.On("ProcessPayment", mock.Anything, order.ID, order.CustomerID, 25.0, "USD").
		Return(PaymentResult{Success: true, PaymentID: "pay-1"}, nil)

	sc := NewOrderCreationSagaContext(order)
	result, err := creation.Run(context.Background(), sc)
	require.NoError(t, err)

	require.Equal(t, saga.StatusSuccess, result.Status)
	data, ok := result.Data.(OrderCreationResult)
	require.True(t, ok)
	assert.Equal(t, order.ID, data.OrderID)
	assert.Equal(t, "pay-1", data.PaymentID)
	assert.Equal(t, []string{"res-1", "res-2"}, data.ReservationIDs)
	assert.True(t, strings.HasPrefix(data.ConfirmationNumber, "CONF-"))
	assert.Len(t, data.ConfirmationNumber, 20)
	assert.Equal(t, strings.ToUpper(data.ConfirmationNumber), data.ConfirmationNumber)

	saved, err := orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusConfirmed, saved.Status)
	assert.Equal(t, "pay-1", saved.PaymentID)
	assert.Equal(t, []string{"res-1", "res-2"}, []string(saved.ReservationIDs))
	assert.Equal(t, data.ConfirmationNumber, saved.ConfirmationNumber)

	assert.Len(t, publisher.byType("OrderConfirmed"), 1)
	assert.Empty(t, publisher.byType("OrderCancelled"))
	inventory.AssertNotCalled(t, "ReleaseOrderReservations", mock.Anything, mock.Anything, mock.Anything)
	payments.AssertNotCalled(t, "RefundPayment", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderCreationSagaFailsValidationWithoutSideEffects(t *testing.T) {
	orders := repo.NewMemoryOrderRepo()
	inventory := new(MockInventoryService)
	payments := new(MockPaymentService)
	creation, publisher := newTestSaga(orders, inventory, payments)

	order := newTestOrder(t, orders)
	order.Items = nil

	sc := NewOrderCreationSagaContext(order)
	result, err := creation.Run(context.Background(), sc)
	require.NoError(t, err)

	assert.Equal(t, saga.StatusFailed, result.Status)
	assert.Equal(t, StepValidateOrder, result.FailedStep)
	assert.True(t, result.WasCompensated)

	inventory.AssertNotCalled(t, "ReserveInventoryForOrder", mock.Anything, mock.Anything, mock.Anything)
	payments.AssertNotCalled(t, "ProcessPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, publisher.byType("OrderConfirmed"))
	assert.Empty(t, publisher.byType("OrderCancelled"))
}

// failingUpdateOrderRepo имитирует потерю соединения с базой при обновлении
type failingUpdateOrderRepo struct {
	*repo.MemoryOrderRepo
}

func (r *failingUpdateOrderRepo) Update(context.Context, *entity.Order) error {
	return errors.New("соединение с базой потеряно")
}

func TestOrderCreationSagaReserveFailureWithUnavailableDatabase(t *testing.T) {
	orders := repo.NewMemoryOrderRepo()
	inventory := new(MockInventoryService)
	payments := new(MockPaymentService)
	publisher := &recordingPublisher{}
	creation := NewOrderCreationSaga(&failingUpdateOrderRepo{MemoryOrderRepo: orders}, inventory, payments, publisher, nil)

	order := newTestOrder(t, orders)

	inventory.On("ReserveInventoryForOrder", mock.Anything, order.ID, []entity.OrderItem(order.Items)).Return([]ReservationResult{
		{ProductID: "prod-1", SKU: "WID-001-BLK", Quantity: 2, Success: false, Message: "недостаточно товара"},
		{ProductID: "prod-2", SKU: "GAD-002-RED", Quantity: 1, Success: false, Message: "недостаточно товара"},
	}, nil)

	sc := NewOrderCreationSagaContext(order)
	result, err := creation.Run(context.Background(), sc)
	require.NoError(t, err)

	// Откат не пишет в базу, поэтому недоступность базы не превращает
	// обычный сбой резервирования в compensation_failed
	assert.Equal(t, saga.StatusFailed, result.Status)
	assert.Equal(t, StepReserveInventory, result.FailedStep)
	assert.True(t, result.WasCompensated)
	assert.Empty(t, result.CompensationError)
}

func TestOrderCreationSagaReleasesPartialReservations(t *testing.T) {
	orders := repo.NewMemoryOrderRepo()
	inventory := new(MockInventoryService)
	payments := new(MockPaymentService)
	creation, publisher := newTestSaga(orders, inventory, payments)

	order := newTestOrder(t, orders)

	inventory.On("ReserveInventoryForOrder", mock.Anything, order.ID, []entity.OrderItem(order.Items)).Return([]ReservationResult{
		{ReservationID: "res-1", ProductID: "prod-1", SKU: "WID-001-BLK", Quantity: 2, Success: true},
		{ProductID: "prod-2", SKU: "GAD-002-RED", Quantity: 1, Success: false, Message: "недостаточно товара"},
	}, nil)
	inventory.On("ReleaseOrderReservations", mock.Anything, order.ID, []string{"res-1"}).Return(nil)

	sc := NewOrderCreationSagaContext(order)
	result, err := creation.Run(context.Background(), sc)
	require.NoError(t, err)

	assert.Equal(t, saga.StatusFailed, result.Status)
	assert.Equal(t, StepReserveInventory, result.FailedStep)
	assert.True(t, result.WasCompensated)
	assert.Contains(t, result.Reason, "GAD-002-RED")

	// Успешная резервация соседней позиции освобождена, платеж не проводился
	inventory.AssertCalled(t, "ReleaseOrderReservations", mock.Anything, order.ID, []string{"res-1"})
	payments.AssertNotCalled(t, "ProcessPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	// Статус заказа при откате — забота вызывающего usecase, сага его не трогает
	saved, err := orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPending, saved.Status)
	assert.Empty(t, publisher.byType("OrderCancelled"))
}

func TestOrderCreationSagaPaymentDeclined(t *testing.T) {
	orders := repo.NewMemoryOrderRepo()
	inventory := new(MockInventoryService)
	payments := new(MockPaymentService)
	creation, _ := newTestSaga(orders, inventory, payments)

	order := newTestOrder(t, orders)

	inventory.On("ReserveInventoryForOrder", mock.Anything, order.ID, []entity.OrderItem(order.Items)).Return([]ReservationResult{
		{ReservationID: "res-1", ProductID: "prod-1", SKU: "WID-001-BLK", Quantity: 2, Success: true},
		{ReservationID: "res-2", ProductID: "prod-2", SKU: "GAD-002-RED", Quantity: 1, Success: true},
	}, nil)
	inventory.On("ReleaseOrderReservations", mock.Anything, order.ID, []string{"res-1", "res-2"}).Return(nil)
	payments.On("ProcessPayment", mock.Anything, order.ID, order.CustomerID, 25.0, "USD").
		Return(PaymentResult{Success: false, Message: "карта отклонена"}, nil)

	sc := NewOrderCreationSagaContext(order)
	result, err := creation.Run(context.Background(), sc)
	require.NoError(t, err)

	assert.Equal(t, saga.StatusFailed, result.Status)
	assert.Equal(t, StepProcessPayment, result.FailedStep)
	assert.True(t, result.WasCompensated)

	// Отклоненный платеж не возвращается, резервации освобождены
	payments.AssertNotCalled(t, "RefundPayment", mock.Anything, mock.Anything, mock.Anything)
	inventory.AssertCalled(t, "ReleaseOrderReservations", mock.Anything, order.ID, []string{"res-1", "res-2"})

	saved, err := orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPending, saved.Status)
}

func TestOrderCreationSagaStopsOnRefundFailure(t *testing.T) {
	orders := repo.NewMemoryOrderRepo()
	inventory := new(MockInventoryService)
	payments := new(MockPaymentService)
	creation, _ := newTestSaga(orders, inventory, payments)

	order := newTestOrder(t, orders)

	sc := NewOrderCreationSagaContext(order)
	// Заказ удаляется из виду: ConfirmOrder не сможет его загрузить
	sc.OrderID = uuid.NewString()

	inventory.On("ReserveInventoryForOrder", mock.Anything, sc.OrderID, []entity.OrderItem(order.Items)).Return([]ReservationResult{
		{ReservationID: "res-1", ProductID: "prod-1", SKU: "WID-001-BLK", Quantity: 2, Success: true},
		{ReservationID: "res-2", ProductID: "prod-2", SKU: "GAD-002-RED", Quantity: 1, Success: true},
	}, nil)
	payments.On("ProcessPayment", mock.Anything, sc.OrderID, order.CustomerID, 25.0, "USD").
		Return(PaymentResult{Success: true, PaymentID: "pay-1"}, nil)
	payments.On("RefundPayment", mock.Anything, "pay-1", 25.0).Return(false, nil)

	result, err := creation.Run(context.Background(), sc)
	require.NoError(t, err)

	// Компенсация останавливается на первом же сбое: возврат платежа не
	// прошел, до освобождения резерваций дело не дошло
	assert.Equal(t, saga.StatusCompensationFailed, result.Status)
	assert.Equal(t, StepProcessPayment, result.FailedStep)
	assert.False(t, result.WasCompensated)
	assert.NotEmpty(t, result.CompensationError)
	inventory.AssertNotCalled(t, "ReleaseOrderReservations", mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateConfirmationNumber(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		orderID := uuid.NewString()
		number := generateConfirmationNumber(orderID)
		assert.True(t, strings.HasPrefix(number, "CONF-"))
		assert.Len(t, number, 20)
		assert.Equal(t, strings.ToUpper(number), number)
		assert.Equal(t, number, generateConfirmationNumber(orderID), "номер должен быть детерминированным для заказа")
		assert.False(t, seen[number], "номера подтверждений для разных заказов должны различаться")
		seen[number] = true
	}
}
