package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/director74/logistics-tracker/order-service/internal/entity"
	"github.com/director74/logistics-tracker/order-service/internal/usecase"
	apperrors "github.com/director74/logistics-tracker/pkg/errors"
)

// OrderHandler обработчик HTTP запросов по заказам
type OrderHandler struct {
	orderUseCase *usecase.OrderUseCase
}

func NewOrderHandler(orderUseCase *usecase.OrderUseCase) *OrderHandler {
	return &OrderHandler{
		orderUseCase: orderUseCase,
	}
}

func (h *OrderHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.HealthCheck)

	api := router.Group("/api/v1")
	{
		orders := api.Group("/orders")
		{
			orders.POST("", h.CreateOrder)
			orders.GET("", h.ListOrders)
			orders.GET("/:id", h.GetOrder)
			orders.GET("/number/:order_number", h.GetOrderByNumber)
			orders.PUT("/:id/status", h.UpdateOrderStatus)
			orders.POST("/:id/cancel", h.CancelOrder)
		}
	}
}

func (h *OrderHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CreateOrder создает заказ и синхронно проводит его через сагу оформления
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req entity.CreateOrderRequest
	if !apperrors.BindJSON(c, &req) {
		return
	}

	resp, err := h.orderUseCase.CreateOrder(c.Request.Context(), req)
	if apperrors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetOrder возвращает заказ по идентификатору
func (h *OrderHandler) GetOrder(c *gin.Context) {
	resp, err := h.orderUseCase.GetOrder(c.Request.Context(), c.Param("id"))
	if apperrors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetOrderByNumber возвращает заказ по его номеру
func (h *OrderHandler) GetOrderByNumber(c *gin.Context) {
	resp, err := h.orderUseCase.GetOrderByNumber(c.Request.Context(), c.Param("order_number"))
	if apperrors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListOrders возвращает постраничный список заказов, опционально по клиенту
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var params struct {
		CustomerID string `form:"customer_id"`
		Limit      int    `form:"limit,default=10"`
		Offset     int    `form:"offset,default=0"`
	}
	if !apperrors.BindQuery(c, &params) {
		return
	}

	resp, err := h.orderUseCase.ListOrders(c.Request.Context(), params.CustomerID, params.Limit, params.Offset)
	if apperrors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateOrderStatus переводит заказ в новый статус
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	var req entity.UpdateOrderStatusRequest
	if !apperrors.BindJSON(c, &req) {
		return
	}

	resp, err := h.orderUseCase.UpdateOrderStatus(c.Request.Context(), c.Param("id"), req)
	if apperrors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CancelOrder отменяет заказ и освобождает его резервации
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	resp, err := h.orderUseCase.CancelOrder(c.Request.Context(), c.Param("id"))
	if apperrors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}
