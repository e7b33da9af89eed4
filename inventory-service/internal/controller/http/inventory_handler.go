package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/director74/logistics-tracker/inventory-service/config"
	"github.com/director74/logistics-tracker/inventory-service/internal/entity"
	"github.com/director74/logistics-tracker/inventory-service/internal/usecase"
	"github.com/director74/logistics-tracker/pkg/auth"
	apperrors "github.com/director74/logistics-tracker/pkg/errors"
	pkgMiddleware "github.com/director74/logistics-tracker/pkg/middleware"
)

// InventoryHandler обработчик HTTP запросов склада
type InventoryHandler struct {
	ledger     *usecase.InventoryLedger
	config     *config.Config
	jwtManager *auth.JWTManager
}

// NewInventoryHandler создает новый обработчик склада
func NewInventoryHandler(ledger *usecase.InventoryLedger, cfg *config.Config, jwtManager *auth.JWTManager) *InventoryHandler {
	return &InventoryHandler{
		ledger:     ledger,
		config:     cfg,
		jwtManager: jwtManager,
	}
}

// HealthCheck обрабатывает запрос на проверку работоспособности сервиса
func (h *InventoryHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CreateInventoryItem заводит новую товарную позицию
func (h *InventoryHandler) CreateInventoryItem(c *gin.Context) {
	var req entity.CreateInventoryItemRequest
	if !apperrors.BindJSON(c, &req) {
		return
	}

	item, err := h.ledger.CreateItem(c.Request.Context(), &req)
	if apperrors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusCreated, item)
}

// GetInventoryItem возвращает информацию о товаре по ID продукта
func (h *InventoryHandler) GetInventoryItem(c *gin.Context) {
	productID := c.Param("product_id")

	item, err := h.ledger.GetItemByProductID(c.Request.Context(), productID)
	if apperrors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, item)
}

// GetAllInventoryItems возвращает список всех товаров
func (h *InventoryHandler) GetAllInventoryItems(c *gin.Context) {
	var params struct {
		Limit  int `form:"limit,default=10"`
		Offset int `form:"offset,default=0"`
	}
	if !apperrors.BindQuery(c, &params) {
		return
	}

	items, err := h.ledger.GetAllItems(c.Request.Context(), params.Limit, params.Offset)
	if apperrors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, items)
}

// GetLowStockItems возвращает товары с низким остатком
func (h *InventoryHandler) GetLowStockItems(c *gin.Context) {
	items, err := h.ledger.GetLowStockItems(c.Request.Context())
	if apperrors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

// CheckAvailability проверяет наличие товаров
func (h *InventoryHandler) CheckAvailability(c *gin.Context) {
	var req entity.CheckAvailabilityRequest
	if !apperrors.BindJSON(c, &req) {
		return
	}

	response, err := h.ledger.CheckAvailability(c.Request.Context(), &req)
	if apperrors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, response)
}

// UpdateStock изменяет остаток товара движением по складу
func (h *InventoryHandler) UpdateStock(c *gin.Context) {
	productID := c.Param("product_id")

	var req entity.UpdateStockRequest
	if !apperrors.BindJSON(c, &req) {
		return
	}

	item, err := h.ledger.UpdateStock(c.Request.Context(), productID, req.Quantity, req.MovementType, req.Reason)
	if apperrors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, item)
}

// InternalReserveForOrder резервирует товары под заказ (для внутренних вызовов)
func (h *InventoryHandler) InternalReserveForOrder(c *gin.Context) {
	var req entity.ReserveForOrderRequest
	if !apperrors.BindJSON(c, &req) {
		return
	}

	response, err := h.ledger.ReserveForOrder(c.Request.Context(), &req)
	if apperrors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, response)
}

// InternalReleaseForOrder освобождает резервации заказа (для внутренних вызовов)
func (h *InventoryHandler) InternalReleaseForOrder(c *gin.Context) {
	var req entity.ReleaseForOrderRequest
	if !apperrors.BindJSON(c, &req) {
		return
	}

	response, err := h.ledger.ReleaseForOrder(c.Request.Context(), &req)
	if apperrors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, response)
}

// RegisterRoutes регистрирует маршруты склада
func (h *InventoryHandler) RegisterRoutes(router *gin.Engine) {
	// Эндпоинт для проверки работоспособности сервиса
	router.GET("/health", h.HealthCheck)

	// Публичные API маршруты
	inventory := router.Group("/api/v1/inventory")
	{
		inventory.POST("", h.CreateInventoryItem)
		inventory.GET("", h.GetAllInventoryItems)
		inventory.GET("/low-stock", h.GetLowStockItems)
		inventory.GET("/:product_id", h.GetInventoryItem)
		inventory.POST("/check", h.CheckAvailability)
		inventory.POST("/:product_id/stock", h.UpdateStock)
	}

	// Внутренние API маршруты (с проверкой доступа для внутренних сервисов)
	internalAPIConfig := &pkgMiddleware.InternalAPIConfig{
		TrustedNetworks: h.config.Internal.TrustedNetworks,
		APIKeyEnvName:   h.config.Internal.APIKeyEnvName,
		DefaultAPIKey:   h.config.Internal.DefaultAPIKey,
		HeaderName:      h.config.Internal.HeaderName,
	}

	internalAuthMiddleware := pkgMiddleware.NewInternalAuthMiddleware(internalAPIConfig, h.jwtManager)
	internal := router.Group("/internal", internalAuthMiddleware.Required())
	{
		internalInventory := internal.Group("/inventory")
		{
			internalInventory.POST("/check", h.CheckAvailability)
			internalInventory.POST("/reserve", h.InternalReserveForOrder)
			internalInventory.POST("/release", h.InternalReleaseForOrder)
			internalInventory.GET("/:product_id", h.GetInventoryItem)
		}
	}
}
