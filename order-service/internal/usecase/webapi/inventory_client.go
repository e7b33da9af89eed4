package webapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/director74/logistics-tracker/order-service/internal/entity"
	"github.com/director74/logistics-tracker/order-service/internal/usecase"
	"github.com/director74/logistics-tracker/pkg/auth"
)

// InventoryClient представляет HTTP клиент для работы с внутренним API сервиса склада
type InventoryClient struct {
	baseURL    string
	apiKey     string
	jwtManager *auth.JWTManager
	httpClient *http.Client
}

func NewInventoryClient(baseURL, apiKey string, jwtManager *auth.JWTManager) *InventoryClient {
	return &InventoryClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		jwtManager: jwtManager,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type checkItemRequest struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

type checkAvailabilityResponse struct {
	AllAvailable bool `json:"all_available"`
	Items        []struct {
		SKU        string `json:"sku"`
		Available  int    `json:"available"`
		CanFulfill bool   `json:"can_fulfill"`
		Message    string `json:"message"`
	} `json:"items"`
}

// CheckStockAvailability проверяет наличие всех позиций заказа на складе
func (c *InventoryClient) CheckStockAvailability(ctx context.Context, items []entity.OrderItem) (usecase.StockCheckResult, error) {
	url := fmt.Sprintf("%s/internal/inventory/check", c.baseURL)

	checkItems := make([]checkItemRequest, len(items))
	for i, item := range items {
		checkItems[i] = checkItemRequest{SKU: item.SKU, Quantity: item.Quantity}
	}
	reqBody := map[string]interface{}{
		"items": checkItems,
	}

	var response checkAvailabilityResponse
	if err := c.postJSON(ctx, url, reqBody, &response); err != nil {
		return usecase.StockCheckResult{}, err
	}

	result := usecase.StockCheckResult{
		AllAvailable: response.AllAvailable,
		Items:        make([]usecase.StockCheckItem, len(items)),
	}

	// Сервис склада возвращает позиции в порядке запроса
	for i, item := range items {
		checked := usecase.StockCheckItem{
			ProductID:         item.ProductID,
			SKU:               item.SKU,
			RequestedQuantity: item.Quantity,
		}
		if i < len(response.Items) {
			checked.AvailableQuantity = response.Items[i].Available
			checked.CanFulfill = response.Items[i].CanFulfill
			checked.Message = response.Items[i].Message
		}
		result.Items[i] = checked
	}

	return result, nil
}

type reserveItemRequest struct {
	ProductID string `json:"product_id"`
	SKU       string `json:"sku"`
	Quantity  int    `json:"quantity"`
}

type reserveForOrderResponse struct {
	OrderID string `json:"order_id"`
	Items   []struct {
		ProductID     string `json:"product_id"`
		SKU           string `json:"sku"`
		Quantity      int    `json:"quantity"`
		ReservationID string `json:"reservation_id"`
		Success       bool   `json:"success"`
		Message       string `json:"message"`
	} `json:"items"`
}

// ReserveInventoryForOrder резервирует позиции заказа. Каждая позиция
// резервируется независимо, частичный результат не является ошибкой вызова.
func (c *InventoryClient) ReserveInventoryForOrder(ctx context.Context, orderID string, items []entity.OrderItem) ([]usecase.ReservationResult, error) {
	url := fmt.Sprintf("%s/internal/inventory/reserve", c.baseURL)

	reserveItems := make([]reserveItemRequest, len(items))
	for i, item := range items {
		reserveItems[i] = reserveItemRequest{
			ProductID: item.ProductID,
			SKU:       item.SKU,
			Quantity:  item.Quantity,
		}
	}
	reqBody := map[string]interface{}{
		"order_id": orderID,
		"items":    reserveItems,
	}

	var response reserveForOrderResponse
	if err := c.postJSON(ctx, url, reqBody, &response); err != nil {
		return nil, err
	}

	results := make([]usecase.ReservationResult, len(response.Items))
	for i, item := range response.Items {
		results[i] = usecase.ReservationResult{
			ReservationID: item.ReservationID,
			ProductID:     item.ProductID,
			SKU:           item.SKU,
			Quantity:      item.Quantity,
			Success:       item.Success,
			Message:       item.Message,
		}
	}

	return results, nil
}

// ReleaseOrderReservations освобождает резервации заказа
func (c *InventoryClient) ReleaseOrderReservations(ctx context.Context, orderID string, reservationIDs []string) error {
	url := fmt.Sprintf("%s/internal/inventory/release", c.baseURL)

	reqBody := map[string]interface{}{
		"order_id":        orderID,
		"reservation_ids": reservationIDs,
	}

	var response struct {
		Released int    `json:"released"`
		Success  bool   `json:"success"`
		Message  string `json:"message"`
	}
	if err := c.postJSON(ctx, url, reqBody, &response); err != nil {
		return err
	}

	if !response.Success {
		return fmt.Errorf("сервис склада отклонил освобождение резерваций: %s", response.Message)
	}
	return nil
}

func (c *InventoryClient) postJSON(ctx context.Context, url string, reqBody interface{}, out interface{}) error {
	reqBodyJSON, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("ошибка при маршалинге запроса: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBodyJSON))
	if err != nil {
		return fmt.Errorf("ошибка при создании запроса: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Internal-API-Key", c.apiKey)

	// Межсервисный JWT токен для внутреннего API
	if c.jwtManager != nil {
		token, err := c.jwtManager.GenerateServiceToken("order-service")
		if err == nil {
			req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка при выполнении запроса: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("неуспешный ответ от сервиса склада: %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ошибка при декодировании ответа: %w", err)
	}
	return nil
}
