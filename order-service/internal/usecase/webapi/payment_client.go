package webapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/director74/logistics-tracker/order-service/internal/usecase"
	"github.com/director74/logistics-tracker/pkg/auth"
)

// PaymentClient представляет HTTP клиент для работы с сервисом платежей
type PaymentClient struct {
	baseURL    string
	jwtManager *auth.JWTManager
	httpClient *http.Client
}

func NewPaymentClient(baseURL string, jwtManager *auth.JWTManager) *PaymentClient {
	return &PaymentClient{
		baseURL:    baseURL,
		jwtManager: jwtManager,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// ProcessPayment проводит платеж по заказу. Отклоненный платеж не является
// ошибкой вызова: возвращается результат с Success=false.
func (c *PaymentClient) ProcessPayment(ctx context.Context, orderID, customerID string, amount float64, currency string) (usecase.PaymentResult, error) {
	url := fmt.Sprintf("%s/api/v1/payments", c.baseURL)

	reqBody := map[string]interface{}{
		"order_id":    orderID,
		"customer_id": customerID,
		"amount":      amount,
		"currency":    currency,
	}

	var response struct {
		Success   bool   `json:"success"`
		PaymentID string `json:"payment_id"`
		Message   string `json:"message"`
	}

	status, err := c.postJSON(ctx, url, reqBody, &response)
	if err != nil {
		return usecase.PaymentResult{}, err
	}

	if status == http.StatusPaymentRequired {
		// Платеж отклонен платежным провайдером
		return usecase.PaymentResult{Success: false, Message: response.Message}, nil
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return usecase.PaymentResult{}, fmt.Errorf("неуспешный ответ от сервиса платежей: %d", status)
	}

	return usecase.PaymentResult{
		Success:   response.Success,
		PaymentID: response.PaymentID,
		Message:   response.Message,
	}, nil
}

// RefundPayment возвращает платеж
func (c *PaymentClient) RefundPayment(ctx context.Context, paymentID string, amount float64) (bool, error) {
	url := fmt.Sprintf("%s/api/v1/payments/%s/refund", c.baseURL, paymentID)

	reqBody := map[string]interface{}{
		"amount": amount,
	}

	var response struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}

	status, err := c.postJSON(ctx, url, reqBody, &response)
	if err != nil {
		return false, err
	}
	if status != http.StatusOK {
		return false, fmt.Errorf("неуспешный ответ от сервиса платежей: %d", status)
	}

	return response.Success, nil
}

func (c *PaymentClient) postJSON(ctx context.Context, url string, reqBody interface{}, out interface{}) (int, error) {
	reqBodyJSON, err := json.Marshal(reqBody)
	if err != nil {
		return 0, fmt.Errorf("ошибка при маршалинге запроса: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBodyJSON))
	if err != nil {
		return 0, fmt.Errorf("ошибка при создании запроса: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if c.jwtManager != nil {
		token, err := c.jwtManager.GenerateServiceToken("order-service")
		if err == nil {
			req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("ошибка при выполнении запроса: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("ошибка при декодировании ответа: %w", err)
	}
	return resp.StatusCode, nil
}
