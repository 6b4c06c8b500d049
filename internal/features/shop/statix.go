// Package shop — statix.go: HTTP-клиент внешней бонусной системы лояльности.
package shop

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// StatixClient начисляет бонусы во внешней системе лояльности.
// Реализует интерфейс BonusClient.
type StatixClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewStatixClient(baseURL, apiKey string) *StatixClient {
	return &StatixClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type statixCreditRequest struct {
	UserID int64 `json:"user_id"`
	Amount int64 `json:"amount"`
}

// CreditBonus синхронно начисляет бонусы. Любой не-2xx ответ — отказ:
// вызывающая сторона компенсирует локальное списание.
func (c *StatixClient) CreditBonus(ctx context.Context, userID, amount int64) error {
	body, err := json.Marshal(statixCreditRequest{UserID: userID, Amount: amount})
	if err != nil {
		return fmt.Errorf("ошибка сериализации запроса: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/bonus/credit", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка запроса к бонусной системе: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("бонусная система ответила %d", resp.StatusCode)
	}
	return nil
}
