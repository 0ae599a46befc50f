package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/Stealz-com/order/internal/order/application"
)

// Client talks to the inventory service over its REST contract: bulk stock
// check via repeated skuCode query parameters, bulk deduct via POST. Every
// call is bounded by the client timeout.
type Client struct {
	log     *slog.Logger
	baseURL string
	http    *http.Client
}

func NewClient(log *slog.Logger, baseURL string, timeout time.Duration) *Client {
	return &Client{
		log:     log,
		baseURL: baseURL,
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

type stockStatus struct {
	SKUCode string `json:"skuCode"`
	InStock bool   `json:"inStock"`
}

func (c *Client) CheckStock(ctx context.Context, skuCodes []string) (map[string]bool, error) {
	q := url.Values{}
	for _, sku := range skuCodes {
		q.Add("skuCode", sku)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/inventory?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inventory check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inventory check returned status %d", resp.StatusCode)
	}

	var statuses []stockStatus
	if err := json.NewDecoder(resp.Body).Decode(&statuses); err != nil {
		return nil, fmt.Errorf("inventory check decode failed: %w", err)
	}

	stock := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		stock[s.SKUCode] = s.InStock
	}
	return stock, nil
}

func (c *Client) DeductStock(ctx context.Context, deductions []application.StockDeduction) error {
	body, err := json.Marshal(deductions)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/inventory/deduct", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("inventory deduct request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("inventory deduct returned status %d", resp.StatusCode)
	}
	return nil
}
