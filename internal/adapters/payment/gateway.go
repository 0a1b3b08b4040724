// Package payment is the thin client for the external checkout service. The
// gateway's internals are not our business: we open sessions and receive
// webhook callbacks, nothing more.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"property-brokerage-system/internal/core/domain"
)

// Client implements the PaymentGateway port over HTTP.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	secret      string
	callbackURL string
}

func NewClient(baseURL, secret, callbackURL string) *Client {
	return &Client{
		// Timeout keeps a slow gateway from holding a placement open.
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		baseURL:     baseURL,
		secret:      secret,
		callbackURL: callbackURL,
	}
}

type initializeRequest struct {
	Reference   string  `json:"reference"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	PaymentType string  `json:"payment_type"`
	CallbackURL string  `json:"callback_url"`
}

type initializeResponse struct {
	Status string `json:"status"`
	Data   struct {
		CheckoutURL string `json:"checkout_url"`
	} `json:"data"`
	Message string `json:"message"`
}

// Initialize opens a payment session for the order and returns the checkout
// URL the buyer is redirected to.
func (c *Client) Initialize(ctx context.Context, o *domain.Order, paymentType string) (string, error) {
	body, err := json.Marshal(initializeRequest{
		Reference:   o.PaymentReference,
		Amount:      o.Amount,
		Currency:    o.Currency,
		PaymentType: paymentType,
		CallbackURL: c.callbackURL,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal initialize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build initialize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("payment gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("payment gateway returned %d: %s", resp.StatusCode, raw)
	}

	var parsed initializeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode gateway response: %w", err)
	}
	if parsed.Data.CheckoutURL == "" {
		return "", fmt.Errorf("gateway returned no checkout url: %s", parsed.Message)
	}
	return parsed.Data.CheckoutURL, nil
}
