// Package vtpass implements the airtime, data and bill fulfillment
// provider client. A purchase may come back in a provisional state; the
// settlement engine is responsible for interpreting statuses and
// requerying until the outcome is known.
package vtpass

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 15 * time.Second

// Statuses reported by the provider. Everything outside this set means
// the provider guarantees no fulfillment occurred.
const (
	StatusDelivered = "delivered"
	StatusPending   = "pending"
	StatusInitiated = "initiated"
)

type Client struct {
	baseURL    string
	apiKey     string
	secretKey  string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey, secretKey string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type payRequest struct {
	RequestID     string  `json:"request_id"`
	ServiceID     string  `json:"serviceID"`
	Amount        float64 `json:"amount,omitempty"`
	Phone         string  `json:"phone,omitempty"`
	BillersCode   string  `json:"billersCode,omitempty"`
	VariationCode string  `json:"variation_code,omitempty"`
}

type payResponse struct {
	Code    string `json:"code"`
	Content struct {
		Transactions struct {
			Status        string `json:"status"`
			TransactionID string `json:"transactionId"`
		} `json:"transactions"`
	} `json:"content"`
	ResponseDescription string `json:"response_description"`
}

// Purchase submits a fulfillment request. The returned status is the
// provider's provisional settlement signal; a transport error means the
// outcome is unknown, not that nothing happened.
func (c *Client) Purchase(ctx context.Context, requestID, serviceID string, amount float64, recipient, variationCode string) (externalRef, status string, err error) {
	payload := payRequest{
		RequestID:     requestID,
		ServiceID:     serviceID,
		Amount:        amount,
		Phone:         recipient,
		VariationCode: variationCode,
	}
	if variationCode != "" {
		// variation purchases identify the target by billers code
		payload.BillersCode = recipient
	}
	return c.post(ctx, "/pay", payload)
}

// Requery asks the provider for the current status of an earlier purchase.
func (c *Client) Requery(ctx context.Context, requestID string) (externalRef, status string, err error) {
	return c.post(ctx, "/requery", map[string]string{"request_id": requestID})
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) (string, string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("secret-key", c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("fulfillment call failed: %w", err)
	}
	defer resp.Body.Close()

	var out payResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", "", fmt.Errorf("failed to decode fulfillment response: %w", err)
	}

	status := strings.ToLower(out.Content.Transactions.Status)
	if status == "" {
		// no transaction block: the provider refused the request outright
		status = "failed"
	}
	return out.Content.Transactions.TransactionID, status, nil
}
