// Package paystack implements the hosted-checkout payment gateway client.
// Amounts cross the wire in kobo; the rest of the system works in naira.
package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"
)

const defaultTimeout = 15 * time.Second

// Verification statuses returned by the gateway.
const (
	StatusSuccess   = "success"
	StatusFailed    = "failed"
	StatusAbandoned = "abandoned"
)

type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

// NewClient creates a gateway client. The timeout bounds every call; a
// zero value falls back to the default.
func NewClient(baseURL, secretKey string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type initializeRequest struct {
	Email       string `json:"email"`
	Amount      int64  `json:"amount"` // kobo
	Reference   string `json:"reference"`
	CallbackURL string `json:"callback_url,omitempty"`
}

type initializeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

type verifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		ID     int64   `json:"id"`
		Status string  `json:"status"`
		Amount float64 `json:"amount"` // kobo
	} `json:"data"`
}

// Initialize starts a hosted checkout and returns the redirect handle.
func (c *Client) Initialize(ctx context.Context, amount float64, email, reference, callbackURL string) (authorizationURL, accessCode string, err error) {
	payload := initializeRequest{
		Email:       email,
		Amount:      toKobo(amount),
		Reference:   reference,
		CallbackURL: callbackURL,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode initialize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("gateway initialize failed: %w", err)
	}
	defer resp.Body.Close()

	var out initializeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", "", fmt.Errorf("failed to decode initialize response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !out.Status {
		return "", "", fmt.Errorf("gateway rejected initialization: %s", out.Message)
	}
	return out.Data.AuthorizationURL, out.Data.AccessCode, nil
}

// Verify queries the gateway for the final state of a checkout.
func (c *Client) Verify(ctx context.Context, reference string) (status, externalRef string, amount float64, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transaction/verify/"+reference, nil)
	if err != nil {
		return "", "", 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", 0, fmt.Errorf("gateway verify failed: %w", err)
	}
	defer resp.Body.Close()

	var out verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", "", 0, fmt.Errorf("failed to decode verify response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !out.Status {
		return "", "", 0, fmt.Errorf("gateway rejected verification: %s", out.Message)
	}
	return out.Data.Status, fmt.Sprintf("%d", out.Data.ID), fromKobo(out.Data.Amount), nil
}

// WebhookEvent is the payload delivered to the webhook endpoint. Delivery
// is not guaranteed and may repeat; the settlement engine treats it as an
// alternate trigger for the same idempotent verification.
type WebhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		ID        int64   `json:"id"`
		Reference string  `json:"reference"`
		Status    string  `json:"status"`
		Amount    float64 `json:"amount"`
	} `json:"data"`
}

// ValidSignature checks the HMAC-SHA512 signature header on a webhook body.
func (c *Client) ValidSignature(body []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(c.secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func toKobo(naira float64) int64 {
	return int64(math.Round(naira * 100))
}

func fromKobo(kobo float64) float64 {
	return kobo / 100
}
