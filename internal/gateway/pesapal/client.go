package pesapal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client talks to the Pesapal v3 API. Pesapal tokens are short-lived so a
// fresh one is requested per operation.
type Client struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	httpClient     *http.Client
}

func New(baseURL, consumerKey, consumerSecret string) *Client {
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		httpClient:     &http.Client{Timeout: 10 * time.Second},
	}
}

type OrderRequest struct {
	MerchantReference string
	Amount            int64 // minor units
	Currency          string
	Description       string
	CallbackURL       string
	Email             string
	Phone             string
	FirstName         string
	LastName          string
}

type OrderResponse struct {
	OrderTrackingID string `json:"order_tracking_id"`
	RedirectURL     string `json:"redirect_url"`
}

type TransactionStatus struct {
	PaymentStatus  string `json:"payment_status_description"` // COMPLETED, FAILED, INVALID, REVERSED
	ConfirmationID string `json:"confirmation_code"`
	StatusCode     int    `json:"status_code"`
}

func (c *Client) token(ctx context.Context) (string, error) {
	body := map[string]string{
		"consumer_key":    c.consumerKey,
		"consumer_secret": c.consumerSecret,
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/Auth/RequestToken", "", body, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", fmt.Errorf("pesapal auth returned empty token")
	}
	return out.Token, nil
}

// SubmitOrder registers the order and returns the hosted-payment redirect
// URL for the client.
func (c *Client) SubmitOrder(ctx context.Context, req OrderRequest) (*OrderResponse, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"id":           req.MerchantReference,
		"currency":     req.Currency,
		"amount":       float64(req.Amount) / 100,
		"description":  req.Description,
		"callback_url": req.CallbackURL,
		"billing_address": map[string]string{
			"email_address": req.Email,
			"phone_number":  req.Phone,
			"first_name":    req.FirstName,
			"last_name":     req.LastName,
		},
	}

	var out OrderResponse
	if err := c.do(ctx, http.MethodPost, "/api/Transactions/SubmitOrderRequest", token, body, &out); err != nil {
		return nil, err
	}
	if out.RedirectURL == "" {
		return nil, fmt.Errorf("pesapal order response has no redirect url")
	}
	return &out, nil
}

// GetTransactionStatus queries the authoritative status for a tracking ID;
// used by the callback handler rather than trusting callback query params.
func (c *Client) GetTransactionStatus(ctx context.Context, orderTrackingID string) (*TransactionStatus, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	var out TransactionStatus
	path := "/api/Transactions/GetTransactionStatus?orderTrackingId=" + orderTrackingID
	if err := c.do(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pesapal %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("pesapal %s returned status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
