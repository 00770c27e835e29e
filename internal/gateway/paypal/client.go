package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Client talks to the PayPal REST API. The OAuth2 client-credentials token
// is cached in memory and refreshed once 80% of its lifetime has elapsed,
// so no request ever goes out with a token close to expiry.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	webhookID    string
	httpClient   *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func New(baseURL, clientID, clientSecret, webhookID string) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		webhookID:    webhookID,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

type Order struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	ApprovalURL string `json:"approvalUrl"`
}

type CaptureResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// WebhookHeaders carries the transmission headers PayPal sends with every
// webhook delivery.
type WebhookHeaders struct {
	AuthAlgo         string
	CertURL          string
	TransmissionID   string
	TransmissionSig  string
	TransmissionTime string
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		token := c.token
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("paypal token request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("paypal token request returned status %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("paypal token response: %w", err)
	}
	if tr.AccessToken == "" || tr.ExpiresIn <= 0 {
		return "", fmt.Errorf("paypal token response incomplete")
	}

	c.mu.Lock()
	c.token = tr.AccessToken
	// refresh at 80% of the reported lifetime
	c.tokenExpiry = time.Now().Add(time.Duration(tr.ExpiresIn*8/10) * time.Second)
	c.mu.Unlock()
	return tr.AccessToken, nil
}

// CreateOrder creates a CAPTURE-intent order and returns the approval link
// the client is redirected to.
func (c *Client) CreateOrder(ctx context.Context, amountCents int64, currency, reference, returnURL, cancelURL string) (*Order, error) {
	body := map[string]interface{}{
		"intent": "CAPTURE",
		"purchase_units": []map[string]interface{}{{
			"reference_id": reference,
			"amount": map[string]string{
				"currency_code": currency,
				"value":         formatAmount(amountCents),
			},
		}},
		"application_context": map[string]string{
			"return_url": returnURL,
			"cancel_url": cancelURL,
		},
	}

	var out struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Links  []struct {
			Href string `json:"href"`
			Rel  string `json:"rel"`
		} `json:"links"`
	}
	if err := c.post(ctx, "/v2/checkout/orders", body, &out); err != nil {
		return nil, err
	}

	order := &Order{ID: out.ID, Status: out.Status}
	for _, link := range out.Links {
		if link.Rel == "approve" {
			order.ApprovalURL = link.Href
		}
	}
	if order.ApprovalURL == "" {
		return nil, fmt.Errorf("paypal order %s has no approval link", out.ID)
	}
	return order, nil
}

func (c *Client) CaptureOrder(ctx context.Context, orderID string) (*CaptureResult, error) {
	var out CaptureResult
	if err := c.post(ctx, "/v2/checkout/orders/"+orderID+"/capture", map[string]string{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyWebhookSignature checks the transmission signature against PayPal's
// verification endpoint. Payloads that fail verification must never be
// applied to any record.
func (c *Client) VerifyWebhookSignature(ctx context.Context, h WebhookHeaders, rawEvent []byte) (bool, error) {
	body := map[string]interface{}{
		"auth_algo":         h.AuthAlgo,
		"cert_url":          h.CertURL,
		"transmission_id":   h.TransmissionID,
		"transmission_sig":  h.TransmissionSig,
		"transmission_time": h.TransmissionTime,
		"webhook_id":        c.webhookID,
		"webhook_event":     json.RawMessage(rawEvent),
	}

	var out struct {
		VerificationStatus string `json:"verification_status"`
	}
	if err := c.post(ctx, "/v1/notifications/verify-webhook-signature", body, &out); err != nil {
		return false, err
	}
	return out.VerificationStatus == "SUCCESS", nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("paypal %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("paypal %s returned status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func formatAmount(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
