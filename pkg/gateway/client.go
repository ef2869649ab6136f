package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tourlink/pkg/utils"

	"go.uber.org/zap"
)

// CheckoutParams describes one hosted-checkout session request.
type CheckoutParams struct {
	AmountMinor        int64
	Currency           string
	ProductName        string
	ProductDescription string
	CustomerEmail      string
	SuccessURL         string
	CancelURL          string
	Metadata           map[string]string
}

// CheckoutSessionRef is the provider's handle on a created session.
type CheckoutSessionRef struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type RefundParams struct {
	PaymentIntentID string
	AmountMinor     int64
	Reason          string
}

type Refund struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Client talks to the external payment provider's REST API. Calls are
// bounded by the configured timeout; failures surface synchronously and are
// never retried here.
type Client struct {
	baseURL       string
	secretKey     string
	webhookSecret string
	httpClient    *http.Client
	log           *zap.Logger
}

func NewClient(config utils.GatewayConfig, log *zap.Logger) *Client {
	timeout := time.Duration(config.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		baseURL:       strings.TrimRight(config.BaseURL, "/"),
		secretKey:     config.SecretKey,
		webhookSecret: config.WebhookSecret,
		httpClient:    &http.Client{Timeout: timeout},
		log:           log.With(zap.String("component", "gateway")),
	}
}

// CreateCheckoutSession asks the provider for a new hosted checkout session.
func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSessionRef, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("payment_method_types[0]", "card")
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", params.Currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(params.AmountMinor, 10))
	form.Set("line_items[0][price_data][product_data][name]", params.ProductName)
	if params.ProductDescription != "" {
		form.Set("line_items[0][price_data][product_data][description]", params.ProductDescription)
	}
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)
	if params.CustomerEmail != "" {
		form.Set("customer_email", params.CustomerEmail)
	}
	for key, value := range params.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", key), value)
	}

	var session CheckoutSessionRef
	if err := c.post(ctx, "/v1/checkout/sessions", form, &session); err != nil {
		return nil, err
	}

	c.log.Info("Checkout session created",
		zap.String("session_id", session.ID),
		zap.Int64("amount_minor", params.AmountMinor),
		zap.String("currency", params.Currency),
	)

	return &session, nil
}

// CreateRefund reverses a captured payment intent, partially or fully.
func (c *Client) CreateRefund(ctx context.Context, params RefundParams) (*Refund, error) {
	form := url.Values{}
	form.Set("payment_intent", params.PaymentIntentID)
	form.Set("amount", strconv.FormatInt(params.AmountMinor, 10))
	if params.Reason != "" {
		form.Set("metadata[reason]", params.Reason)
	}
	form.Set("reason", "requested_by_customer")

	var refund Refund
	if err := c.post(ctx, "/v1/refunds", form, &refund); err != nil {
		return nil, err
	}

	c.log.Info("Refund created",
		zap.String("refund_id", refund.ID),
		zap.String("payment_intent_id", params.PaymentIntentID),
		zap.Int64("amount_minor", params.AmountMinor),
	)

	return &refund, nil
}

// VerifyWebhookSignature checks a webhook delivery against the shared secret.
func (c *Client) VerifyWebhookSignature(rawBody []byte, header string) bool {
	return VerifySignature(rawBody, header, c.webhookSecret)
}

func (c *Client) post(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build gateway request %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read gateway response %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("gateway %s rejected (%d): %s", path, resp.StatusCode, apiErr.Error.Message)
		}
		return fmt.Errorf("gateway %s rejected with status %d", path, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode gateway response %s: %w", path, err)
	}

	return nil
}
