// Package payment implements the crypto payment gateway client: request
// signing, order ID generation, and payment session creation.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"hoststore/internal/model"
)

const (
	defaultCurrency = "USD"
	requestTimeout  = 30 * time.Second

	// maxResponseSize caps gateway response bodies. Payment responses are
	// small JSON documents; anything larger is not worth parsing.
	maxResponseSize = 1 << 20
)

// Order captures what the caller wants to charge for. The client fills in
// merchant identity, redirect URLs, timestamp, nonce and signature.
type Order struct {
	OrderID     string
	Amount      float64
	Email       string
	Description string
}

// Client talks to the payment gateway's merchant API. A circuit breaker
// guards the upstream: once the gateway starts failing hard, further checkout
// attempts fail fast instead of stacking up 30-second timeouts.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*model.PaymentResponse]
	logger     *slog.Logger

	gatewayURL string
	merchantID string
	signKey    string
	baseURL    string

	now func() time.Time
}

// NewClient creates a gateway client. baseURL is the storefront's public
// origin, used to build the redirect URLs the gateway sends the payer back
// to. signKey defaults to the merchant ID when empty, which is what the
// gateway itself does.
func NewClient(rt http.RoundTripper, logger *slog.Logger, gatewayURL, merchantID, signKey, baseURL string) *Client {
	if signKey == "" {
		signKey = merchantID
	}

	settings := gobreaker.Settings{
		Name:    "payment-gateway",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &Client{
		httpClient: &http.Client{
			Transport: rt,
			Timeout:   requestTimeout,
		},
		breaker:    gobreaker.NewCircuitBreaker[*model.PaymentResponse](settings),
		logger:     logger,
		gatewayURL: strings.TrimRight(gatewayURL, "/"),
		merchantID: merchantID,
		signKey:    signKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		now:        time.Now,
	}
}

// CreatePayment asks the gateway for a hosted payment session and returns
// the URL the visitor must be redirected to. A gateway-level rejection
// (status "error") surfaces as a payment error carrying the gateway's
// message; transport failures are reported without upstream detail.
func (c *Client) CreatePayment(ctx context.Context, order Order) (*model.PaymentResponse, error) {
	if order.Amount <= 0 {
		return nil, model.NewValidationError("amount", "must be positive")
	}
	if order.OrderID == "" {
		order.OrderID = GenerateOrderID()
	}

	req := &model.PaymentRequest{
		Merchant:    c.merchantID,
		Amount:      model.FormatAmount(order.Amount),
		Currency:    defaultCurrency,
		OrderID:     order.OrderID,
		Email:       order.Email,
		Description: order.Description,
		CallbackURL: c.baseURL + "/payment/callback",
		SuccessURL:  c.baseURL + "/payment/success",
		FailURL:     c.baseURL + "/payment/failed",
		Timestamp:   c.now().Unix(),
		Nonce:       newNonce(),
	}
	req.Sign = Signature(req.Fields(), c.signKey)

	resp, err := c.breaker.Execute(func() (*model.PaymentResponse, error) {
		return c.post(ctx, req)
	})
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			return nil, err
		}
		c.logger.Error("payment gateway request failed",
			"order_id", order.OrderID,
			"error", err)
		return nil, model.NewPaymentError("failed to create payment")
	}

	if resp.Status == "error" {
		msg := resp.Message
		if msg == "" {
			msg = "payment creation failed"
		}
		c.logger.Warn("payment gateway rejected request",
			"order_id", order.OrderID,
			"message", msg)
		return nil, model.NewPaymentError(msg)
	}
	if resp.PaymentURL == "" {
		return nil, model.NewPaymentError("gateway returned no payment URL")
	}

	c.logger.Info("payment session created",
		"order_id", order.OrderID,
		"track_id", resp.TrackID)
	return resp, nil
}

func (c *Client) post(ctx context.Context, payload *model.PaymentRequest) (*model.PaymentResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payment request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.gatewayURL+"/merchants/request", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build payment request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("payment gateway unreachable: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read payment response: %w", err)
	}

	var resp model.PaymentResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, model.NewUpstreamError("payment gateway",
			fmt.Errorf("malformed response (status %d): %w", httpResp.StatusCode, err))
	}
	return &resp, nil
}
