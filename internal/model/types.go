// Package model defines the shared domain types and the error taxonomy for
// the storefront service.
package model

import "time"

// CartItem is a single purchasable line in a visitor's cart.
// Carts have set semantics on ID: adding an item whose ID is already present
// is a no-op. Insertion order is preserved for display only.
type CartItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

// Session is the read-only projection of the identity provider's user record.
// A session with EmailVerified=false must never be treated as authenticated
// by the checkout flow.
type Session struct {
	UserID        string `json:"user_id"`
	Email         string `json:"email"`
	DisplayName   string `json:"display_name,omitempty"`
	EmailVerified bool   `json:"email_verified"`
}

// CheckoutStep identifies the active step of a visitor's checkout flow.
// Exactly one step is active at a time; a process restart resets to StepCart.
type CheckoutStep string

const (
	StepCart         CheckoutStep = "cart"
	StepAuth         CheckoutStep = "auth"
	StepPayment      CheckoutStep = "payment"
	StepConfirmation CheckoutStep = "confirmation"
)

// Steps lists the checkout steps in flow order, used for progress rendering.
var Steps = []CheckoutStep{StepCart, StepAuth, StepPayment, StepConfirmation}

// Index returns the position of the step in the flow, or -1 if unknown.
func (s CheckoutStep) Index() int {
	for i, step := range Steps {
		if step == s {
			return i
		}
	}
	return -1
}

func (s CheckoutStep) String() string {
	return string(s)
}

// PaymentRequest is the signed request submitted to the payment gateway.
// Constructed fresh per checkout attempt; never persisted.
type PaymentRequest struct {
	Merchant    string `json:"merchant"`
	Amount      string `json:"amount"` // two-decimal string, e.g. "25.00"
	Currency    string `json:"currency"`
	OrderID     string `json:"order_id"`
	Email       string `json:"email"`
	Description string `json:"description"`
	CallbackURL string `json:"callback_url"`
	SuccessURL  string `json:"success_url"`
	FailURL     string `json:"fail_url"`
	Timestamp   int64  `json:"timestamp"` // unix seconds
	Nonce       string `json:"nonce"`
	Sign        string `json:"sign"`
}

// Fields returns the signable fields as a string map, excluding the signature
// itself. Empty values are omitted, matching the gateway's signing rules.
func (r *PaymentRequest) Fields() map[string]string {
	m := map[string]string{
		"merchant":     r.Merchant,
		"amount":       r.Amount,
		"currency":     r.Currency,
		"order_id":     r.OrderID,
		"email":        r.Email,
		"description":  r.Description,
		"callback_url": r.CallbackURL,
		"success_url":  r.SuccessURL,
		"fail_url":     r.FailURL,
		"timestamp":    FormatTimestamp(r.Timestamp),
		"nonce":        r.Nonce,
	}
	for k, v := range m {
		if v == "" {
			delete(m, k)
		}
	}
	return m
}

// PaymentResponse is the gateway's reply to a payment request.
type PaymentResponse struct {
	Status     string `json:"status"`
	PaymentURL string `json:"payment_url,omitempty"`
	Message    string `json:"message,omitempty"`
	TrackID    string `json:"track_id,omitempty"`
}

// GeoPosition is a GPS fix reported by the visitor's device.
type GeoPosition struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"` // meters
	Timestamp time.Time `json:"timestamp,omitempty"`
}
