package model

import (
	"errors"
	"testing"
)

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{
			name: "without wrapped error",
			err: &APIError{
				Code:    "TEST_ERROR",
				Message: "something went wrong",
			},
			want: "TEST_ERROR: something went wrong",
		},
		{
			name: "with wrapped error",
			err: &APIError{
				Code:    "TEST_ERROR",
				Message: "something went wrong",
				Err:     errors.New("underlying cause"),
			},
			want: "TEST_ERROR: something went wrong (underlying cause)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConstructors_SentinelMatching(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		status   int
	}{
		{"location", NewLocationError("denied"), ErrLocationDenied, 403},
		{"email in use", NewEmailInUseError(), ErrEmailInUse, 409},
		{"credentials", NewCredentialsError("wrong password"), ErrUnauthorized, 401},
		{"not verified", NewEmailNotVerifiedError(), ErrEmailNotVerified, 403},
		{"payment", NewPaymentError("insufficient data"), ErrPaymentFailed, 402},
		{"step", NewStepError(StepCart, "pay"), ErrInvalidStep, 409},
		{"upstream", NewUpstreamError("gateway", errors.New("timeout")), ErrUpstreamError, 502},
		{"validation", NewValidationError("email", "empty"), ErrInvalidRequest, 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is() failed for %v against sentinel", tt.err)
			}
			var apiErr *APIError
			if !errors.As(tt.err, &apiErr) {
				t.Fatalf("errors.As() failed for %v", tt.err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.status)
			}
		})
	}
}

func TestCheckoutStep_Index(t *testing.T) {
	tests := []struct {
		step CheckoutStep
		want int
	}{
		{StepCart, 0},
		{StepAuth, 1},
		{StepPayment, 2},
		{StepConfirmation, 3},
		{CheckoutStep("bogus"), -1},
	}

	for _, tt := range tests {
		if got := tt.step.Index(); got != tt.want {
			t.Errorf("Index(%s) = %d, want %d", tt.step, got, tt.want)
		}
	}
}

func TestPaymentRequest_Fields_OmitsEmpty(t *testing.T) {
	req := &PaymentRequest{
		Merchant:  "M-123",
		Amount:    "25.00",
		Currency:  "USD",
		OrderID:   "AB12CD34",
		Timestamp: 1700000000,
		Nonce:     "x1y2z3",
	}

	fields := req.Fields()

	if _, ok := fields["email"]; ok {
		t.Error("empty email should be omitted from signable fields")
	}
	if _, ok := fields["description"]; ok {
		t.Error("empty description should be omitted from signable fields")
	}
	if fields["timestamp"] != "1700000000" {
		t.Errorf("timestamp = %q, want %q", fields["timestamp"], "1700000000")
	}
	if fields["merchant"] != "M-123" {
		t.Errorf("merchant = %q, want %q", fields["merchant"], "M-123")
	}
}
