package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases.
// Use errors.Is() to check against these.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrLocationDenied   = errors.New("location access denied")
	ErrEmailInUse       = errors.New("email already in use")
	ErrEmailNotVerified = errors.New("email not verified")
	ErrPaymentFailed    = errors.New("payment failed")
	ErrInvalidStep      = errors.New("invalid checkout step")
	ErrUpstreamError    = errors.New("upstream error")
)

// APIError represents a structured error for API responses.
// Implements error interface and supports unwrapping.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"` // HTTP status, not serialized
	Err        error  `json:"-"` // Wrapped error, not serialized
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a 404 error for missing resources.
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: 404,
		Err:        ErrNotFound,
	}
}

// NewValidationError creates a 400 error for invalid input.
func NewValidationError(field, reason string) *APIError {
	return &APIError{
		Code:       "VALIDATION_ERROR",
		Message:    fmt.Sprintf("invalid %s: %s", field, reason),
		StatusCode: 400,
		Err:        ErrInvalidRequest,
	}
}

// NewLocationError creates a 403 error for a failed or denied location
// request. Fatal to the access gate; the visitor may retry manually.
func NewLocationError(reason string) *APIError {
	return &APIError{
		Code:       "LOCATION_REQUIRED",
		Message:    reason,
		StatusCode: 403,
		Err:        ErrLocationDenied,
	}
}

// NewEmailInUseError creates a 409 error for sign-up conflicts.
func NewEmailInUseError() *APIError {
	return &APIError{
		Code:       "EMAIL_IN_USE",
		Message:    "this email is already registered, sign in instead",
		StatusCode: 409,
		Err:        ErrEmailInUse,
	}
}

// NewCredentialsError creates a 401 error for failed sign-in attempts.
// Covers both unknown accounts and wrong passwords.
func NewCredentialsError(reason string) *APIError {
	return &APIError{
		Code:       "INVALID_CREDENTIALS",
		Message:    reason,
		StatusCode: 401,
		Err:        ErrUnauthorized,
	}
}

// NewEmailNotVerifiedError creates a 403 error for sign-in with an
// unverified address. The session is forced out before this surfaces.
func NewEmailNotVerifiedError() *APIError {
	return &APIError{
		Code:       "EMAIL_NOT_VERIFIED",
		Message:    "please verify your email before signing in",
		StatusCode: 403,
		Err:        ErrEmailNotVerified,
	}
}

// NewUnauthorizedError creates a 401 error for missing authentication.
func NewUnauthorizedError(reason string) *APIError {
	return &APIError{
		Code:       "UNAUTHORIZED",
		Message:    reason,
		StatusCode: 401,
		Err:        ErrUnauthorized,
	}
}

// NewPaymentError creates a 402 error for payment creation failures.
// The reason carries the gateway's message when it provided one.
func NewPaymentError(reason string) *APIError {
	return &APIError{
		Code:       "PAYMENT_ERROR",
		Message:    reason,
		StatusCode: 402,
		Err:        ErrPaymentFailed,
	}
}

// NewStepError creates a 409 error for checkout operations attempted from
// the wrong step.
func NewStepError(step CheckoutStep, op string) *APIError {
	return &APIError{
		Code:       "INVALID_STEP",
		Message:    fmt.Sprintf("cannot %s from step %s", op, step),
		StatusCode: 409,
		Err:        ErrInvalidStep,
	}
}

// NewUpstreamError creates a 502 error for external collaborator failures.
func NewUpstreamError(service string, err error) *APIError {
	return &APIError{
		Code:       "UPSTREAM_ERROR",
		Message:    fmt.Sprintf("%s request failed", service),
		StatusCode: 502,
		Err:        fmt.Errorf("%w: %v", ErrUpstreamError, err),
	}
}

// NewInternalError creates a 500 error for unexpected failures.
func NewInternalError(err error) *APIError {
	return &APIError{
		Code:       "INTERNAL_ERROR",
		Message:    "an internal error occurred",
		StatusCode: 500,
		Err:        err,
	}
}
