// Package identity wraps the external identity provider: account creation
// with verification email, password sign-in with verified-email enforcement,
// and a cached per-visitor session projection with change notifications.
package identity

import (
	"context"

	"hoststore/internal/model"
)

// Provider abstracts the external identity provider's account operations.
// Implementations translate provider-specific failures into the closed auth
// error taxonomy at the boundary; callers only ever see model errors.
type Provider interface {
	// CreateAccount registers a new email/password account.
	// Fails with model.ErrEmailInUse on conflict.
	CreateAccount(ctx context.Context, email, password string) (*model.Session, error)

	// SignIn authenticates an existing account and returns its session
	// projection, including the EmailVerified flag as the provider reports
	// it. Fails with model.ErrUnauthorized for unknown accounts and wrong
	// passwords alike.
	SignIn(ctx context.Context, email, password string) (*model.Session, error)

	// SendVerificationEmail asks the provider to deliver the verification
	// message for a freshly created account.
	SendVerificationEmail(ctx context.Context, userID string) error

	// SignOut revokes the provider-side session for the user.
	SignOut(ctx context.Context, userID string) error
}
