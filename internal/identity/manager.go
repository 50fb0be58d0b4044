package identity

import (
	"context"
	"log/slog"
	"sync"

	cmap "github.com/orcaman/concurrent-map/v2"

	"hoststore/internal/model"
)

// Subscriber receives session-change notifications. session is nil after a
// sign-out. Callbacks run synchronously on the mutating goroutine; keep them
// cheap.
type Subscriber func(visitorID string, session *model.Session)

// Manager owns the cached session projection per visitor and enforces the
// verified-email invariant: an unverified account is signed out immediately
// and never cached, so dependents never observe it as authenticated.
type Manager struct {
	provider Provider
	logger   *slog.Logger

	sessions cmap.ConcurrentMap[string, *model.Session]

	mu          sync.Mutex
	subscribers []Subscriber
}

func NewManager(provider Provider, logger *slog.Logger) *Manager {
	return &Manager{
		provider: provider,
		logger:   logger,
		sessions: cmap.New[*model.Session](),
	}
}

// Subscribe registers a callback for session changes (sign-in, sign-out).
func (m *Manager) Subscribe(fn Subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}

func (m *Manager) notify(visitorID string, session *model.Session) {
	m.mu.Lock()
	subs := make([]Subscriber, len(m.subscribers))
	copy(subs, m.subscribers)
	m.mu.Unlock()

	for _, fn := range subs {
		fn(visitorID, session)
	}
}

// Current returns the visitor's cached session, or nil when signed out.
func (m *Manager) Current(visitorID string) *model.Session {
	if s, ok := m.sessions.Get(visitorID); ok {
		return s
	}
	return nil
}

// SignUp creates the account and sends the verification email. The session
// is not cached: the account is unverified until the visitor confirms the
// email and signs in.
func (m *Manager) SignUp(ctx context.Context, visitorID, email, password string) error {
	if email == "" {
		return model.NewValidationError("email", "required")
	}
	if len(password) < 6 {
		return model.NewValidationError("password", "must be at least 6 characters")
	}

	session, err := m.provider.CreateAccount(ctx, email, password)
	if err != nil {
		return err
	}

	if err := m.provider.SendVerificationEmail(ctx, session.UserID); err != nil {
		// Account exists; the visitor can request another email by signing
		// in, which will fail verified-email enforcement but re-trigger the
		// provider's own resend path. Log and report upstream failure.
		m.logger.Error("sending verification email failed",
			slog.String("user_id", session.UserID),
			slog.String("error", err.Error()),
		)
		return err
	}

	m.logger.Info("account created",
		slog.String("visitor_id", visitorID),
		slog.String("user_id", session.UserID),
	)
	return nil
}

// SignIn authenticates and caches the session. An unverified account is
// forcibly signed out at the provider and rejected; the visitor is never
// considered authenticated.
func (m *Manager) SignIn(ctx context.Context, visitorID, email, password string) (*model.Session, error) {
	session, err := m.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if !session.EmailVerified {
		if err := m.provider.SignOut(ctx, session.UserID); err != nil {
			m.logger.Warn("forced sign-out of unverified account failed",
				slog.String("user_id", session.UserID),
				slog.String("error", err.Error()),
			)
		}
		return nil, model.NewEmailNotVerifiedError()
	}

	m.sessions.Set(visitorID, session)
	m.notify(visitorID, session)

	m.logger.Info("signed in",
		slog.String("visitor_id", visitorID),
		slog.String("user_id", session.UserID),
	)
	return session, nil
}

// SignOut drops the cached session and revokes it at the provider.
func (m *Manager) SignOut(ctx context.Context, visitorID string) error {
	session := m.Current(visitorID)
	m.sessions.Remove(visitorID)
	m.notify(visitorID, nil)

	if session == nil {
		return nil
	}
	if err := m.provider.SignOut(ctx, session.UserID); err != nil {
		m.logger.Warn("provider sign-out failed",
			slog.String("user_id", session.UserID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}
