package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hoststore/internal/model"
)

// Client implements Provider against an identity-toolkit style REST API
// (accounts:signUp, accounts:signInWithPassword, accounts:sendOobCode).
// All requests carry the project API key as a query parameter.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Config holds identity provider connection settings.
type Config struct {
	BaseURL string // e.g. https://identitytoolkit.googleapis.com
	APIKey  string
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("identity base URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("identity API key is required")
	}
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
	}, nil
}

// accountResponse is the subset of the provider's account payload we use.
type accountResponse struct {
	LocalID       string `json:"localId"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	EmailVerified bool   `json:"emailVerified"`
	IDToken       string `json:"idToken"`
}

// providerError is the provider's error envelope.
type providerError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) CreateAccount(ctx context.Context, email, password string) (*model.Session, error) {
	var acct accountResponse
	err := c.post(ctx, "accounts:signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &acct)
	if err != nil {
		return nil, err
	}
	return sessionFromAccount(&acct), nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	var acct accountResponse
	err := c.post(ctx, "accounts:signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &acct)
	if err != nil {
		return nil, err
	}

	// signInWithPassword does not include the verification flag; look it up
	// so callers can enforce the verified-email invariant.
	verified, err := c.lookupVerified(ctx, acct.IDToken)
	if err != nil {
		return nil, err
	}

	session := sessionFromAccount(&acct)
	session.EmailVerified = verified
	return session, nil
}

func (c *Client) SendVerificationEmail(ctx context.Context, userID string) error {
	return c.post(ctx, "accounts:sendOobCode", map[string]any{
		"requestType": "VERIFY_EMAIL",
		"localId":     userID,
	}, nil)
}

func (c *Client) SignOut(ctx context.Context, userID string) error {
	// Token revocation: invalidates all refresh tokens for the user.
	return c.post(ctx, "accounts:update", map[string]any{
		"localId":    userID,
		"validSince": fmt.Sprintf("%d", time.Now().Unix()),
	}, nil)
}

func (c *Client) lookupVerified(ctx context.Context, idToken string) (bool, error) {
	var resp struct {
		Users []accountResponse `json:"users"`
	}
	err := c.post(ctx, "accounts:lookup", map[string]any{"idToken": idToken}, &resp)
	if err != nil {
		return false, err
	}
	if len(resp.Users) == 0 {
		return false, model.NewUpstreamError("identity provider", fmt.Errorf("empty lookup response"))
	}
	return resp.Users[0].EmailVerified, nil
}

// post executes one provider call and decodes the response into out.
// Provider error codes are translated to the domain taxonomy here so the
// SDK's error shapes never leak past this file.
func (c *Client) post(ctx context.Context, endpoint string, body map[string]any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/%s?key=%s", c.baseURL, endpoint, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.NewUpstreamError("identity provider", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return model.NewUpstreamError("identity provider", err)
	}

	if resp.StatusCode >= 400 {
		return translateError(resp.StatusCode, raw)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return model.NewUpstreamError("identity provider", fmt.Errorf("decoding response: %w", err))
		}
	}
	return nil
}

// translateError maps the provider's string error codes onto the closed auth
// taxonomy. Unknown codes degrade to an upstream error.
func translateError(status int, raw []byte) error {
	var pe providerError
	if err := json.Unmarshal(raw, &pe); err != nil {
		return model.NewUpstreamError("identity provider", fmt.Errorf("status %d", status))
	}

	// Messages may carry suffixes, e.g. "EMAIL_EXISTS : ...".
	code := pe.Error.Message
	if i := strings.IndexAny(code, " :"); i > 0 {
		code = code[:i]
	}

	switch code {
	case "EMAIL_EXISTS":
		return model.NewEmailInUseError()
	case "EMAIL_NOT_FOUND":
		return model.NewCredentialsError("no account found with this email, sign up first")
	case "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS":
		return model.NewCredentialsError("incorrect email or password")
	case "USER_DISABLED":
		return model.NewCredentialsError("this account has been disabled")
	default:
		return model.NewUpstreamError("identity provider", fmt.Errorf("%s (status %d)", code, status))
	}
}

func sessionFromAccount(acct *accountResponse) *model.Session {
	return &model.Session{
		UserID:        acct.LocalID,
		Email:         acct.Email,
		DisplayName:   acct.DisplayName,
		EmailVerified: acct.EmailVerified,
	}
}
