package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hoststore/internal/cache"
	"hoststore/internal/cart"
	"hoststore/internal/checkout"
	"hoststore/internal/gate"
	"hoststore/internal/identity"
	"hoststore/internal/middleware"
	"hoststore/internal/model"
	"hoststore/internal/payment"
	"hoststore/internal/relay"
	"hoststore/internal/storage"
	"hoststore/internal/telemetry"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubProvider backs the session manager with canned accounts.
type stubProvider struct {
	verified map[string]bool
}

func (p *stubProvider) CreateAccount(_ context.Context, email, _ string) (*model.Session, error) {
	return &model.Session{UserID: "u-" + email, Email: email}, nil
}

func (p *stubProvider) SignIn(_ context.Context, email, password string) (*model.Session, error) {
	if password != "correct-horse" {
		return nil, model.NewCredentialsError("invalid email or password")
	}
	return &model.Session{
		UserID:        "u-" + email,
		Email:         email,
		DisplayName:   "Test Customer",
		EmailVerified: p.verified[email],
	}, nil
}

func (p *stubProvider) SendVerificationEmail(context.Context, string) error { return nil }
func (p *stubProvider) SignOut(context.Context, string) error               { return nil }

type stubGateway struct {
	resp *model.PaymentResponse
	err  error
}

func (g *stubGateway) CreatePayment(context.Context, payment.Order) (*model.PaymentResponse, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.resp, nil
}

type fixture struct {
	srv     http.Handler
	gateway *stubGateway
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := testLogger()
	st := storage.NewMemoryStore()
	carts := cart.NewStore(st, logger)
	sessions := identity.NewManager(&stubProvider{
		verified: map[string]bool{"buyer@example.com": true},
	}, logger)
	gateway := &stubGateway{
		resp: &model.PaymentResponse{
			Status:     "success",
			PaymentURL: "https://pay.example.com/session/xyz",
		},
	}
	flow := checkout.NewFlow(carts, sessions, gateway,
		relay.Discard{}, checkout.LogMailer{Logger: logger}, logger)

	collector := telemetry.NewCollector(st,
		telemetry.NewEnricher(http.DefaultTransport, cache.Noop{}, logger),
		relay.Discard{}, logger)
	g := gate.New(collector, logger)

	h := New(g, carts, sessions, flow, "Test Store", logger)

	return &fixture{
		srv:     middleware.Visitor()(h.Routes()),
		gateway: gateway,
	}
}

// do issues a request as the given visitor and decodes the JSON body into out
// when out is non-nil.
func (f *fixture) do(t *testing.T, method, path, visitorID string, body, out interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if visitorID != "" {
		req.AddCookie(&http.Cookie{Name: middleware.VisitorCookie, Value: visitorID})
	}
	// Keep the geo enricher offline in tests
	req.Header.Set("X-Forwarded-For", "invalid")
	req.RemoteAddr = "invalid"

	w := httptest.NewRecorder()
	f.srv.ServeHTTP(w, req)

	if out != nil {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out),
			"body: %s", w.Body.String())
	}
	return w
}

func TestWellKnown(t *testing.T) {
	f := newFixture(t)

	var doc map[string]interface{}
	w := f.do(t, "GET", "/.well-known/store", "", nil, &doc)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Test Store", doc["name"])
	assert.Equal(t, "USD", doc["currency"])
	assert.ElementsMatch(t, []interface{}{"cloud", "gaming", "streaming"}, doc["categories"])
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, "GET", "/health", "", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestListProducts(t *testing.T) {
	f := newFixture(t)

	var resp struct {
		Products []model.CartItem `json:"products"`
	}
	w := f.do(t, "GET", "/api/products", "v1", nil, &resp)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp.Products, 3)
	assert.Equal(t, "AI Development VPS", resp.Products[0].Name)
}

func TestListServicesByCategory(t *testing.T) {
	f := newFixture(t)

	var resp struct {
		Services []struct {
			ID       string `json:"id"`
			Category string `json:"category"`
		} `json:"services"`
	}
	w := f.do(t, "GET", "/api/services?category=gaming", "v1", nil, &resp)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp.Services, 14)
	for _, s := range resp.Services {
		assert.Equal(t, "gaming", s.Category)
	}
}

func TestListServicesAll(t *testing.T) {
	f := newFixture(t)

	var resp struct {
		Services []json.RawMessage `json:"services"`
	}
	w := f.do(t, "GET", "/api/services", "v1", nil, &resp)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp.Services, 42)
}

func TestListServicesInvalidCategory(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, "GET", "/api/services?category=quantum", "v1", nil, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}

func TestCartLifecycle(t *testing.T) {
	f := newFixture(t)

	var c cartResponse
	w := f.do(t, "GET", "/api/cart", "v1", nil, &c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, c.Count)
	assert.NotNil(t, c.Items)

	// First add creates the entry
	w = f.do(t, "POST", "/api/cart/items", "v1", addItemRequest{ID: "1"}, &c)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, c.Count)
	assert.Equal(t, 49.99, c.Total)

	// Adding the same ID again is a no-op
	w = f.do(t, "POST", "/api/cart/items", "v1", addItemRequest{ID: "1"}, &c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, c.Count)

	w = f.do(t, "POST", "/api/cart/items", "v1", addItemRequest{ID: "cloud-basic-2"}, &c)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 2, c.Count)

	w = f.do(t, "DELETE", "/api/cart/items/1", "v1", nil, &c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, c.Count)
	assert.Equal(t, "cloud-basic-2", c.Items[0].ID)

	w = f.do(t, "DELETE", "/api/cart", "v1", nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	f.do(t, "GET", "/api/cart", "v1", nil, &c)
	assert.Equal(t, 0, c.Count)
}

func TestAddUnknownProduct(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, "POST", "/api/cart/items", "v1", addItemRequest{ID: "nope"}, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_FOUND")
}

func TestReplaceCart(t *testing.T) {
	f := newFixture(t)

	var c cartResponse
	f.do(t, "POST", "/api/cart/items", "v1", addItemRequest{ID: "1"}, &c)

	w := f.do(t, "PUT", "/api/cart", "v1", replaceCartRequest{
		Items: []addItemRequest{{ID: "2"}, {ID: "gaming-pro-16"}},
	}, &c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, c.Count)
	assert.False(t, containsItem(c.Items, "1"))
	assert.True(t, containsItem(c.Items, "2"))
	assert.True(t, containsItem(c.Items, "gaming-pro-16"))
}

func containsItem(items []model.CartItem, id string) bool {
	for _, it := range items {
		if it.ID == id {
			return true
		}
	}
	return false
}

func TestCartIsolationBetweenVisitors(t *testing.T) {
	f := newFixture(t)

	var c cartResponse
	f.do(t, "POST", "/api/cart/items", "v1", addItemRequest{ID: "1"}, &c)
	require.Equal(t, 1, c.Count)

	f.do(t, "GET", "/api/cart", "v2", nil, &c)
	assert.Equal(t, 0, c.Count)
}

func TestSignUp(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, "POST", "/api/auth/signup", "v1",
		credentialsRequest{Email: "new@example.com", Password: "secret123"}, nil)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "verify")

	// Sign-up alone does not create a session
	var sess sessionResponse
	f.do(t, "GET", "/api/auth/session", "v1", nil, &sess)
	assert.False(t, sess.Authenticated)
}

func TestSignInAndSession(t *testing.T) {
	f := newFixture(t)

	var resp sessionResponse
	w := f.do(t, "POST", "/api/auth/signin", "v1",
		credentialsRequest{Email: "buyer@example.com", Password: "correct-horse"}, &resp)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Authenticated)
	require.NotNil(t, resp.Session)
	assert.Equal(t, "buyer@example.com", resp.Session.Email)

	f.do(t, "GET", "/api/auth/session", "v1", nil, &resp)
	assert.True(t, resp.Authenticated)

	w = f.do(t, "POST", "/api/auth/signout", "v1", nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	f.do(t, "GET", "/api/auth/session", "v1", nil, &resp)
	assert.False(t, resp.Authenticated)
}

func TestSignInWrongPassword(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, "POST", "/api/auth/signin", "v1",
		credentialsRequest{Email: "buyer@example.com", Password: "wrong"}, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_CREDENTIALS")
}

func TestSignInUnverifiedEmail(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, "POST", "/api/auth/signin", "v1",
		credentialsRequest{Email: "fresh@example.com", Password: "correct-horse"}, nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "EMAIL_NOT_VERIFIED")

	// The rejected sign-in leaves no session behind
	var sess sessionResponse
	f.do(t, "GET", "/api/auth/session", "v1", nil, &sess)
	assert.False(t, sess.Authenticated)
}

func TestInvalidJSONBody(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest("POST", "/api/cart/items", bytes.NewReader([]byte("{broken")))
	req.AddCookie(&http.Cookie{Name: middleware.VisitorCookie, Value: "v1"})
	w := httptest.NewRecorder()
	f.srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid JSON")
}

func TestGateStatusAndAttempt(t *testing.T) {
	f := newFixture(t)

	var resp gateResponse
	f.do(t, "GET", "/api/gate", "v1", nil, &resp)
	assert.Equal(t, gate.StatusLoading, resp.Status)

	// Missing GPS location denies access
	w := f.do(t, "POST", "/api/gate", "v1",
		telemetry.DeviceSnapshot{UserAgent: "ua"}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "LOCATION_REQUIRED")

	f.do(t, "GET", "/api/gate", "v1", nil, &resp)
	assert.Equal(t, gate.StatusDenied, resp.Status)

	// A snapshot with location grants access
	w = f.do(t, "POST", "/api/gate", "v1", telemetry.DeviceSnapshot{
		UserAgent: "ua",
		Location:  &model.GeoPosition{Latitude: 1, Longitude: 2},
	}, &resp)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, gate.StatusGranted, resp.Status)
	assert.Equal(t, 1, resp.VisitCount)
}

func TestCheckoutHappyPath(t *testing.T) {
	f := newFixture(t)

	var c cartResponse
	f.do(t, "POST", "/api/cart/items", "v1", addItemRequest{ID: "1"}, &c)

	f.do(t, "POST", "/api/auth/signin", "v1",
		credentialsRequest{Email: "buyer@example.com", Password: "correct-horse"}, nil)

	var step struct {
		Step model.CheckoutStep `json:"step"`
	}
	w := f.do(t, "POST", "/api/checkout/proceed", "v1", nil, &step)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.StepPayment, step.Step)

	var pay struct {
		OrderID    string `json:"order_id"`
		PaymentURL string `json:"payment_url"`
	}
	w = f.do(t, "POST", "/api/checkout/pay", "v1", nil, &pay)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Regexp(t, `^[0-9A-F]{8}$`, pay.OrderID)
	assert.Equal(t, "https://pay.example.com/session/xyz", pay.PaymentURL)

	// Gateway return redirect lands on the success page
	w = f.do(t, "GET", "/payment/callback?status=success", "v1", nil, nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/payment/success", w.Header().Get("Location"))

	var done struct {
		Step    model.CheckoutStep `json:"step"`
		OrderID string             `json:"order_id"`
	}
	w = f.do(t, "GET", "/payment/success", "v1", nil, &done)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.StepConfirmation, done.Step)
	assert.Equal(t, pay.OrderID, done.OrderID)

	// Order completion empties the cart
	f.do(t, "GET", "/api/cart", "v1", nil, &c)
	assert.Equal(t, 0, c.Count)
}

func TestCheckoutProceedUnauthenticated(t *testing.T) {
	f := newFixture(t)

	var c cartResponse
	f.do(t, "POST", "/api/cart/items", "v1", addItemRequest{ID: "1"}, &c)

	var step struct {
		Step model.CheckoutStep `json:"step"`
	}
	w := f.do(t, "POST", "/api/checkout/proceed", "v1", nil, &step)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.StepAuth, step.Step)
}

func TestCheckoutProceedEmptyCart(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, "POST", "/api/checkout/proceed", "v1", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "cart is empty")
}

func TestPayFromWrongStep(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, "POST", "/api/checkout/pay", "v1", nil, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_STEP")
}

func TestPaymentFailedReturn(t *testing.T) {
	f := newFixture(t)

	var c cartResponse
	f.do(t, "POST", "/api/cart/items", "v1", addItemRequest{ID: "1"}, &c)
	f.do(t, "POST", "/api/auth/signin", "v1",
		credentialsRequest{Email: "buyer@example.com", Password: "correct-horse"}, nil)
	f.do(t, "POST", "/api/checkout/proceed", "v1", nil, nil)
	f.do(t, "POST", "/api/checkout/pay", "v1", nil, nil)

	// A non-success gateway return redirects to the failure page
	w := f.do(t, "GET", "/payment/callback?status=cancelled", "v1", nil, nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/payment/failed", w.Header().Get("Location"))

	var failed struct {
		Step model.CheckoutStep `json:"step"`
	}
	w = f.do(t, "GET", "/payment/failed", "v1", nil, &failed)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.StepPayment, failed.Step)

	// Cart survives the failed payment
	f.do(t, "GET", "/api/cart", "v1", nil, &c)
	assert.Equal(t, 1, c.Count)
}

func TestCheckoutResetAfterConfirmation(t *testing.T) {
	f := newFixture(t)

	var c cartResponse
	f.do(t, "POST", "/api/cart/items", "v1", addItemRequest{ID: "1"}, &c)
	f.do(t, "POST", "/api/auth/signin", "v1",
		credentialsRequest{Email: "buyer@example.com", Password: "correct-horse"}, nil)
	f.do(t, "POST", "/api/checkout/proceed", "v1", nil, nil)
	f.do(t, "POST", "/api/checkout/pay", "v1", nil, nil)
	f.do(t, "GET", "/payment/success", "v1", nil, nil)

	var step struct {
		Step model.CheckoutStep `json:"step"`
	}
	w := f.do(t, "POST", "/api/checkout/reset", "v1", nil, &step)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.StepCart, step.Step)
}

func TestCheckoutStatus(t *testing.T) {
	f := newFixture(t)

	var resp checkoutResponse
	w := f.do(t, "GET", "/api/checkout", "v1", nil, &resp)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.StepCart, resp.State.Step)
	require.Len(t, resp.Steps, 4)
	assert.Equal(t, "Review Cart", resp.Steps[0].Title)
}
