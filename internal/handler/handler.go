// Package handler provides the HTTP surface of the storefront service.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hoststore/internal/cart"
	"hoststore/internal/catalog"
	"hoststore/internal/checkout"
	"hoststore/internal/gate"
	"hoststore/internal/identity"
	"hoststore/internal/middleware"
	"hoststore/internal/model"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	gate     *gate.Gate
	carts    *cart.Store
	sessions *identity.Manager
	flow     *checkout.Flow
	logger   *slog.Logger

	storeName string
}

func New(g *gate.Gate, carts *cart.Store, sessions *identity.Manager,
	flow *checkout.Flow, storeName string, logger *slog.Logger) *Handler {
	return &Handler{
		gate:      g,
		carts:     carts,
		sessions:  sessions,
		flow:      flow,
		logger:    logger,
		storeName: storeName,
	}
}

// Routes builds the service router. The access-gate middleware is layered
// outside this router so these handlers only ever see admitted visitors (or
// exempt paths).
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/.well-known/store", h.handleWellKnown)
	r.Get("/health", h.handleHealth)
	r.Get("/healthz", h.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/gate", h.handleGateAttempt)
		r.Get("/gate", h.handleGateStatus)

		r.Get("/products", h.handleProducts)
		r.Get("/services", h.handleServices)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.handleGetCart)
			r.Put("/", h.handleReplaceCart)
			r.Delete("/", h.handleClearCart)
			r.Post("/items", h.handleAddItem)
			r.Delete("/items/{id}", h.handleRemoveItem)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", h.handleSignUp)
			r.Post("/signin", h.handleSignIn)
			r.Post("/signout", h.handleSignOut)
			r.Get("/session", h.handleSession)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", h.handleCheckoutStatus)
			r.Post("/proceed", h.handleProceed)
			r.Post("/pay", h.handlePay)
			r.Post("/reset", h.handleCheckoutReset)
		})
	})

	r.Get("/payment/callback", h.handlePaymentCallback)
	r.Get("/payment/success", h.handlePaymentSuccess)
	r.Get("/payment/failed", h.handlePaymentFailed)

	r.Mount("/mcp", h.NewMCPHandler())

	return r
}

// === Response Helpers ===

// writeJSON sends a JSON response with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError sends an error response, extracting status/code from APIError if present.
// Uses errors.As() to unwrap error chains (e.g., fmt.Errorf wrapping).
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError

	if errors.As(err, &apiErr) {
		// Found APIError in error chain - use it
	} else {
		// Wrap unexpected errors
		apiErr = &model.APIError{
			Code:       "INTERNAL_ERROR",
			Message:    "an internal error occurred",
			StatusCode: http.StatusInternalServerError,
		}
		h.logger.Error("internal error", slog.String("error", err.Error()))
	}

	h.writeJSON(w, apiErr.StatusCode, errorResponse{
		Error: errorBody{
			Code:    apiErr.Code,
			Message: apiErr.Message,
		},
	})
}

// errorResponse is the JSON structure for error responses.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MaxRequestBodySize limits JSON request bodies to 1MB to prevent DoS.
const MaxRequestBodySize = 1 << 20 // 1MB

// decodeJSON reads JSON from request body into v.
// Limits body size to MaxRequestBodySize to prevent memory exhaustion.
// Returns an APIError if decoding fails.
func decodeJSON(r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, MaxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// Don't expose internal error details to client
		return model.NewValidationError("body", "invalid JSON")
	}
	return nil
}

// visitor returns the request's visitor ID as assigned by the middleware.
func visitor(r *http.Request) string {
	return middleware.VisitorID(r.Context())
}

// === Discovery & Health ===

// handleWellKnown returns the storefront discovery document.
// GET /.well-known/store
func (h *Handler) handleWellKnown(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":     h.storeName,
		"currency": "USD",
		"version":  "1.0.0",
		"categories": func() []string {
			names := make([]string, 0, len(catalog.Categories))
			for _, c := range catalog.Categories {
				names = append(names, string(c))
			}
			return names
		}(),
		"endpoints": map[string]string{
			"gate":     "/api/gate",
			"products": "/api/products",
			"services": "/api/services",
			"cart":     "/api/cart",
			"checkout": "/api/checkout",
			"mcp":      "/mcp",
		},
	})
}

// handleHealth returns a simple health check response.
// GET /health, GET /healthz
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

type healthResponse struct {
	Status string `json:"status"`
}
