package gate

import (
	"encoding/json"
	"net/http"
	"strings"

	"hoststore/internal/middleware"
)

// Middleware blocks storefront content routes until the visitor's gate state
// is granted. Gate, health, discovery, and payment-return routes stay open —
// the gate attempt itself and the gateway's redirects must always get
// through.
func Middleware(g *Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isExemptPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			visitorID := middleware.VisitorID(r.Context())
			if visitorID == "" || !g.Granted(visitorID) {
				writeGateError(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isExemptPath returns true for routes that must work before access is
// granted.
func isExemptPath(path string) bool {
	switch {
	case path == "/api/gate":
		return true
	case path == "/health" || path == "/healthz":
		return true
	case path == "/.well-known/store":
		return true
	case strings.HasPrefix(path, "/payment/"):
		return true
	// Agent clients have no browser to run the gate probes in
	case path == "/mcp" || strings.HasPrefix(path, "/mcp/"):
		return true
	default:
		return false
	}
}

func writeGateError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)

	resp := struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}{}
	resp.Error.Code = "ACCESS_GATE"
	resp.Error.Message = "complete the access check to continue"

	json.NewEncoder(w).Encode(resp)
}
