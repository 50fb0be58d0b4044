package handler

import (
	"net/http"

	"hoststore/internal/model"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleSignUp creates an account and sends the verification email. The
// visitor is not signed in; they must verify the address first.
// POST /api/auth/signup
func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.sessions.SignUp(r.Context(), visitor(r), req.Email, req.Password); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]string{
		"message": "account created, check your email to verify your address",
	})
}

// handleSignIn authenticates the visitor. A sign-in during checkout advances
// the flow from auth to payment. POST /api/auth/signin
func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	session, err := h.flow.SignIn(r.Context(), visitor(r), req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, sessionResponse{
		Authenticated: true,
		Session:       session,
	})
}

// handleSignOut drops the visitor's session. POST /api/auth/signout
func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.SignOut(r.Context(), visitor(r)); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sessionResponse struct {
	Authenticated bool           `json:"authenticated"`
	Session       *model.Session `json:"session,omitempty"`
}

// handleSession returns the visitor's current session, if any.
// GET /api/auth/session
func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.Current(visitor(r))
	h.writeJSON(w, http.StatusOK, sessionResponse{
		Authenticated: session != nil,
		Session:       session,
	})
}
