package handler

import (
	"net/http"

	"hoststore/internal/checkout"
	"hoststore/internal/model"
)

type checkoutResponse struct {
	State checkout.State      `json:"state"`
	Steps []checkout.StepInfo `json:"steps"`
}

// handleCheckoutStatus returns the visitor's checkout state and the step
// list for progress rendering. GET /api/checkout
func (h *Handler) handleCheckoutStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, checkoutResponse{
		State: h.flow.Status(visitor(r)),
		Steps: checkout.StepList,
	})
}

// handleProceed advances from the cart step, skipping auth for verified
// sessions. POST /api/checkout/proceed
func (h *Handler) handleProceed(w http.ResponseWriter, r *http.Request) {
	step, err := h.flow.Proceed(r.Context(), visitor(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]model.CheckoutStep{"step": step})
}

// handlePay creates the payment session and returns the gateway URL the
// client must navigate to. POST /api/checkout/pay
func (h *Handler) handlePay(w http.ResponseWriter, r *http.Request) {
	state, err := h.flow.Pay(r.Context(), visitor(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{
		"order_id":    state.OrderID,
		"payment_url": state.PaymentURL,
	})
}

// handleCheckoutReset returns the visitor to the cart step, used after the
// confirmation page has been shown. POST /api/checkout/reset
func (h *Handler) handleCheckoutReset(w http.ResponseWriter, r *http.Request) {
	state := h.flow.Reset(visitor(r))
	h.writeJSON(w, http.StatusOK, map[string]model.CheckoutStep{"step": state.Step})
}

// handlePaymentCallback is the gateway's return redirect. A successful
// payment confirms the order in-app (cart cleared, flow at confirmation);
// anything else returns the flow to the payment step for retry.
// GET /payment/callback?status=
func (h *Handler) handlePaymentCallback(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("status") {
	case "success", "paid", "completed":
		http.Redirect(w, r, "/payment/success", http.StatusSeeOther)
	default:
		http.Redirect(w, r, "/payment/failed", http.StatusSeeOther)
	}
}

// handlePaymentSuccess confirms the pending order. GET /payment/success
func (h *Handler) handlePaymentSuccess(w http.ResponseWriter, r *http.Request) {
	state, err := h.flow.Confirm(r.Context(), visitor(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"step":     state.Step,
		"order_id": state.OrderID,
		"message":  "payment received, your order is being processed",
	})
}

// handlePaymentFailed records the failed gateway return; the visitor can
// retry from the payment step. GET /payment/failed
func (h *Handler) handlePaymentFailed(w http.ResponseWriter, r *http.Request) {
	state := h.flow.Fail(visitor(r))
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"step":    state.Step,
		"message": "payment was not completed, you can retry",
	})
}
