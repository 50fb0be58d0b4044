package handler

import (
	"net/http"

	"hoststore/internal/gate"
	"hoststore/internal/telemetry"
)

type gateResponse struct {
	Status     gate.Status `json:"status"`
	VisitCount int         `json:"visit_count,omitempty"`
}

// handleGateAttempt runs one access-gate attempt from a posted device
// snapshot. POST /api/gate
func (h *Handler) handleGateAttempt(w http.ResponseWriter, r *http.Request) {
	var snap telemetry.DeviceSnapshot
	if err := decodeJSON(r, &snap); err != nil {
		h.writeError(w, err)
		return
	}

	report, err := h.gate.Attempt(r.Context(), visitor(r), snap, telemetry.MetaFromRequest(r))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, gateResponse{
		Status:     gate.StatusGranted,
		VisitCount: report.VisitCount,
	})
}

// handleGateStatus returns the visitor's current gate state.
// GET /api/gate
func (h *Handler) handleGateStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, gateResponse{Status: h.gate.Status(visitor(r))})
}
