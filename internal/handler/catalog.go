package handler

import (
	"net/http"

	"hoststore/internal/catalog"
	"hoststore/internal/model"
)

// handleProducts returns the fixed AI VPS product line.
// GET /api/products
func (h *Handler) handleProducts(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"products": catalog.Products(),
	})
}

// handleServices returns generated server tiers, optionally filtered by
// category. GET /api/services?category=
func (h *Handler) handleServices(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		h.writeJSON(w, http.StatusOK, map[string]interface{}{
			"services": catalog.AllTiers(),
		})
		return
	}

	c := catalog.Category(category)
	if !c.Valid() {
		h.writeError(w, model.NewValidationError("category",
			"must be one of cloud, gaming, streaming"))
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"services": catalog.GenerateTiers(c),
	})
}
