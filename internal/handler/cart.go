package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"hoststore/internal/cart"
	"hoststore/internal/catalog"
	"hoststore/internal/model"
)

type cartResponse struct {
	Items []model.CartItem `json:"items"`
	Count int              `json:"count"`
	Total float64          `json:"total"`
}

func toCartResponse(c cart.Cart) cartResponse {
	items := c.Items
	if items == nil {
		items = []model.CartItem{}
	}
	return cartResponse{Items: items, Count: c.Count(), Total: c.Total()}
}

// resolveCatalogItem maps a product or tier ID to its cart representation.
func resolveCatalogItem(id string) (model.CartItem, bool) {
	if p, ok := catalog.FindProduct(id); ok {
		return p.CartItem(), true
	}
	if t, ok := catalog.FindTier(id); ok {
		return t.CartItem(), true
	}
	return model.CartItem{}, false
}

// handleGetCart returns the visitor's cart. GET /api/cart
func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Get(r.Context(), visitor(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toCartResponse(c))
}

type addItemRequest struct {
	ID string `json:"id"`
}

// handleAddItem adds a catalog item to the cart by ID. Adding an ID already
// in the cart is a no-op. POST /api/cart/items
func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.ID == "" {
		h.writeError(w, model.NewValidationError("id", "required"))
		return
	}

	item, ok := resolveCatalogItem(req.ID)
	if !ok {
		h.writeError(w, model.NewNotFoundError("product"))
		return
	}

	c, added, err := h.carts.Add(r.Context(), visitor(r), item)
	if err != nil {
		h.writeError(w, err)
		return
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	h.writeJSON(w, status, toCartResponse(c))
}

// handleRemoveItem drops one item from the cart.
// DELETE /api/cart/items/{id}
func (h *Handler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Remove(r.Context(), visitor(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toCartResponse(c))
}

type replaceCartRequest struct {
	Items []addItemRequest `json:"items"`
}

// handleReplaceCart reconciles the cart to the posted contents (full PUT
// semantics). PUT /api/cart
func (h *Handler) handleReplaceCart(w http.ResponseWriter, r *http.Request) {
	var req replaceCartRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	desired := make([]model.CartItem, 0, len(req.Items))
	for _, entry := range req.Items {
		item, ok := resolveCatalogItem(entry.ID)
		if !ok {
			h.writeError(w, model.NewNotFoundError("product"))
			return
		}
		desired = append(desired, item)
	}

	c, _, err := h.carts.Replace(r.Context(), visitor(r), desired)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toCartResponse(c))
}

// handleClearCart empties the cart. DELETE /api/cart
func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Clear(r.Context(), visitor(r)); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
