// Package cart implements the visitor cart: an ordered set of line items
// keyed by product ID, persisted to visitor storage on every mutation and
// restored from it on first access.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"hoststore/internal/model"
	"hoststore/internal/storage"
)

// Cart is a snapshot of a visitor's cart contents.
type Cart struct {
	Items []model.CartItem `json:"items"`
}

// Count returns the number of line items.
func (c Cart) Count() int { return len(c.Items) }

// Total returns the arithmetic sum of item prices. No rounding is applied
// beyond display formatting; the storefront sells flat monthly prices.
func (c Cart) Total() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.Price
	}
	return total
}

// Contains reports whether an item with the given ID is present.
func (c Cart) Contains(id string) bool {
	for _, item := range c.Items {
		if item.ID == id {
			return true
		}
	}
	return false
}

// Store manages cart persistence per visitor.
type Store struct {
	storage storage.Store
	logger  *slog.Logger
}

func NewStore(st storage.Store, logger *slog.Logger) *Store {
	return &Store{storage: st, logger: logger}
}

// Get restores the visitor's cart from storage. A visitor with no persisted
// cart gets an empty one.
func (s *Store) Get(ctx context.Context, visitorID string) (Cart, error) {
	raw, err := s.storage.Get(ctx, visitorID, storage.KeyCart)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return Cart{}, nil
	}
	if err != nil {
		return Cart{}, fmt.Errorf("restoring cart: %w", err)
	}

	var items []model.CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		// A corrupt persisted cart is unrecoverable; start over rather
		// than wedge every cart operation for this visitor.
		s.logger.Warn("discarding corrupt persisted cart",
			slog.String("visitor_id", visitorID),
			slog.String("error", err.Error()),
		)
		return Cart{}, nil
	}
	return Cart{Items: items}, nil
}

// Add appends the item unless its ID is already present (set semantics).
// Returns the updated cart and whether the item was actually added.
func (s *Store) Add(ctx context.Context, visitorID string, item model.CartItem) (Cart, bool, error) {
	if item.ID == "" {
		return Cart{}, false, model.NewValidationError("id", "item ID required")
	}
	if item.Price < 0 {
		return Cart{}, false, model.NewValidationError("price", "must be non-negative")
	}

	c, err := s.Get(ctx, visitorID)
	if err != nil {
		return Cart{}, false, err
	}
	if c.Contains(item.ID) {
		return c, false, nil
	}

	c.Items = append(c.Items, item)
	if err := s.persist(ctx, visitorID, c); err != nil {
		return Cart{}, false, err
	}
	return c, true, nil
}

// Remove drops the item with the given ID, if present.
func (s *Store) Remove(ctx context.Context, visitorID, itemID string) (Cart, error) {
	c, err := s.Get(ctx, visitorID)
	if err != nil {
		return Cart{}, err
	}

	kept := c.Items[:0]
	for _, item := range c.Items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	c.Items = kept

	if err := s.persist(ctx, visitorID, c); err != nil {
		return Cart{}, err
	}
	return c, nil
}

// Clear empties the cart and removes its persisted representation entirely,
// so a subsequent restore yields an empty cart.
func (s *Store) Clear(ctx context.Context, visitorID string) error {
	if err := s.storage.Delete(ctx, visitorID, storage.KeyCart); err != nil {
		return fmt.Errorf("clearing cart: %w", err)
	}
	return nil
}

// Replace reconciles the cart to the desired contents (full-replace PUT
// semantics) and reports the operations applied.
func (s *Store) Replace(ctx context.Context, visitorID string, desired []model.CartItem) (Cart, *Diff, error) {
	current, err := s.Get(ctx, visitorID)
	if err != nil {
		return Cart{}, nil, err
	}

	diff := DiffItems(current.Items, desired)
	if diff.IsEmpty() {
		return current, diff, nil
	}

	next := Cart{}
	removed := make(map[string]bool, len(diff.ToRemove))
	for _, id := range diff.ToRemove {
		removed[id] = true
	}
	for _, item := range current.Items {
		if !removed[item.ID] {
			next.Items = append(next.Items, item)
		}
	}
	next.Items = append(next.Items, diff.ToAdd...)

	if err := s.persist(ctx, visitorID, next); err != nil {
		return Cart{}, nil, err
	}
	return next, diff, nil
}

func (s *Store) persist(ctx context.Context, visitorID string, c Cart) error {
	items := c.Items
	if items == nil {
		items = []model.CartItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encoding cart: %w", err)
	}
	if err := s.storage.Set(ctx, visitorID, storage.KeyCart, string(raw)); err != nil {
		return fmt.Errorf("persisting cart: %w", err)
	}
	return nil
}
