package cart

import "hoststore/internal/model"

// Diff describes the mutations needed to reconcile a cart to a desired
// state. Carts are flat sets keyed by item ID, so the delta is adds and
// removes only; there are no quantities to update.
type Diff struct {
	ToAdd    []model.CartItem // in desired but not current
	ToRemove []string         // item IDs in current but not desired
}

// IsEmpty returns true if no changes are needed.
func (d *Diff) IsEmpty() bool {
	return len(d.ToAdd) == 0 && len(d.ToRemove) == 0
}

// DiffItems computes the delta between current and desired cart contents.
// Matching is by item ID. Duplicate IDs in desired collapse to the first
// occurrence, preserving the cart's set semantics.
func DiffItems(current, desired []model.CartItem) *Diff {
	diff := &Diff{}

	currentByID := make(map[string]bool, len(current))
	for _, item := range current {
		currentByID[item.ID] = true
	}

	desiredByID := make(map[string]bool, len(desired))
	for _, item := range desired {
		if desiredByID[item.ID] {
			continue
		}
		desiredByID[item.ID] = true
		if !currentByID[item.ID] {
			diff.ToAdd = append(diff.ToAdd, item)
		}
	}

	for _, item := range current {
		if !desiredByID[item.ID] {
			diff.ToRemove = append(diff.ToRemove, item.ID)
		}
	}

	return diff
}
