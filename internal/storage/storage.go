// Package storage provides the visitor-local key/value store backing cart
// persistence and visit counters. The browser kept this state in
// localStorage; the service keeps it in an embedded SQLite database keyed by
// visitor ID so the same keys (cart, visitCount, lastVisit) survive reloads.
package storage

import (
	"context"
	"errors"
)

// Well-known keys. Values are stored as opaque strings: cart holds a JSON
// array of items, visitCount a stringified integer, lastVisit an ISO-8601
// timestamp.
const (
	KeyCart       = "cart"
	KeyVisitCount = "visitCount"
	KeyLastVisit  = "lastVisit"
)

// ErrKeyNotFound is returned by Get when the visitor has no value under the
// requested key.
var ErrKeyNotFound = errors.New("key not found")

// Store is the visitor-scoped key/value persistence boundary.
type Store interface {
	Get(ctx context.Context, visitorID, key string) (string, error)
	Set(ctx context.Context, visitorID, key, value string) error
	Delete(ctx context.Context, visitorID, key string) error
	Close() error
}
