// Package cache provides the lookup cache used by the telemetry collector
// to avoid re-querying public geo services for addresses seen recently.
package cache

import (
	"context"
	"errors"
)

// Cache is a small string cache boundary. Implementations degrade
// gracefully: callers treat any error like a miss.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

var ErrCacheMiss = errors.New("cache miss")
