// Package gate implements the access gate: storefront content is withheld
// until a visitor's telemetry collection succeeds. Per-visitor state runs
// loading → {granted, denied}; granted is sticky for the process lifetime,
// denied is retriable by posting another gate attempt.
package gate

import (
	"context"
	"log/slog"

	cmap "github.com/orcaman/concurrent-map/v2"

	"hoststore/internal/telemetry"
)

// Status is a visitor's gate state.
type Status string

const (
	StatusLoading Status = "loading"
	StatusGranted Status = "granted"
	StatusDenied  Status = "denied"
)

// Gate tracks per-visitor access decisions.
type Gate struct {
	collector *telemetry.Collector
	logger    *slog.Logger

	states cmap.ConcurrentMap[string, Status]
}

func New(collector *telemetry.Collector, logger *slog.Logger) *Gate {
	return &Gate{
		collector: collector,
		logger:    logger,
		states:    cmap.New[Status](),
	}
}

// Status returns the visitor's current gate state. Visitors that never
// attempted the gate are loading.
func (g *Gate) Status(visitorID string) Status {
	if s, ok := g.states.Get(visitorID); ok {
		return s
	}
	return StatusLoading
}

// Granted reports whether the visitor has passed the gate.
func (g *Gate) Granted(visitorID string) bool {
	return g.Status(visitorID) == StatusGranted
}

// Attempt runs one gate attempt: the snapshot goes through telemetry
// collection, and success grants access. A failed attempt marks the visitor
// denied unless access was already granted — granted never revokes.
func (g *Gate) Attempt(ctx context.Context, visitorID string, snap telemetry.DeviceSnapshot, meta telemetry.RequestMeta) (*telemetry.Report, error) {
	report, err := g.collector.Collect(ctx, visitorID, snap, meta)
	if err != nil {
		if g.Status(visitorID) != StatusGranted {
			g.states.Set(visitorID, StatusDenied)
		}
		g.logger.Info("gate attempt failed",
			slog.String("visitor_id", visitorID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	g.states.Set(visitorID, StatusGranted)
	return report, nil
}
