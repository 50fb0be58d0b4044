package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"hoststore/internal/model"
	"hoststore/internal/relay"
	"hoststore/internal/storage"
)

// Report is one complete visit record: the client's snapshot, the
// server-side derivations, and the persisted visit counters.
type Report struct {
	Snapshot DeviceSnapshot
	Identity BrowserIdentity

	IPv4 string
	IPv6 string
	Geo  GeoDetails

	VisitCount int
	LastVisit  string // previous visit, ISO-8601; empty on first visit
	VisitTime  time.Time
}

// Collector assembles visit reports and relays them.
type Collector struct {
	store    storage.Store
	enricher *Enricher
	notifier relay.Notifier
	logger   *slog.Logger

	now func() time.Time
}

func NewCollector(store storage.Store, enricher *Enricher, notifier relay.Notifier, logger *slog.Logger) *Collector {
	return &Collector{
		store:    store,
		enricher: enricher,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Collect builds a visit report from the posted snapshot. A missing GPS fix
// is the only fatal condition; all other signals degrade to sentinels. On
// success the visit counter is bumped, the last-visit timestamp stamped, and
// the formatted report relayed fire-and-forget.
func (c *Collector) Collect(ctx context.Context, visitorID string, snap DeviceSnapshot, meta RequestMeta) (*Report, error) {
	if snap.Location == nil {
		return nil, model.NewLocationError("location access is required, allow it and retry")
	}

	ipv4, ipv6 := NewResolver(meta).Resolve(ctx)
	geo := c.enricher.Lookup(ctx, ipv4)

	visitCount, lastVisit := c.bumpVisitCounters(ctx, visitorID)

	report := &Report{
		Snapshot:   snap,
		Identity:   IdentityFromHeaders(meta.Header, snap.UserAgent),
		IPv4:       ipv4,
		IPv6:       ipv6,
		Geo:        geo,
		VisitCount: visitCount,
		LastVisit:  lastVisit,
		VisitTime:  c.now(),
	}

	// Relay must never block or fail the collection.
	message := FormatReport(report)
	go c.notifier.Send(context.WithoutCancel(ctx), message)

	c.logger.Info("visit collected",
		slog.String("visitor", visitorID),
		slog.Int("visit_count", visitCount),
		slog.String("ipv4", ipv4),
		slog.String("country", geo.Country),
	)
	return report, nil
}

// bumpVisitCounters increments the persisted visit counter and swaps the
// last-visit timestamp, returning the new count and the previous timestamp.
// Storage failures degrade to a count of 1 and an empty previous visit.
func (c *Collector) bumpVisitCounters(ctx context.Context, visitorID string) (int, string) {
	count := 0
	raw, err := c.store.Get(ctx, visitorID, storage.KeyVisitCount)
	if err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
		c.logger.Warn("reading visit counter failed", "visitor", visitorID, "error", err)
	}
	if err == nil {
		if parsed, perr := strconv.Atoi(raw); perr == nil {
			count = parsed
		}
	}
	count++
	if err := c.store.Set(ctx, visitorID, storage.KeyVisitCount, strconv.Itoa(count)); err != nil {
		c.logger.Warn("writing visit counter failed", "visitor", visitorID, "error", err)
	}

	lastVisit := ""
	if prev, err := c.store.Get(ctx, visitorID, storage.KeyLastVisit); err == nil {
		lastVisit = prev
	}
	if err := c.store.Set(ctx, visitorID, storage.KeyLastVisit, c.now().UTC().Format(time.RFC3339)); err != nil {
		c.logger.Warn("writing last visit failed", "visitor", visitorID, "error", err)
	}

	return count, lastVisit
}
