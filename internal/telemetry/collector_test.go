package telemetry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hoststore/internal/cache"
	"hoststore/internal/model"
	"hoststore/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// chanNotifier records relayed messages on a channel so tests can wait for
// the fire-and-forget send.
type chanNotifier struct {
	ch chan string
}

func newChanNotifier() *chanNotifier {
	return &chanNotifier{ch: make(chan string, 4)}
}

func (n *chanNotifier) Send(_ context.Context, text string) {
	n.ch <- text
}

func (n *chanNotifier) wait(t *testing.T) string {
	t.Helper()
	select {
	case msg := <-n.ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no relay message received")
		return ""
	}
}

// failingEnricher avoids network calls: every lookup fails over to the
// Unknown-filled record.
func offlineEnricher() *Enricher {
	e := NewEnricher(http.DefaultTransport, cache.Noop{}, testLogger())
	e.services = nil
	return e
}

func validSnapshot() DeviceSnapshot {
	return DeviceSnapshot{
		UserAgent:           "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0.0.0 Safari/537.36",
		Language:            "en-US",
		ScreenResolution:    "1920x1080",
		HardwareConcurrency: 8,
		DeviceMemory:        16,
		CookiesEnabled:      true,
		CanvasHash:          "AAAAABBBBBCCCCCDDDDDEEEEEFFFFF12",
		Location: &model.GeoPosition{
			Latitude:  52.52,
			Longitude: 13.405,
			Accuracy:  12,
		},
	}
}

func testMeta() RequestMeta {
	h := http.Header{}
	h.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	return RequestMeta{RemoteAddr: "10.0.0.1:39218", Header: h}
}

func TestCollectMissingLocationFails(t *testing.T) {
	store := storage.NewMemoryStore()
	notifier := newChanNotifier()
	c := NewCollector(store, offlineEnricher(), notifier, testLogger())

	snap := validSnapshot()
	snap.Location = nil

	_, err := c.Collect(context.Background(), "v1", snap, testMeta())
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrLocationDenied))

	// No side effects on failure
	_, err = store.Get(context.Background(), "v1", storage.KeyVisitCount)
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)
	select {
	case msg := <-notifier.ch:
		t.Fatalf("unexpected relay message: %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCollectSuccess(t *testing.T) {
	store := storage.NewMemoryStore()
	notifier := newChanNotifier()
	c := NewCollector(store, offlineEnricher(), notifier, testLogger())

	report, err := c.Collect(context.Background(), "v1", validSnapshot(), testMeta())
	require.NoError(t, err)

	assert.Equal(t, "203.0.113.7", report.IPv4)
	assert.Equal(t, NotAvailable, report.IPv6)
	assert.Equal(t, 1, report.VisitCount)
	assert.Empty(t, report.LastVisit)
	// Enricher had no services, so the geo record is sentinel-filled
	assert.Equal(t, Unknown, report.Geo.Country)

	count, err := store.Get(context.Background(), "v1", storage.KeyVisitCount)
	require.NoError(t, err)
	assert.Equal(t, "1", count)

	last, err := store.Get(context.Background(), "v1", storage.KeyLastVisit)
	require.NoError(t, err)
	_, err = time.Parse(time.RFC3339, last)
	assert.NoError(t, err)

	msg := notifier.wait(t)
	assert.Contains(t, msg, "<b>Visit #1</b>")
	assert.Contains(t, msg, "• IPv4: 203.0.113.7")
	assert.Contains(t, msg, "• GPS Latitude: 52.52")
	assert.Contains(t, msg, "<b>User Agent:</b>")
}

func TestCollectIncrementsAcrossVisits(t *testing.T) {
	store := storage.NewMemoryStore()
	notifier := newChanNotifier()
	c := NewCollector(store, offlineEnricher(), notifier, testLogger())

	first, err := c.Collect(context.Background(), "v1", validSnapshot(), testMeta())
	require.NoError(t, err)
	notifier.wait(t)

	second, err := c.Collect(context.Background(), "v1", validSnapshot(), testMeta())
	require.NoError(t, err)
	msg := notifier.wait(t)

	assert.Equal(t, 1, first.VisitCount)
	assert.Equal(t, 2, second.VisitCount)
	// Second visit carries the first visit's timestamp
	assert.NotEmpty(t, second.LastVisit)
	assert.Contains(t, msg, "<b>Last Visit:</b>")
}

func TestCollectVisitorIsolation(t *testing.T) {
	store := storage.NewMemoryStore()
	notifier := newChanNotifier()
	c := NewCollector(store, offlineEnricher(), notifier, testLogger())

	_, err := c.Collect(context.Background(), "v1", validSnapshot(), testMeta())
	require.NoError(t, err)
	notifier.wait(t)

	other, err := c.Collect(context.Background(), "v2", validSnapshot(), testMeta())
	require.NoError(t, err)
	notifier.wait(t)

	assert.Equal(t, 1, other.VisitCount)
}
