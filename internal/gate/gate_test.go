package gate

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hoststore/internal/cache"
	"hoststore/internal/middleware"
	"hoststore/internal/model"
	"hoststore/internal/relay"
	"hoststore/internal/storage"
	"hoststore/internal/telemetry"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newGate(t *testing.T) *Gate {
	t.Helper()
	logger := testLogger()
	collector := telemetry.NewCollector(
		storage.NewMemoryStore(),
		telemetry.NewEnricher(http.DefaultTransport, cache.Noop{}, logger),
		relay.Discard{},
		logger,
	)
	return New(collector, logger)
}

func snapshotWithLocation() telemetry.DeviceSnapshot {
	return telemetry.DeviceSnapshot{
		UserAgent: "test-agent",
		Location:  &model.GeoPosition{Latitude: 1, Longitude: 2, Accuracy: 3},
	}
}

func meta() telemetry.RequestMeta {
	h := http.Header{}
	h.Set("X-Forwarded-For", "invalid") // keeps the enricher offline
	return telemetry.RequestMeta{RemoteAddr: "invalid", Header: h}
}

func TestGateInitialStateLoading(t *testing.T) {
	g := newGate(t)
	assert.Equal(t, StatusLoading, g.Status("v1"))
	assert.False(t, g.Granted("v1"))
}

func TestGateGrantsOnSuccess(t *testing.T) {
	g := newGate(t)

	report, err := g.Attempt(context.Background(), "v1", snapshotWithLocation(), meta())
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, StatusGranted, g.Status("v1"))
	assert.True(t, g.Granted("v1"))
}

func TestGateDeniesOnMissingLocation(t *testing.T) {
	g := newGate(t)

	snap := snapshotWithLocation()
	snap.Location = nil

	_, err := g.Attempt(context.Background(), "v1", snap, meta())
	require.Error(t, err)
	assert.Equal(t, StatusDenied, g.Status("v1"))
}

func TestGateDeniedIsRetriable(t *testing.T) {
	g := newGate(t)

	snap := snapshotWithLocation()
	snap.Location = nil
	_, err := g.Attempt(context.Background(), "v1", snap, meta())
	require.Error(t, err)

	_, err = g.Attempt(context.Background(), "v1", snapshotWithLocation(), meta())
	require.NoError(t, err)
	assert.Equal(t, StatusGranted, g.Status("v1"))
}

func TestGateGrantedIsSticky(t *testing.T) {
	g := newGate(t)

	_, err := g.Attempt(context.Background(), "v1", snapshotWithLocation(), meta())
	require.NoError(t, err)

	// A later failed attempt must not revoke access
	snap := snapshotWithLocation()
	snap.Location = nil
	_, err = g.Attempt(context.Background(), "v1", snap, meta())
	require.Error(t, err)
	assert.Equal(t, StatusGranted, g.Status("v1"))
}

func TestMiddlewareBlocksUngatedVisitors(t *testing.T) {
	g := newGate(t)

	handler := middleware.Chain(middleware.Visitor(), Middleware(g))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("content"))
		}))

	req := httptest.NewRequest("GET", "/api/products", nil)
	req.AddCookie(&http.Cookie{Name: middleware.VisitorCookie, Value: "v1"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "ACCESS_GATE")
}

func TestMiddlewarePassesGrantedVisitors(t *testing.T) {
	g := newGate(t)
	_, err := g.Attempt(context.Background(), "v1", snapshotWithLocation(), meta())
	require.NoError(t, err)

	handler := middleware.Chain(middleware.Visitor(), Middleware(g))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("content"))
		}))

	req := httptest.NewRequest("GET", "/api/products", nil)
	req.AddCookie(&http.Cookie{Name: middleware.VisitorCookie, Value: "v1"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "content", w.Body.String())
}

func TestMiddlewareExemptPaths(t *testing.T) {
	g := newGate(t)

	handler := middleware.Chain(middleware.Visitor(), Middleware(g))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("ok"))
		}))

	for _, path := range []string{
		"/api/gate", "/health", "/healthz",
		"/.well-known/store", "/payment/callback", "/payment/success", "/mcp",
	} {
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, "path %s should be exempt", path)
	}
}
