package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"hoststore/internal/cache"
)

// stubCache is an in-memory cache.Cache for observing enricher writes.
type stubCache struct {
	entries map[string]string
}

func newStubCache() *stubCache {
	return &stubCache{entries: map[string]string{}}
}

func (c *stubCache) Get(_ context.Context, key string) (string, error) {
	if v, ok := c.entries[key]; ok {
		return v, nil
	}
	return "", cache.ErrCacheMiss
}

func (c *stubCache) Set(_ context.Context, key, value string) error {
	c.entries[key] = value
	return nil
}

func enricherWith(t *testing.T, c cache.Cache, handlers ...http.HandlerFunc) *Enricher {
	t.Helper()
	e := NewEnricher(http.DefaultTransport, c, testLogger())
	e.services = nil
	for i, h := range handlers {
		srv := httptest.NewServer(h)
		t.Cleanup(srv.Close)
		base := srv.URL
		e.services = append(e.services, geoService{
			name: "stub-" + string(rune('a'+i)),
			url:  func(ip string) string { return base + "/" + ip },
		})
	}
	return e
}

func TestLookupParsesPrimaryService(t *testing.T) {
	e := enricherWith(t, cache.Noop{}, func(w http.ResponseWriter, r *http.Request) {
		// ipapi.co response shape
		w.Write([]byte(`{
			"city": "Berlin", "region": "Berlin", "country_name": "Germany",
			"postal": "10115", "latitude": 52.52, "longitude": 13.405,
			"timezone": "Europe/Berlin", "asn": "AS3320", "org": "Deutsche Telekom"
		}`))
	})

	details := e.Lookup(context.Background(), "203.0.113.7")
	assert.Equal(t, "Berlin", details.City)
	assert.Equal(t, "Germany", details.Country)
	assert.Equal(t, "10115", details.Postal)
	assert.Equal(t, 52.52, details.Latitude)
	assert.Equal(t, "AS3320", details.ASN)
	// ipapi.co has no isp field; org stands in
	assert.Equal(t, "Deutsche Telekom", details.ISP)
}

func TestLookupFallsBackToSecondService(t *testing.T) {
	e := enricherWith(t, cache.Noop{},
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		},
		func(w http.ResponseWriter, r *http.Request) {
			// ipwho.is response shape
			w.Write([]byte(`{
				"success": true, "city": "Paris", "region": "Ile-de-France",
				"country": "France", "postal": "75001",
				"latitude": 48.85, "longitude": 2.35,
				"timezone": {"id": "Europe/Paris"},
				"connection": {"asn": 12876, "org": "Scaleway", "isp": "Online SAS"}
			}`))
		})

	details := e.Lookup(context.Background(), "203.0.113.7")
	assert.Equal(t, "Paris", details.City)
	assert.Equal(t, "France", details.Country)
	assert.Equal(t, "Europe/Paris", details.Timezone)
	assert.Equal(t, "12876", details.ASN)
	assert.Equal(t, "Online SAS", details.ISP)
}

func TestLookupAllServicesFail(t *testing.T) {
	e := enricherWith(t, cache.Noop{},
		func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(500) },
		func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("not json")) })

	details := e.Lookup(context.Background(), "203.0.113.7")
	assert.Equal(t, UnknownGeoDetails(), details)
}

func TestLookupSentinelAddress(t *testing.T) {
	e := enricherWith(t, cache.Noop{}, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no lookup expected for a sentinel address")
	})

	assert.Equal(t, UnknownGeoDetails(), e.Lookup(context.Background(), NotAvailable))
	assert.Equal(t, UnknownGeoDetails(), e.Lookup(context.Background(), ""))
}

func TestLookupUsesCache(t *testing.T) {
	var calls atomic.Int32
	c := newStubCache()
	e := enricherWith(t, c, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"city": "Berlin", "country_name": "Germany"}`))
	})

	first := e.Lookup(context.Background(), "203.0.113.7")
	second := e.Lookup(context.Background(), "203.0.113.7")

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())
	assert.Contains(t, c.entries, "203.0.113.7")
}

func TestLookupInBandError(t *testing.T) {
	e := enricherWith(t, cache.Noop{},
		func(w http.ResponseWriter, r *http.Request) {
			// ipapi.co reports reserved addresses with a 200
			w.Write([]byte(`{"error": true, "reason": "Reserved IP Address"}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"city": "Oslo", "country": "Norway"}`))
		})

	details := e.Lookup(context.Background(), "10.0.0.1")
	assert.Equal(t, "Oslo", details.City)
}
