package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"

	"hoststore/internal/cache"
)

// GeoDetails is the reverse-geo record derived from a visitor's IPv4
// address. Fields left at Unknown when every lookup service failed.
type GeoDetails struct {
	City      string  `json:"city"`
	Region    string  `json:"region"`
	Country   string  `json:"country"`
	Postal    string  `json:"postal"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
	ASN       string  `json:"asn"`
	Org       string  `json:"org"`
	ISP       string  `json:"isp"`
}

// UnknownGeoDetails returns the sentinel-filled record used when no service
// could resolve the address.
func UnknownGeoDetails() GeoDetails {
	return GeoDetails{
		City: Unknown, Region: Unknown, Country: Unknown, Postal: Unknown,
		Timezone: Unknown, ASN: Unknown, Org: Unknown, ISP: Unknown,
	}
}

// geoService is one external lookup endpoint with its response mapping.
// Services respond in different shapes; gjson paths absorb the differences.
type geoService struct {
	name string
	url  func(ip string) string
}

// defaultGeoServices is the ordered lookup list. ipapi.co is primary; the
// rest are redundant fallbacks with compatible data.
func defaultGeoServices() []geoService {
	return []geoService{
		{
			name: "ipapi.co",
			url:  func(ip string) string { return fmt.Sprintf("https://ipapi.co/%s/json/", ip) },
		},
		{
			name: "ipwho.is",
			url:  func(ip string) string { return fmt.Sprintf("https://ipwho.is/%s", ip) },
		},
	}
}

// Enricher resolves GeoDetails for IPv4 addresses. Concurrent lookups for
// the same address collapse through singleflight, and results are cached
// behind the cache boundary (Redis in production, no-op otherwise).
type Enricher struct {
	httpClient *http.Client
	cache      cache.Cache
	logger     *slog.Logger
	services   []geoService
	group      singleflight.Group
}

func NewEnricher(rt http.RoundTripper, c cache.Cache, logger *slog.Logger) *Enricher {
	return &Enricher{
		httpClient: &http.Client{
			Transport: rt,
			Timeout:   10 * time.Second,
		},
		cache:    c,
		logger:   logger,
		services: defaultGeoServices(),
	}
}

// Lookup returns the geo record for ip. Never fails: a NotAvailable address
// or total service failure yields the Unknown-filled record.
func (e *Enricher) Lookup(ctx context.Context, ip string) GeoDetails {
	if ip == "" || ip == NotAvailable {
		return UnknownGeoDetails()
	}

	if cached, err := e.cache.Get(ctx, ip); err == nil {
		var details GeoDetails
		if json.Unmarshal([]byte(cached), &details) == nil {
			return details
		}
	}

	v, _, _ := e.group.Do(ip, func() (interface{}, error) {
		details := e.lookupServices(ctx, ip)
		if encoded, err := json.Marshal(details); err == nil {
			if err := e.cache.Set(ctx, ip, string(encoded)); err != nil {
				e.logger.Warn("geo cache write failed", "ip", ip, "error", err)
			}
		}
		return details, nil
	})
	return v.(GeoDetails)
}

func (e *Enricher) lookupServices(ctx context.Context, ip string) GeoDetails {
	for _, svc := range e.services {
		details, err := e.query(ctx, svc, ip)
		if err != nil {
			e.logger.Debug("geo service failed",
				"service", svc.name, "ip", ip, "error", err)
			continue
		}
		return details
	}
	e.logger.Warn("all geo services failed", "ip", ip)
	return UnknownGeoDetails()
}

func (e *Enricher) query(ctx context.Context, svc geoService, ip string) (GeoDetails, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, svc.url(ip), nil)
	if err != nil {
		return GeoDetails{}, fmt.Errorf("building request: %w", err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return GeoDetails{}, fmt.Errorf("querying %s: %w", svc.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return GeoDetails{}, fmt.Errorf("%s status %d", svc.name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return GeoDetails{}, fmt.Errorf("reading %s response: %w", svc.name, err)
	}
	if !gjson.ValidBytes(body) {
		return GeoDetails{}, fmt.Errorf("%s returned invalid JSON", svc.name)
	}

	root := gjson.ParseBytes(body)
	// ipapi.co signals lookup errors in-band with 200s
	if root.Get("error").Bool() || root.Get("success").Exists() && !root.Get("success").Bool() {
		return GeoDetails{}, fmt.Errorf("%s rejected address", svc.name)
	}

	return GeoDetails{
		City:      str(root, "city"),
		Region:    str(root, "region"),
		Country:   str(root, "country_name", "country"),
		Postal:    str(root, "postal"),
		Latitude:  root.Get("latitude").Float(),
		Longitude: root.Get("longitude").Float(),
		Timezone:  str(root, "timezone", "timezone.id"),
		ASN:       str(root, "asn", "connection.asn"),
		Org:       str(root, "org", "connection.org"),
		ISP:       str(root, "isp", "connection.isp", "org"),
	}, nil
}

// str returns the first scalar value at the given gjson paths, or the
// Unknown sentinel. Objects are skipped so path lists can span services
// that disagree on a field's shape.
func str(root gjson.Result, paths ...string) string {
	for _, p := range paths {
		v := root.Get(p)
		if (v.Type == gjson.String || v.Type == gjson.Number) && v.String() != "" {
			return v.String()
		}
	}
	return Unknown
}
