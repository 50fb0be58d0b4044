package telemetry

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func TestIdentityFromClientHints(t *testing.T) {
	h := http.Header{}
	h.Set("Sec-CH-UA", `"Not_A Brand";v="8", "Chromium";v="120", "Google Chrome";v="120"`)
	h.Set("Sec-CH-UA-Platform", `"Windows"`)
	h.Set("Sec-CH-UA-Mobile", "?0")

	id := IdentityFromHeaders(h, chromeUA)
	// GREASE brand skipped, first real brand wins
	assert.Equal(t, "Chromium 120", id.Browser)
	assert.Equal(t, "Windows", id.OS)
	assert.Equal(t, "desktop", id.Platform)
}

func TestIdentityMobileHint(t *testing.T) {
	h := http.Header{}
	h.Set("Sec-CH-UA", `"Chromium";v="120"`)
	h.Set("Sec-CH-UA-Platform", `"Android"`)
	h.Set("Sec-CH-UA-Mobile", "?1")

	id := IdentityFromHeaders(h, "")
	assert.Equal(t, "Android", id.OS)
	assert.Equal(t, "mobile", id.Platform)
}

func TestIdentityUserAgentFallback(t *testing.T) {
	tests := []struct {
		name        string
		ua          string
		wantBrowser string
		wantOS      string
	}{
		{
			name:        "chrome on windows",
			ua:          chromeUA,
			wantBrowser: "Chrome 120",
			wantOS:      "Windows",
		},
		{
			name:        "firefox on linux",
			ua:          "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
			wantBrowser: "Firefox 121",
			wantOS:      "Linux",
		},
		{
			name:        "safari on mac",
			ua:          "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
			wantBrowser: "Safari 605",
			wantOS:      "macOS",
		},
		{
			name:        "edge wins over chrome token",
			ua:          "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
			wantBrowser: "Edge 120",
			wantOS:      "Windows",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := IdentityFromHeaders(http.Header{}, tt.ua)
			assert.Equal(t, tt.wantBrowser, id.Browser)
			assert.Equal(t, tt.wantOS, id.OS)
		})
	}
}

func TestIdentityMobileFromUserAgent(t *testing.T) {
	ua := "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36"
	id := IdentityFromHeaders(http.Header{}, ua)
	assert.Equal(t, "mobile", id.Platform)
	assert.Equal(t, "Android", id.OS)
}

func TestIdentityNoSignals(t *testing.T) {
	id := IdentityFromHeaders(http.Header{}, "")
	assert.Equal(t, Unknown, id.Browser)
	assert.Equal(t, Unknown, id.OS)
	assert.Equal(t, "desktop", id.Platform)
}

func TestIdentityMalformedHints(t *testing.T) {
	h := http.Header{}
	h.Set("Sec-CH-UA", "not a structured field ;;;")
	h.Set("Sec-CH-UA-Platform", "unquoted")

	id := IdentityFromHeaders(h, chromeUA)
	// Malformed hints fall through to the User-Agent
	assert.Equal(t, "Chrome 120", id.Browser)
	assert.Equal(t, "Windows", id.OS)
}
