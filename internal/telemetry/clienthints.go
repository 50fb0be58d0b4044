package telemetry

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dunglas/httpsfv"
)

// BrowserIdentity is the server-side view of who the visitor's browser
// claims to be, derived from Sec-CH-UA client hints with a User-Agent
// fallback for browsers that do not send them.
type BrowserIdentity struct {
	Browser  string // e.g. "Chromium 120"
	OS       string // e.g. "Windows 10"
	Platform string // desktop, mobile, tablet
}

// IdentityFromHeaders derives the browser identity. Client hints are
// structured fields (RFC 8941) and parsed as such; the GREASE brands
// Chromium injects ("Not A;Brand" and friends) are skipped.
func IdentityFromHeaders(h http.Header, userAgent string) BrowserIdentity {
	id := BrowserIdentity{
		Browser:  Unknown,
		OS:       Unknown,
		Platform: "desktop",
	}

	if brand, version, ok := parseBrandList(h.Get("Sec-CH-UA")); ok {
		id.Browser = brand + " " + version
	}
	if platform, ok := parseItemString(h.Get("Sec-CH-UA-Platform")); ok {
		id.OS = platform
	}
	if mobile, ok := parseItemBool(h.Get("Sec-CH-UA-Mobile")); ok && mobile {
		id.Platform = "mobile"
	}

	// Fall back to coarse User-Agent sniffing for anything the hints
	// did not cover.
	if id.Browser == Unknown {
		id.Browser = browserFromUserAgent(userAgent)
	}
	if id.OS == Unknown {
		id.OS = osFromUserAgent(userAgent)
	}
	if strings.Contains(userAgent, "Mobile") && id.Platform == "desktop" {
		id.Platform = "mobile"
	}
	return id
}

// parseBrandList picks the first meaningful brand from a Sec-CH-UA list.
func parseBrandList(value string) (brand, version string, ok bool) {
	if value == "" {
		return "", "", false
	}
	list, err := httpsfv.UnmarshalList([]string{value})
	if err != nil {
		return "", "", false
	}
	for _, member := range list {
		item, isItem := member.(httpsfv.Item)
		if !isItem {
			continue
		}
		name, isString := item.Value.(string)
		if !isString || isGreaseBrand(name) {
			continue
		}
		v := ""
		if raw, present := item.Params.Get("v"); present {
			v, _ = raw.(string)
		}
		return name, v, true
	}
	return "", "", false
}

func parseItemString(value string) (string, bool) {
	if value == "" {
		return "", false
	}
	item, err := httpsfv.UnmarshalItem([]string{value})
	if err != nil {
		return "", false
	}
	s, ok := item.Value.(string)
	return s, ok && s != ""
}

func parseItemBool(value string) (bool, bool) {
	if value == "" {
		return false, false
	}
	item, err := httpsfv.UnmarshalItem([]string{value})
	if err != nil {
		return false, false
	}
	b, ok := item.Value.(bool)
	return b, ok
}

// isGreaseBrand reports whether the brand is one of the intentionally
// meaningless entries browsers add to keep parsers honest.
func isGreaseBrand(name string) bool {
	return strings.Contains(name, "Not") && strings.Contains(name, "Brand")
}

func browserFromUserAgent(ua string) string {
	for _, probe := range []struct{ token, name string }{
		{"Edg/", "Edge"},
		{"OPR/", "Opera"},
		{"Firefox/", "Firefox"},
		{"Chrome/", "Chrome"},
		{"Safari/", "Safari"},
	} {
		idx := strings.Index(ua, probe.token)
		if idx < 0 {
			continue
		}
		version := ua[idx+len(probe.token):]
		if cut := strings.IndexAny(version, ". "); cut > 0 {
			version = version[:cut]
		}
		return fmt.Sprintf("%s %s", probe.name, version)
	}
	return Unknown
}

func osFromUserAgent(ua string) string {
	switch {
	case strings.Contains(ua, "Windows NT"):
		return "Windows"
	case strings.Contains(ua, "Android"):
		return "Android"
	case strings.Contains(ua, "iPhone"), strings.Contains(ua, "iPad"):
		return "iOS"
	case strings.Contains(ua, "Mac OS X"):
		return "macOS"
	case strings.Contains(ua, "Linux"):
		return "Linux"
	}
	return Unknown
}
