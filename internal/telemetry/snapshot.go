// Package telemetry collects visit reports: device signals posted by the
// browser, server-side IP resolution and geo enrichment, and persisted visit
// counters. Reports are relayed to the operations chat; only a missing GPS
// fix is fatal to the caller, every other signal degrades to a sentinel.
package telemetry

import (
	"net/http"

	"hoststore/internal/model"
)

// Sentinel values for signals that could not be gathered. Probes never fail
// the collection; they fall back to these.
const (
	NotAvailable = "Not available"
	Unknown      = "Unknown"
)

// NetworkInfo mirrors the browser's connection object.
type NetworkInfo struct {
	Downlink      float64 `json:"downlink"` // Mbps
	EffectiveType string  `json:"effective_type"`
	RTT           int     `json:"rtt"` // ms
	SaveData      bool    `json:"save_data"`
}

// MediaDevices counts the device's enumerable inputs and outputs.
type MediaDevices struct {
	AudioInputs  int `json:"audio_inputs"`
	AudioOutputs int `json:"audio_outputs"`
	VideoInputs  int `json:"video_inputs"`
}

// StorageQuota is the browser's storage estimate in bytes.
type StorageQuota struct {
	Quota uint64 `json:"quota"`
	Usage uint64 `json:"usage"`
}

// PermissionNames is the fixed set of permissions the client probes.
// Probe failures leave the entry at "unknown".
var PermissionNames = []string{
	"geolocation", "notifications", "microphone", "camera", "clipboard",
}

// DeviceSnapshot is the signal bundle posted by the storefront client.
// Every field except Location is optional; zero values stand for signals the
// browser refused or does not implement.
type DeviceSnapshot struct {
	UserAgent        string `json:"user_agent"`
	Language         string `json:"language"`
	TimeZone         string `json:"time_zone"`
	ScreenResolution string `json:"screen_resolution"`
	Vendor           string `json:"vendor"`
	Platform         string `json:"platform"`

	ColorDepth          int     `json:"color_depth"`
	PixelDepth          int     `json:"pixel_depth"`
	DevicePixelRatio    float64 `json:"device_pixel_ratio"`
	HardwareConcurrency int     `json:"hardware_concurrency"`
	DeviceMemory        float64 `json:"device_memory"` // GB
	MaxTouchPoints      int     `json:"max_touch_points"`

	ConnectionType string        `json:"connection_type,omitempty"`
	Network        *NetworkInfo  `json:"network,omitempty"`
	Battery        string        `json:"battery,omitempty"`
	GPUInfo        string        `json:"gpu_info,omitempty"`
	MediaDevices   *MediaDevices `json:"media_devices,omitempty"`
	StorageQuota   *StorageQuota `json:"storage_quota,omitempty"`

	Plugins        []string `json:"plugins,omitempty"`
	DoNotTrack     string   `json:"do_not_track,omitempty"`
	CookiesEnabled bool     `json:"cookies_enabled"`
	Webdriver      bool     `json:"webdriver"`

	// CanvasHash is the last 32 characters of the client's canvas data URL.
	CanvasHash string `json:"canvas"`

	HardwareAcceleration bool   `json:"hardware_acceleration"`
	SessionStorage       bool   `json:"session_storage"`
	LocalStorage         bool   `json:"local_storage"`
	IndexedDB            bool   `json:"indexed_db"`
	AddressSpace         string `json:"address_space,omitempty"`
	PDFViewerEnabled     bool   `json:"pdf_viewer_enabled"`
	ScreenOrientation    string `json:"screen_orientation,omitempty"`

	// Permissions maps permission name to its reported state
	// (granted/denied/prompt/unknown).
	Permissions map[string]string `json:"permissions,omitempty"`

	// Location is the GPS fix. nil means the visitor denied the prompt or
	// the 5-second request timed out; collection then fails.
	Location *model.GeoPosition `json:"location"`
}

// RequestMeta carries the connection-level facts the collector reads off the
// HTTP request that delivered the snapshot.
type RequestMeta struct {
	RemoteAddr string
	Header     http.Header
}

// MetaFromRequest extracts RequestMeta from an incoming request.
func MetaFromRequest(r *http.Request) RequestMeta {
	return RequestMeta{
		RemoteAddr: r.RemoteAddr,
		Header:     r.Header,
	}
}
