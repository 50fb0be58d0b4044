package telemetry

import (
	"fmt"
	"strings"
	"time"
)

// FormatReport renders the visit report as the HTML message delivered to the
// operations chat. Section layout is stable; downstream alerting keys off
// the bold headers.
func FormatReport(r *Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🕒 <b>Visit Time:</b> %s\n", r.VisitTime.Format("1/2/2006, 3:04:05 PM"))
	fmt.Fprintf(&b, "🔍 <b>Visit #%d</b>\n", r.VisitCount)
	if r.LastVisit != "" {
		if t, err := time.Parse(time.RFC3339, r.LastVisit); err == nil {
			fmt.Fprintf(&b, "⏱️ <b>Last Visit:</b> %s\n", t.Format("1/2/2006, 3:04:05 PM"))
		}
	}

	b.WriteString("\n📱 <b>Device Information:</b>\n")
	fmt.Fprintf(&b, "• Browser: %s\n", r.Identity.Browser)
	fmt.Fprintf(&b, "• OS: %s\n", r.Identity.OS)
	fmt.Fprintf(&b, "• Platform: %s\n", r.Identity.Platform)
	fmt.Fprintf(&b, "• Screen: %s\n", orSentinel(r.Snapshot.ScreenResolution))
	fmt.Fprintf(&b, "• GPU: %s\n", orSentinel(r.Snapshot.GPUInfo))
	fmt.Fprintf(&b, "• CPU Cores: %d\n", r.Snapshot.HardwareConcurrency)
	fmt.Fprintf(&b, "• Memory: %gGB\n", r.Snapshot.DeviceMemory)
	fmt.Fprintf(&b, "• Battery: %s\n", orSentinel(r.Snapshot.Battery))

	b.WriteString("\n🌐 <b>Network Information:</b>\n")
	fmt.Fprintf(&b, "• IPv4: %s\n", r.IPv4)
	fmt.Fprintf(&b, "• IPv6: %s\n", r.IPv6)
	fmt.Fprintf(&b, "• ISP: %s\n", r.Geo.ISP)
	fmt.Fprintf(&b, "• Organization: %s\n", r.Geo.Org)
	fmt.Fprintf(&b, "• ASN: %s\n", r.Geo.ASN)
	fmt.Fprintf(&b, "• Connection: %s\n", orUnknown(r.Snapshot.ConnectionType))
	if n := r.Snapshot.Network; n != nil {
		fmt.Fprintf(&b, "• Network Speed: %gMbps\n", n.Downlink)
		fmt.Fprintf(&b, "• Network RTT: %dms\n", n.RTT)
		fmt.Fprintf(&b, "• Data Saver: %s\n", onOff(n.SaveData))
	}

	b.WriteString("\n📍 <b>Location Information:</b>\n")
	fmt.Fprintf(&b, "• City: %s\n", r.Geo.City)
	fmt.Fprintf(&b, "• Region: %s\n", r.Geo.Region)
	fmt.Fprintf(&b, "• Country: %s\n", r.Geo.Country)
	fmt.Fprintf(&b, "• Postal: %s\n", r.Geo.Postal)
	fmt.Fprintf(&b, "• Timezone: %s\n", r.Geo.Timezone)
	if loc := r.Snapshot.Location; loc != nil {
		fmt.Fprintf(&b, "• GPS Latitude: %v\n", loc.Latitude)
		fmt.Fprintf(&b, "• GPS Longitude: %v\n", loc.Longitude)
		fmt.Fprintf(&b, "• GPS Accuracy: %vm\n", loc.Accuracy)
	}

	b.WriteString("\n⚙️ <b>System Details:</b>\n")
	fmt.Fprintf(&b, "• Language: %s\n", orUnknown(r.Snapshot.Language))
	fmt.Fprintf(&b, "• Color Depth: %d\n", r.Snapshot.ColorDepth)
	fmt.Fprintf(&b, "• Pixel Ratio: %g\n", r.Snapshot.DevicePixelRatio)
	fmt.Fprintf(&b, "• Touch Points: %d\n", r.Snapshot.MaxTouchPoints)
	fmt.Fprintf(&b, "• Hardware Acceleration: %s\n", yesNo(r.Snapshot.HardwareAcceleration))
	fmt.Fprintf(&b, "• Canvas Hash: %s\n", orSentinel(r.Snapshot.CanvasHash))

	if m := r.Snapshot.MediaDevices; m != nil {
		b.WriteString("\n🎥 <b>Media Devices:</b>\n")
		fmt.Fprintf(&b, "• Audio Inputs: %d\n", m.AudioInputs)
		fmt.Fprintf(&b, "• Audio Outputs: %d\n", m.AudioOutputs)
		fmt.Fprintf(&b, "• Video Inputs: %d\n", m.VideoInputs)
	}

	b.WriteString("\n🔒 <b>Security & Privacy:</b>\n")
	fmt.Fprintf(&b, "• Cookies: %s\n", enabledDisabled(r.Snapshot.CookiesEnabled))
	fmt.Fprintf(&b, "• Do Not Track: %s\n", doNotTrack(r.Snapshot.DoNotTrack))
	fmt.Fprintf(&b, "• Webdriver: %s\n", yesNo(r.Snapshot.Webdriver))
	if len(r.Snapshot.Permissions) > 0 {
		for _, name := range PermissionNames {
			if state, ok := r.Snapshot.Permissions[name]; ok {
				fmt.Fprintf(&b, "• Permission %s: %s\n", name, state)
			}
		}
	}

	b.WriteString("\n📝 <b>User Agent:</b>\n")
	b.WriteString(r.Snapshot.UserAgent)
	b.WriteString("\n")

	return b.String()
}

func orSentinel(v string) string {
	if v == "" {
		return NotAvailable
	}
	return v
}

func orUnknown(v string) string {
	if v == "" {
		return Unknown
	}
	return v
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func onOff(v bool) string {
	if v {
		return "On"
	}
	return "Off"
}

func enabledDisabled(v bool) string {
	if v {
		return "Enabled"
	}
	return "Disabled"
}

func doNotTrack(v string) string {
	if v == "" {
		return "Not set"
	}
	return v
}
