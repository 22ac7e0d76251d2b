package session

import (
	"fmt"
	"time"

	"github.com/mileusna/useragent"
)

// SessionView is the display projection of one live session, as returned by
// the sessions endpoint.
type SessionView struct {
	ID           string    `json:"id"`
	Device       string    `json:"device"`
	Browser      string    `json:"browser"`
	OS           string    `json:"os"`
	IP           string    `json:"ip,omitempty"`
	LastActivity time.Time `json:"last_activity"`
	StartedAt    time.Time `json:"started_at"`
}

func newSessionView(l SessionListing) SessionView {
	v := SessionView{
		ID:           l.ID,
		LastActivity: l.LastActivity,
		StartedAt:    l.CreatedAt,
	}
	if l.IP != nil {
		v.IP = l.IP.String()
	}
	v.Device, v.Browser, v.OS = describeClient(l.UserAgent)
	return v
}

// describeClient reduces a raw user-agent string to coarse display labels.
// Session lists are shown to staff deciding which device to kick; precision
// beyond browser/OS/form-factor is noise.
func describeClient(rawUA string) (device, browser, os string) {
	if rawUA == "" {
		return "unknown device", "unknown", "unknown"
	}

	ua := useragent.Parse(rawUA)

	browser = ua.Name
	if browser == "" {
		browser = "unknown"
	}

	os = ua.OS
	if os == "" {
		os = "unknown"
	}

	switch {
	case ua.Bot:
		device = "bot"
	case ua.Mobile:
		device = "mobile"
	case ua.Tablet:
		device = "tablet"
	case ua.Desktop:
		device = "desktop"
	default:
		device = "unknown device"
	}

	if device != "bot" && browser != "unknown" && os != "unknown" {
		device = fmt.Sprintf("%s (%s on %s)", device, browser, os)
	}
	return device, browser, os
}
