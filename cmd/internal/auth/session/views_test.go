package session

import (
	"strings"
	"testing"
)

func TestDescribeClient(t *testing.T) {
	tests := []struct {
		name       string
		ua         string
		wantDevice string
	}{
		{
			name:       "desktop chrome on windows",
			ua:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			wantDevice: "desktop",
		},
		{
			name:       "iphone safari",
			ua:         "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
			wantDevice: "mobile",
		},
		{
			name:       "crawler",
			ua:         "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
			wantDevice: "bot",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device, browser, os := describeClient(tt.ua)
			if !strings.HasPrefix(device, tt.wantDevice) {
				t.Errorf("device = %q, want prefix %q", device, tt.wantDevice)
			}
			if browser == "" || os == "" {
				t.Errorf("empty browser (%q) or os (%q)", browser, os)
			}
		})
	}
}

func TestDescribeClient_Empty(t *testing.T) {
	device, browser, os := describeClient("")
	if device != "unknown device" || browser != "unknown" || os != "unknown" {
		t.Errorf("got (%q, %q, %q), want unknowns", device, browser, os)
	}
}
