package httputil

import (
	"net/http/httptest"
	"testing"
)

// TestClientIP verifies proxy-header handling in both trust modes.
func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		trustProxy bool
		want       string
	}{
		{"remote addr only", "192.0.2.10:4321", "", "", false, "192.0.2.10"},
		{"xff ignored when untrusted", "192.0.2.10:4321", "203.0.113.5", "", false, "192.0.2.10"},
		{"xff first entry", "192.0.2.10:4321", "203.0.113.5, 198.51.100.7", "", true, "203.0.113.5"},
		{"xri fallback", "192.0.2.10:4321", "", "203.0.113.9", true, "203.0.113.9"},
		{"xff beats xri", "192.0.2.10:4321", "203.0.113.5", "203.0.113.9", true, "203.0.113.5"},
		{"no port", "192.0.2.10", "", "", false, "192.0.2.10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}

			if got := ClientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}
