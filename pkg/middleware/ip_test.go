package middleware

import (
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name     string
		remote   string
		headers  map[string]string
		config   *IPConfig
		expected string
	}{
		{"remote addr ipv4", "192.0.2.1:1234", nil, nil, "192.0.2.1"},
		{"remote addr ipv6", "[2001:db8::1]:1234", nil, nil, "2001:db8::1"},
		{"untrusted proxy header", "192.0.2.1:1234", map[string]string{"X-Forwarded-For": "203.0.113.9"}, nil, "192.0.2.1"},
		{"x-forwarded-for", "192.0.2.1:1234", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, &IPConfig{TrustProxy: true}, "203.0.113.9"},
		{"x-real-ip", "192.0.2.1:1234", map[string]string{"X-Real-IP": "203.0.113.7"}, &IPConfig{TrustProxy: true}, "203.0.113.7"},
		{"no port", "192.0.2.1", nil, nil, "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := ClientIP(req, tt.config); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}
