package middleware

import (
	"net"
	"net/http"
	"strings"
)

// IPConfig defines configuration for client IP extraction
type IPConfig struct {
	// TrustProxy uses X-Forwarded-For and X-Real-IP when set.
	// Otherwise only RemoteAddr is used.
	TrustProxy bool
}

// ClientIP returns the client IP of r according to config.
// A nil config trusts nothing but RemoteAddr.
func ClientIP(r *http.Request, config *IPConfig) string {
	if config != nil && config.TrustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			// The leftmost IP is the original client
			if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
				return cleanIP(ip)
			}
		}
		if ip := r.Header.Get("X-Real-IP"); ip != "" {
			return cleanIP(ip)
		}
	}
	return cleanIP(r.RemoteAddr)
}

// cleanIP removes the port from an address if present
func cleanIP(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return strings.Trim(addr, "[]")
}
