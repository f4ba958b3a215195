// Package clientip resolves the caller address used as the key for rate
// limiting and login attempt tracking.
package clientip

import (
	"net"
	"net/http"
	"strings"
)

// FromRequest returns the client IP from r.RemoteAddr in canonical form.
// Proxy headers are not read here; when the server runs behind a proxy the
// router's RealIP middleware rewrites RemoteAddr first.
func FromRequest(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	addr = strings.Trim(addr, "[]")

	if ip := net.ParseIP(addr); ip != nil {
		return ip.String()
	}
	return addr
}
