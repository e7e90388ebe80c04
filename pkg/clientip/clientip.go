package clientip

import (
	"net"
	"net/http"
	"strings"
)

// Unknown is returned when RemoteAddr is empty.
const Unknown = "unknown"

// FromRequest returns the client IP from r.RemoteAddr without port or IPv6
// zone. Proxy headers are not read here; chi's RealIP middleware rewrites
// RemoteAddr first when the server runs behind a trusted proxy.
func FromRequest(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	addr = strings.Trim(addr, "[]")
	if i := strings.IndexByte(addr, '%'); i >= 0 {
		addr = addr[:i]
	}
	if addr == "" {
		return Unknown
	}
	return addr
}
