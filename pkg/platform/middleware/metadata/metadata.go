// Package metadata records the caller's address and User-Agent on the request
// context. Audit entries read them back to describe the client.
package metadata

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"stewardship/pkg/requestcontext"
)

// MaxForwardedHeaderLength bounds X-Forwarded-For and X-Real-IP values.
const MaxForwardedHeaderLength = 500

// Config lists proxies allowed to set forwarding headers. With none
// configured the socket peer address is always used.
type Config struct {
	TrustedProxies []netip.Prefix
}

// ParseTrustedProxies parses CIDR strings, skipping blanks.
func ParseTrustedProxies(cidrs []string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, c := range cidrs {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		p, err := netip.ParsePrefix(c)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

type Middleware struct {
	trusted []netip.Prefix
}

func NewMiddleware(cfg *Config) *Middleware {
	if cfg == nil {
		return &Middleware{}
	}
	return &Middleware{trusted: cfg.TrustedProxies}
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientMetadata(r.Context(), m.clientIP(r), r.Header.Get("User-Agent"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) clientIP(r *http.Request) string {
	peer := peerAddr(r.RemoteAddr)
	if !peer.IsValid() {
		return "unknown"
	}
	if !m.trusts(peer) {
		return peer.String()
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" && len(xff) <= MaxForwardedHeaderLength {
		first, _, _ := strings.Cut(xff, ",")
		if addr, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
			return addr.String()
		}
		return peer.String()
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" && len(xri) <= MaxForwardedHeaderLength {
		if addr, err := netip.ParseAddr(strings.TrimSpace(xri)); err == nil {
			return addr.String()
		}
	}
	return peer.String()
}

func (m *Middleware) trusts(addr netip.Addr) bool {
	for _, p := range m.trusted {
		if p.Contains(addr.Unmap()) {
			return true
		}
	}
	return false
}

func peerAddr(remoteAddr string) netip.Addr {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}
	}
	return addr
}
