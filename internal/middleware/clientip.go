package middleware

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// RealIP returns the host part of r.RemoteAddr. Behind a trusted proxy,
// TrustedProxies has already replaced RemoteAddr with the client address.
func RealIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// TrustedProxies returns middleware that rewrites r.RemoteAddr from the
// CF-Connecting-IP or X-Forwarded-For headers, but only when the direct peer
// is one of proxies. Entries are addresses or CIDR prefixes. With no
// proxies, forwarding headers are ignored.
func TrustedProxies(proxies []string) (func(http.Handler) http.Handler, error) {
	prefixes := make([]netip.Prefix, 0, len(proxies))
	for _, p := range proxies {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.Contains(p, "/") {
			addr, err := netip.ParseAddr(p)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", p, err)
			}
			prefixes = append(prefixes, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
			continue
		}
		prefix, err := netip.ParsePrefix(p)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", p, err)
		}
		prefixes = append(prefixes, prefix.Masked())
	}

	trusted := func(s string) bool {
		addr, err := netip.ParseAddr(strings.TrimSpace(s))
		if err != nil {
			return false
		}
		addr = addr.Unmap()
		for _, p := range prefixes {
			if p.Contains(addr) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(prefixes) == 0 || !trusted(RealIP(r)) {
				next.ServeHTTP(w, r)
				return
			}
			if client := forwardedClient(r, trusted); client != "" {
				r.RemoteAddr = net.JoinHostPort(client, "0")
			}
			next.ServeHTTP(w, r)
		})
	}, nil
}

// forwardedClient picks the client address from a request relayed by a
// trusted peer. X-Forwarded-For is read right to left, skipping trusted
// hops, so a client cannot choose its own address by prepending entries.
func forwardedClient(r *http.Request, trusted func(string) bool) string {
	if ip := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); ip != "" {
		if _, err := netip.ParseAddr(ip); err == nil {
			return ip
		}
	}
	hops := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if _, err := netip.ParseAddr(hop); err != nil {
			return ""
		}
		if !trusted(hop) {
			return hop
		}
	}
	return ""
}
