package middleware

import (
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
)

// TrustedRealIP rewrites r.RemoteAddr from X-Real-IP or the first
// X-Forwarded-For entry, but only for connections coming from one of the
// trusted proxy prefixes. Other requests keep their connection address so
// clients cannot dodge the rate limiter by sending the headers themselves.
func TrustedRealIP(trusted []string) func(http.Handler) http.Handler {
	prefixes := parsePrefixes(trusted)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if remote, ok := parseAddr(r.RemoteAddr); ok && containsAddr(prefixes, remote) {
				if client, ok := forwardedClient(r); ok {
					r.RemoteAddr = client.String()
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// parsePrefixes accepts CIDRs and bare addresses. Invalid entries are logged
// and skipped.
func parsePrefixes(entries []string) []netip.Prefix {
	var prefixes []netip.Prefix
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if p, err := netip.ParsePrefix(entry); err == nil {
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			slog.Warn("realip: invalid trusted proxy, skipping", "entry", entry, "error", err)
			continue
		}
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes
}

func forwardedClient(r *http.Request) (netip.Addr, bool) {
	if rip := strings.TrimSpace(r.Header.Get("X-Real-IP")); rip != "" {
		addr, err := netip.ParseAddr(rip)
		return addr, err == nil
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		addr, err := netip.ParseAddr(strings.TrimSpace(first))
		return addr, err == nil
	}
	return netip.Addr{}, false
}

// parseAddr reads "host:port" or a bare address.
func parseAddr(s string) (netip.Addr, bool) {
	if ap, err := netip.ParseAddrPort(s); err == nil {
		return ap.Addr().Unmap(), true
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

func containsAddr(prefixes []netip.Prefix, addr netip.Addr) bool {
	for _, p := range prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
