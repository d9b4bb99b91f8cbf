package http

import (
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"

	"github.com/amanshu0143/backend/internal/auth"
	"github.com/amanshu0143/backend/internal/ratelimit"
)

type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// AuthMiddleware requires a valid bearer token. A missing token is 401, a bad
// or expired one is 403.
func AuthMiddleware(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				respondError(w, http.StatusUnauthorized, "Authorization header missing")
				return
			}

			parts := strings.Fields(header)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				respondError(w, http.StatusUnauthorized, "Token not provided")
				return
			}

			claims, err := parser.Parse(parts[1])
			if err != nil {
				respondError(w, http.StatusForbidden, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}

// ProxyRealIP replaces RemoteAddr with the client address from X-Forwarded-For
// or X-Real-IP, but only when the connecting peer is one of trusted. Headers
// from any other peer are ignored, so they cannot pick their own rate limit key.
func ProxyRealIP(trusted []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(trusted) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if peer, ok := parseAddr(r.RemoteAddr); ok && isTrusted(peer, trusted) {
				if ip := forwardedClient(r, trusted); ip.IsValid() {
					r.RemoteAddr = ip.String()
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// forwardedClient walks X-Forwarded-For from the right and returns the first
// hop that is not a trusted proxy. Entries left of it are client supplied.
func forwardedClient(r *http.Request, trusted []netip.Prefix) netip.Addr {
	var hops []string
	for _, v := range r.Header.Values("X-Forwarded-For") {
		hops = append(hops, strings.Split(v, ",")...)
	}
	for i := len(hops) - 1; i >= 0; i-- {
		addr, ok := parseAddr(strings.TrimSpace(hops[i]))
		if !ok {
			return netip.Addr{}
		}
		if !isTrusted(addr, trusted) {
			return addr
		}
	}
	if addr, ok := parseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ok {
		return addr
	}
	return netip.Addr{}
}

// parseAddr accepts a bare address or host:port.
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

func isTrusted(addr netip.Addr, trusted []netip.Prefix) bool {
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// RateLimitMiddleware applies limiter per client IP. The key is the socket
// peer unless ProxyRealIP rewrote it for a trusted proxy.
func RateLimitMiddleware(limiter *ratelimit.Limiter, message string) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(limiter.Window().Seconds()))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientIP(r)) {
				w.Header().Set("Retry-After", retryAfter)
				respondError(w, http.StatusTooManyRequests, message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func BodyLimitMiddleware(max int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, max)
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
