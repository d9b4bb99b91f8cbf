package http

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"github.com/amanshu0143/backend/internal/auth"
	"github.com/amanshu0143/backend/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthMiddleware(t *testing.T) {
	issuer, err := auth.NewIssuer("middleware-secret", time.Hour)
	require.NoError(t, err)
	other, err := auth.NewIssuer("someone-else", time.Hour)
	require.NoError(t, err)

	valid, _, err := issuer.Issue()
	require.NoError(t, err)
	forged, _, err := other.Issue()
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"missing header", "", http.StatusUnauthorized, "Authorization header missing"},
		{"no scheme", valid, http.StatusUnauthorized, "Token not provided"},
		{"bearer without token", "Bearer", http.StatusUnauthorized, "Token not provided"},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized, "Token not provided"},
		{"garbage token", "Bearer not.a.jwt", http.StatusForbidden, "Invalid or expired token"},
		{"foreign signature", "Bearer " + forged, http.StatusForbidden, "Invalid or expired token"},
		{"valid", "Bearer " + valid, http.StatusNoContent, ""},
		{"lower case scheme", "bearer " + valid, http.StatusNoContent, ""},
	}

	handler := AuthMiddleware(issuer)(okHandler())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			request := httptest.NewRequest("POST", "/api/checkout", nil)
			if tt.header != "" {
				request.Header.Set("Authorization", tt.header)
			}

			handler.ServeHTTP(recorder, request)

			if recorder.Code != tt.status {
				t.Errorf("Expected status code %d, got %d", tt.status, recorder.Code)
			}
			if tt.message != "" {
				assert.Equal(t, tt.message, decodeError(t, recorder).Message)
			}
		})
	}
}

func TestAuthMiddleware_StoresClaims(t *testing.T) {
	issuer, err := auth.NewIssuer("middleware-secret", time.Hour)
	require.NoError(t, err)
	token, issued, err := issuer.Issue()
	require.NoError(t, err)

	var clientID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.ClaimsFromContext(r.Context())
		if ok {
			clientID = claims.ClientID
		}
	})

	request := httptest.NewRequest("GET", "/", nil)
	request.Header.Set("Authorization", "Bearer "+token)
	AuthMiddleware(issuer)(next).ServeHTTP(httptest.NewRecorder(), request)

	assert.Equal(t, issued.ClientID, clientID)
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := ratelimit.New(2, time.Minute)
	handler := RateLimitMiddleware(limiter, "slow down")(okHandler())

	send := func(remote string) *httptest.ResponseRecorder {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest("GET", "/", nil)
		request.RemoteAddr = remote
		handler.ServeHTTP(recorder, request)
		return recorder
	}

	assert.Equal(t, http.StatusNoContent, send("10.0.0.1:5000").Code)
	assert.Equal(t, http.StatusNoContent, send("10.0.0.1:5001").Code)

	limited := send("10.0.0.1:5002")
	if limited.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected status code %d, got %d", http.StatusTooManyRequests, limited.Code)
	}
	assert.Equal(t, "60", limited.Header().Get("Retry-After"))
	assert.Equal(t, "slow down", decodeError(t, limited).Message)

	// another client has its own bucket
	assert.Equal(t, http.StatusNoContent, send("10.0.0.2:5000").Code)
}

func TestClientIP(t *testing.T) {
	request := httptest.NewRequest("GET", "/", nil)
	request.RemoteAddr = "203.0.113.7:443"
	assert.Equal(t, "203.0.113.7", clientIP(request))

	request.RemoteAddr = "203.0.113.7"
	assert.Equal(t, "203.0.113.7", clientIP(request))
}

func TestProxyRealIP(t *testing.T) {
	proxies := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}

	tests := []struct {
		name     string
		trusted  []netip.Prefix
		remote   string
		forward  []string
		realIP   string
		expected string
	}{
		{"no trusted proxies ignores headers", nil, "198.51.100.9:4000", []string{"10.0.0.7"}, "10.0.0.8", "198.51.100.9:4000"},
		{"untrusted peer ignores headers", proxies, "198.51.100.9:4000", []string{"203.0.113.5"}, "", "198.51.100.9:4000"},
		{"trusted peer uses forwarded client", proxies, "10.1.2.3:4000", []string{"203.0.113.5"}, "", "203.0.113.5"},
		{"spoofed left entries are skipped", proxies, "10.1.2.3:4000", []string{"1.2.3.4, 203.0.113.5, 10.0.0.1"}, "", "203.0.113.5"},
		{"repeated headers are joined", proxies, "10.1.2.3:4000", []string{"1.2.3.4", "203.0.113.5"}, "", "203.0.113.5"},
		{"falls back to real ip", proxies, "10.1.2.3:4000", nil, "203.0.113.6", "203.0.113.6"},
		{"garbage hop keeps peer", proxies, "10.1.2.3:4000", []string{"203.0.113.5, nonsense"}, "", "10.1.2.3:4000"},
		{"mapped ipv4 peer", proxies, "[::ffff:10.1.2.3]:4000", []string{"203.0.113.5"}, "", "203.0.113.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = r.RemoteAddr
			})

			request := httptest.NewRequest("GET", "/", nil)
			request.RemoteAddr = tt.remote
			for _, v := range tt.forward {
				request.Header.Add("X-Forwarded-For", v)
			}
			if tt.realIP != "" {
				request.Header.Set("X-Real-IP", tt.realIP)
			}

			ProxyRealIP(tt.trusted)(next).ServeHTTP(httptest.NewRecorder(), request)

			assert.Equal(t, tt.expected, seen)
		})
	}
}
