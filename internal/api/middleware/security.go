package middleware

import (
	"net/http"
	"strings"

	"github.com/airwise/airwise/internal/api/models"
)

// securityHeaders are set on every response. The API serves only JSON, so
// the content policy denies everything.
var securityHeaders = [...][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Strict-Transport-Security", "max-age=31536000; includeSubDomains"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"Referrer-Policy", "no-referrer"},
	{"Permissions-Policy", "geolocation=(), camera=(), microphone=()"},
	{"Cross-Origin-Resource-Policy", "cross-origin"},
}

// SecurityHeaders adds the security response headers. Handlers run after it
// and may override any of them.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for _, kv := range securityHeaders {
			h.Set(kv[0], kv[1])
		}
		next.ServeHTTP(w, r)
	})
}

// RequireTLS rejects plain-HTTP requests when enabled. It trusts the
// X-Forwarded-Proto header set by the load balancer; requests without the
// header (direct connections, local development) pass, and so do paths
// under any of the exempt prefixes, which the load balancer health-checks over
// plain HTTP.
func RequireTLS(enabled bool, exemptPrefixes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			proto := strings.ToLower(r.Header.Get("X-Forwarded-Proto"))
			if proto == "" || proto == "https" || exempt(r.URL.Path, exemptPrefixes) {
				next.ServeHTTP(w, r)
				return
			}
			models.NewProblem(models.KindTLSRequired, GetRequestID(r.Context()), r.URL.Path,
				"This endpoint requires HTTPS").Write(w)
		})
	}
}

func exempt(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
