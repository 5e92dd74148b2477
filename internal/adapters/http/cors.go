package http //nolint:revive // package name conflicts with stdlib but is acceptable in this context

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

const (
	corsAllowMethods = "GET, POST, OPTIONS"
	corsAllowHeaders = "Accept, Content-Type, Authorization"
	corsMaxAge       = "86400" // 24 hours
)

// originMatcher matches request origins against exact origins and
// "*.example.com" style wildcard patterns.
type originMatcher struct {
	exact    map[string]bool
	suffixes []string // ".example.com" for "*.example.com"
}

func newOriginMatcher(patterns []string) *originMatcher {
	m := &originMatcher{exact: make(map[string]bool, len(patterns))}
	for _, p := range patterns {
		switch {
		case p == "":
		case strings.HasPrefix(p, "*."):
			m.suffixes = append(m.suffixes, p[1:])
		default:
			m.exact[p] = true
		}
	}
	return m
}

// allowed reports whether origin matches any pattern. A wildcard matches
// subdomains only, never the bare domain.
func (m *originMatcher) allowed(origin string) bool {
	if origin == "" {
		return false
	}
	if m.exact[origin] {
		return true
	}
	host := extractHost(origin)
	for _, suffix := range m.suffixes {
		if strings.HasSuffix(host, suffix) && len(host) > len(suffix) {
			return true
		}
	}
	return false
}

// corsMiddleware sets CORS headers for allowed origins and answers
// preflight requests.
func corsMiddleware(origins []string) mux.MiddlewareFunc {
	matcher := newOriginMatcher(origins)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); matcher.allowed(origin) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Methods", corsAllowMethods)
				h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				h.Set("Access-Control-Max-Age", corsMaxAge)
				h.Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractHost returns the host of an origin without scheme, port or path.
// Example: "https://example.com:8080" returns "example.com".
func extractHost(origin string) string {
	host := origin
	if idx := strings.Index(host, "://"); idx != -1 {
		host = host[idx+3:]
	}
	if idx := strings.IndexAny(host, ":/"); idx != -1 {
		host = host[:idx]
	}
	return host
}
