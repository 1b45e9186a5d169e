package handler

import (
	"net/http"
	"strings"
)

// originChecker validates the Origin header of handshake requests against a
// configured allow-list. Patterns may end in '*' to allow a prefix, e.g.
// "http://localhost:*". A bare "*" allows every origin. Requests without an
// Origin header (non-browser clients) are allowed.
func originChecker(patterns []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, p := range patterns {
			if p == "*" || p == origin {
				return true
			}
			if strings.HasSuffix(p, "*") && strings.HasPrefix(origin, strings.TrimSuffix(p, "*")) {
				return true
			}
		}
		return false
	}
}
