package auth

import (
	"encoding/json"
	"net/http"
	"strings"
)

var publicAPIPaths = map[string]struct{}{
	"/api/health":        {},
	"/api/status":        {},
	"/api/auth/register": {},
	"/api/auth/login":    {},
	"/api/auth/refresh":  {},
	"/api/auth/sms/send": {},
}

// Middleware requires a bearer access token for every /api/ path not on the
// public allowlist and makes the token claims available on the context.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}

		if _, ok := publicAPIPaths[r.URL.Path]; ok {
			next.ServeHTTP(w, r)
			return
		}

		token := bearerToken(r)
		if token == "" {
			writeUnauthorized(w)
			return
		}

		claims, err := s.Identify(r.Context(), token)
		if err != nil {
			writeUnauthorized(w)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": "Unauthorized",
	})
}
