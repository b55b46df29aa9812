package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"platformo/internal/auth"
	"platformo/internal/httputil"
)

// AuthMiddleware verifies the Supabase access token on every request except
// those under publicPrefixes and CORS preflights, and stores the user ID in
// the request context.
func AuthMiddleware(verifier auth.JWTVerifier, logger *slog.Logger, publicPrefixes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || isPublic(r.URL.Path, publicPrefixes) {
				next.ServeHTTP(w, r)
				return
			}

			token := httputil.BearerToken(r)
			if token == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing access token")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				logger.Debug("rejected request",
					"path", r.URL.Path,
					"method", r.Method,
				)
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired access token")
				return
			}

			next.ServeHTTP(w, httputil.WithUserID(r, claims.GetUserID()))
		})
	}
}

// isPublic matches exact paths, or path prefixes that end in "/"
func isPublic(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if path == p || (strings.HasSuffix(p, "/") && strings.HasPrefix(path, p)) {
			return true
		}
	}
	return false
}
