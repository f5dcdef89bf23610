package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"diagramlab/internal/auth"
	"diagramlab/internal/httputil"
)

// AdminSession resolves the optional bearer token into an explicit canDelete
// flag on the request context. Requests without a token proceed read-only;
// a token that fails verification is rejected with 401.
func AdminSession(verifier auth.SessionVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, httputil.WithCanDelete(r, false))
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "authorization header must use the Bearer scheme")
				return
			}

			claims, err := verifier.VerifyToken(strings.TrimSpace(token))
			if err != nil {
				logger.Debug("admin session rejected", "path", r.URL.Path)
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired session")
				return
			}

			next.ServeHTTP(w, httputil.WithCanDelete(r, claims.CanDelete))
		})
	}
}
