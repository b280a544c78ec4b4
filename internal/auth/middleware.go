package auth

import (
	"net/http"
	"strings"

	"github.com/tidefall/feedrank/internal/middleware"
)

// OptionalAuth extracts a bearer token from the Authorization header
// and, when it validates, stores the viewer ID on the request context.
// Requests without a token, or with an invalid one, proceed anonymously.
func OptionalAuth(jwtService *JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token != "" {
				if viewerID, err := jwtService.ValidateToken(token); err == nil {
					r = r.WithContext(middleware.SetViewerID(r.Context(), viewerID))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken returns the token portion of an Authorization header,
// or "" when the header is absent or not a bearer scheme.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
