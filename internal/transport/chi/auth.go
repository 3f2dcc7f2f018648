package chi

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// JWTAuthMiddleware returns a middleware that validates HS256 Bearer tokens
// signed with secret and carrying a user_id claim. If secret is empty,
// authentication is disabled (pass-through).
func JWTAuthMiddleware(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)

	return func(next http.Handler) http.Handler {
		// Auth disabled — pass everything through
		if secret == "" {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Exempt paths
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				writeError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(auth, bearerPrefix) {
				writeError(w, http.StatusUnauthorized, "authorization header must use Bearer scheme")
				return
			}

			claims := jwt.MapClaims{}
			_, err := jwt.ParseWithClaims(auth[len(bearerPrefix):], claims,
				func(t *jwt.Token) (any, error) {
					if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
						return nil, jwt.ErrSignatureInvalid
					}
					return key, nil
				},
				jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			userID, _ := claims["user_id"].(string)
			if userID == "" {
				writeError(w, http.StatusUnauthorized, "token missing user_id claim")
				return
			}

			next.ServeHTTP(w, r.WithContext(contextWithUserID(r.Context(), userID)))
		})
	}
}
