package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/flarenet/platform/internal/constants"
	"github.com/flarenet/platform/internal/httputil"
	"github.com/flarenet/platform/internal/ratelimit"
)

// JWTClaims represents the claims in the JWT token
type JWTClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Plan   string `json:"plan"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates JWT tokens and sets X-User-Id header for downstream handlers
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authorization := r.Header.Get("Authorization")

			if authorization == "" {
				httputil.WriteError(w, constants.ErrAuthHeaderRequired)
				return
			}

			// Remove "Bearer " prefix if present
			tokenString := strings.TrimPrefix(authorization, "Bearer ")

			token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (any, error) {
				return []byte(jwtSecret), nil
			})

			if err != nil || !token.Valid {
				httputil.WriteError(w, constants.ErrInvalidToken)
				return
			}

			claims, ok := token.Claims.(*JWTClaims)
			if !ok {
				httputil.WriteError(w, constants.ErrInvalidTokenClaims)
				return
			}

			// Set user ID in request header for downstream handlers
			r.Header.Set("X-User-Id", claims.UserID)

			// Attach the plan from the token so the rate limit policy
			// resolver can pick the caller's limits without a second
			// database lookup.
			if claims.Plan != "" {
				r = r.WithContext(context.WithValue(r.Context(), ratelimit.PlanContextKey, claims.Plan))
			}

			next.ServeHTTP(w, r)
		})
	}
}
