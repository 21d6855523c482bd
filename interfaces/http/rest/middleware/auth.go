// Package middleware contains HTTP middleware for the REST interface.
package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"loupe-backend/pkg/auth"
	"loupe-backend/pkg/common"
)

// Authenticator validates the bearer token and stores the resolved
// principal in the request context. Requests without a valid token are
// rejected with 401.
func Authenticator(validator *auth.JWTValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing authorization header")
				return
			}

			claims, err := validator.ValidateToken(header)
			if err != nil {
				logger.Debug("Token validation failed",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
				return
			}

			ctx := auth.SetPrincipal(r.Context(), &auth.Principal{
				UserID: claims.UserID,
				Email:  claims.Email,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
