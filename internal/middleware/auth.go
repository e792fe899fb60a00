package middleware

import (
	"net/http"
	"strings"

	logpkg "github.com/benvon/keyword-rotator/internal/logger"
	"github.com/benvon/keyword-rotator/internal/models"
	"github.com/benvon/keyword-rotator/internal/request"
	"go.uber.org/zap"
)

// TokenVerifier validates an admin bearer token
type TokenVerifier interface {
	Verify(tokenString string) (*models.AdminClaims, error)
}

// AdminAuth requires a valid admin bearer token. With a nil verifier admin routes are
// disabled and respond 503.
func AdminAuth(verifier TokenVerifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				writeError(w, r, http.StatusServiceUnavailable, "Admin API is not configured")
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, r, http.StatusUnauthorized, "Missing Authorization header")
				return
			}

			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, r, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}

			claims, err := verifier.Verify(parts[1])
			if err != nil {
				logger.Debug("admin_token_rejected",
					zap.String("request_id", request.ID(r.Context())),
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					zap.String("error", logpkg.SanitizeError(err)),
				)
				writeError(w, r, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			logger.Info("admin_request",
				zap.String("request_id", request.ID(r.Context())),
				zap.String("subject", logpkg.SanitizeString(claims.Subject, logpkg.MaxGeneralStringLength)),
				zap.String("method", r.Method),
				zap.String("path", logpkg.SanitizePath(r.URL.Path)),
			)
			next.ServeHTTP(w, r.WithContext(request.WithAdmin(r.Context(), claims)))
		})
	}
}
