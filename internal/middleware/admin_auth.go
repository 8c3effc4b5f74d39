package middleware

import (
	"crypto/subtle"
	"net/http"
	"quota-api/internal/logger"
	"quota-api/internal/services"

	"github.com/sirupsen/logrus"
)

// AdminMiddleware is the single admin capability check for every admin
// route. It accepts either a JWT carrying the admin role or the current
// rotating operator token.
func AdminMiddleware(authService services.AuthService, tokenService *services.AdminTokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractTokenFromHeader(r)
			if tokenString == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if user, err := authService.VerifyTokenAdmin(tokenString); err == nil {
				ctx := services.WithUserContext(r.Context(), user)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			opsToken, err := tokenService.GetOrCreateAdminToken()
			if err != nil {
				logger.Logger.WithFields(logrus.Fields{"error": err}).Error("admin token lookup failed")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if subtle.ConstantTimeCompare([]byte(tokenString), []byte(opsToken)) != 1 {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := services.WithUserContext(r.Context(), &services.User{ID: "ops", Role: "admin"})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
