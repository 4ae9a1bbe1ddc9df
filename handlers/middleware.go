package handlers

import (
	"net/http"
	"strings"

	"github.com/CrowderSoup/priority-pilot/services"
	"github.com/rs/zerolog/log"
)

type AuthMiddleware struct {
	authService *services.AuthService
}

func NewAuthMiddleware(authService *services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

// Auth resolves the bearer token to a user and stores it in the request
// context. Websocket clients cannot set headers, so a token query parameter
// is accepted as well.
func (m *AuthMiddleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			// Extract token from Bearer format
			authParts := strings.Split(authHeader, " ")
			if len(authParts) != 2 || authParts[0] != "Bearer" {
				writeError(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}
			tokenString = authParts[1]
		}

		user, err := m.authService.VerifyJWT(tokenString)
		if err != nil {
			log.Debug().Err(err).Msg("Rejected token")
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(services.WithUser(r.Context(), user)))
	})
}

// ManagerOnly rejects users without the manager role. It must run after Auth.
func ManagerOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !services.IsManager(services.UserFromContext(r.Context())) {
			writeError(w, http.StatusForbidden, "manager role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
