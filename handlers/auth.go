package handlers

import (
	"net/http"

	"github.com/CrowderSoup/priority-pilot/services"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles authentication-related endpoints
type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Login checks the credentials and returns a bearer token for the user
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}

	user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	token, err := h.authService.CreateJWT(user)
	if err != nil {
		log.Error().Err(err).Msg("Error creating JWT")
		writeError(w, http.StatusInternalServerError, "Authentication error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Welcome back, " + user.Name + "!",
		"token":   token,
		"user":    user,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "You have been logged out",
	})
}

// Me returns the user the token was issued to
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := services.UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"user":      user,
		"isManager": services.IsManager(user),
	})
}
