package handlers

import (
	"net/http"

	"github.com/CrowderSoup/priority-pilot/services"
	"github.com/gorilla/mux"
)

// NewRouter wires every API route. Everything except login requires a
// bearer token.
func NewRouter(auth *services.AuthService, tasks *services.TaskService, hub *services.Hub, checkOrigin func(*http.Request) bool) *mux.Router {
	authHandler := NewAuthHandler(auth)
	taskHandler := NewTaskHandler(tasks)
	teamHandler := NewTeamHandler(tasks, auth)
	wsHandler := NewWebSocketHandler(hub, checkOrigin)
	authMiddleware := NewAuthMiddleware(auth)

	r := mux.NewRouter()
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware.Auth)

	api.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST")
	api.HandleFunc("/auth/me", authHandler.Me).Methods("GET")

	api.HandleFunc("/tasks", taskHandler.List).Methods("GET")
	api.HandleFunc("/tasks", taskHandler.Create).Methods("POST")
	api.HandleFunc("/tasks/completed", taskHandler.Completed).Methods("GET")
	api.HandleFunc("/tasks/rollover", taskHandler.Rollover).Methods("POST")
	api.HandleFunc("/tasks/{id}", taskHandler.Get).Methods("GET")
	api.HandleFunc("/tasks/{id}", taskHandler.Update).Methods("PUT")
	api.HandleFunc("/tasks/{id}", taskHandler.Delete).Methods("DELETE")
	api.HandleFunc("/tasks/{id}/complete", taskHandler.Complete).Methods("POST")
	api.HandleFunc("/tasks/{id}/help", taskHandler.SetHelp).Methods("PUT")
	api.HandleFunc("/tasks/{id}/attachments", taskHandler.AddAttachment).Methods("POST")
	api.HandleFunc("/tasks/{id}/attachments/{attachmentId}", taskHandler.RemoveAttachment).Methods("DELETE")
	api.HandleFunc("/calendar", taskHandler.Calendar).Methods("GET")
	api.HandleFunc("/reports/summary", taskHandler.Summary).Methods("GET")

	team := api.PathPrefix("/team").Subrouter()
	team.Use(ManagerOnly)
	team.HandleFunc("/tasks", teamHandler.Tasks).Methods("GET")
	team.HandleFunc("/tasks/{id}/manager-priority", teamHandler.SetManagerPriority).Methods("PUT")
	team.HandleFunc("/help", teamHandler.HelpRequests).Methods("GET")

	// WebSocket route for notifications
	api.HandleFunc("/ws", wsHandler.Handle)

	return r
}
