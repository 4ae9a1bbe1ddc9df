package handlers

import (
	"net/http"

	"github.com/CrowderSoup/priority-pilot/database"
	"github.com/CrowderSoup/priority-pilot/services"
	"github.com/gorilla/mux"
)

// TeamHandler serves the manager's view across team members. Routes are
// wrapped in ManagerOnly.
type TeamHandler struct {
	tasks *services.TaskService
	auth  *services.AuthService
}

func NewTeamHandler(tasks *services.TaskService, auth *services.AuthService) *TeamHandler {
	return &TeamHandler{tasks: tasks, auth: auth}
}

// Tasks lists incomplete team tasks, optionally for one ?member=
func (h *TeamHandler) Tasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	user := services.UserFromContext(r.Context())
	tasks := services.TeamTasks(h.tasks.AllTasks(), services.TeamFilter{
		Search:         q.Get("search"),
		MemberID:       q.Get("member"),
		ExcludeOwnerID: user.ID,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"data":    tasks,
		"members": h.auth.TeamMembers(),
	})
}

func (h *TeamHandler) HelpRequests(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data":   services.HelpRequests(h.tasks.AllTasks()),
	})
}

// SetManagerPriority sets or, with a null priority, clears the manager
// priority of a task
func (h *TeamHandler) SetManagerPriority(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Priority *database.Priority `json:"priority"`
	}
	if !decode(w, r, &req) {
		return
	}

	id := mux.Vars(r)["id"]
	if err := h.tasks.SetManagerPriority(r.Context(), id, req.Priority); err != nil {
		writeServiceError(w, err)
		return
	}
	task, _ := h.tasks.TaskByID(id)
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": task})
}
