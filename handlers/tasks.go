package handlers

import (
	"net/http"
	"time"

	"github.com/CrowderSoup/priority-pilot/database"
	"github.com/CrowderSoup/priority-pilot/services"
	"github.com/gorilla/mux"
)

// TaskHandler handles task endpoints for the signed-in user
type TaskHandler struct {
	tasks *services.TaskService
	now   func() time.Time
}

func NewTaskHandler(tasks *services.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks, now: time.Now}
}

// List returns the user's tasks filtered by ?search= and ordered by ?sort=
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tasks := services.FilterTasks(h.tasks.UserTasks(r.Context()), q.Get("search"), services.SortKey(q.Get("sort")))
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": tasks})
}

func (h *TaskHandler) Completed(w http.ResponseWriter, r *http.Request) {
	tasks := services.CompletedTasks(h.tasks.UserTasks(r.Context()), r.URL.Query().Get("search"))
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": tasks})
}

// Calendar groups the user's tasks by due date
func (h *TaskHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data":   services.TasksByDate(h.tasks.UserTasks(r.Context())),
	})
}

// Summary counts tasks by status and priority. Managers see the whole team.
func (h *TaskHandler) Summary(w http.ResponseWriter, r *http.Request) {
	tasks := h.tasks.UserTasks(r.Context())
	if services.IsManager(services.UserFromContext(r.Context())) {
		tasks = h.tasks.AllTasks()
	}
	today := h.now().Format(database.DateLayout)
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": services.Summarize(tasks, today)})
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.NewTask
	if !decode(w, r, &req) {
		return
	}
	task, err := h.tasks.AddTask(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"status": "success", "data": task})
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, ok := h.visibleTask(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": task})
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.visibleTask(w, r); !ok {
		return
	}
	var req database.Task
	if !decode(w, r, &req) {
		return
	}
	req.ID = mux.Vars(r)["id"]

	task, err := h.tasks.UpdateTask(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": task})
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	task, ok := h.visibleTask(w, r)
	if !ok {
		return
	}
	if err := h.tasks.DeleteTask(r.Context(), task.ID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	task, ok := h.visibleTask(w, r)
	if !ok {
		return
	}
	task, err := h.tasks.CompleteTask(r.Context(), task.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": task})
}

func (h *TaskHandler) SetHelp(w http.ResponseWriter, r *http.Request) {
	task, ok := h.visibleTask(w, r)
	if !ok {
		return
	}
	var req struct {
		NeedsHelp bool `json:"needsHelp"`
	}
	if !decode(w, r, &req) {
		return
	}
	task, err := h.tasks.SetNeedsHelp(r.Context(), task.ID, req.NeedsHelp)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": task})
}

func (h *TaskHandler) AddAttachment(w http.ResponseWriter, r *http.Request) {
	task, ok := h.visibleTask(w, r)
	if !ok {
		return
	}
	var req services.NewAttachment
	if !decode(w, r, &req) {
		return
	}
	attachment, err := h.tasks.AddAttachment(r.Context(), task.ID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"status": "success", "data": attachment})
}

func (h *TaskHandler) RemoveAttachment(w http.ResponseWriter, r *http.Request) {
	task, ok := h.visibleTask(w, r)
	if !ok {
		return
	}
	if err := h.tasks.RemoveAttachment(r.Context(), task.ID, mux.Vars(r)["attachmentId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// Rollover moves every overdue incomplete task to today
func (h *TaskHandler) Rollover(w http.ResponseWriter, r *http.Request) {
	moved, err := h.tasks.RolloverIncompleteTasks(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "moved": moved})
}

// visibleTask loads the task named in the path. Team members only see their
// own tasks; managers see every task.
func (h *TaskHandler) visibleTask(w http.ResponseWriter, r *http.Request) (database.Task, bool) {
	task, ok := h.tasks.TaskByID(mux.Vars(r)["id"])
	if !ok {
		writeServiceError(w, services.ErrTaskNotFound)
		return database.Task{}, false
	}
	user := services.UserFromContext(r.Context())
	if user == nil || (task.UserID != user.ID && !services.IsManager(user)) {
		writeServiceError(w, services.ErrTaskNotFound)
		return database.Task{}, false
	}
	return task, true
}
