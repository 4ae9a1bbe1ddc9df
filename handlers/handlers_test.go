package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/CrowderSoup/priority-pilot/database"
	"github.com/CrowderSoup/priority-pilot/services"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	router *mux.Router
	tasks  *services.TaskService
	store  *database.TaskStore
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.InitDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	kv := database.NewKVStore(db)

	auth, err := services.NewAuthService("test-secret", database.NewSessionStore(kv))
	require.NoError(t, err)

	store := database.NewTaskStore(kv)
	tasks := services.NewTaskService(store, services.LogNotifier{})
	require.NoError(t, tasks.Load(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := services.NewHub()
	go hub.Run(ctx)

	return &testEnv{
		router: NewRouter(auth, tasks, hub, func(*http.Request) bool { return true }),
		tasks:  tasks,
		store:  store,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(t *testing.T, email string) string {
	t.Helper()
	rec := e.do(t, "POST", "/api/auth/login", "", map[string]string{"email": email, "password": "password"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Token string        `json:"token"`
		User  database.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var resp struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp.Data
}

func TestLoginAndAuth(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.do(t, "POST", "/api/auth/login", "", map[string]string{"email": "alice@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, "GET", "/api/tasks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, "GET", "/api/tasks", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := env.login(t, "alice@example.com")
	rec = env.do(t, "GET", "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"isManager":false`)

	rec = env.do(t, "POST", "/api/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Tokens are stateless; logging out clears the stored session only.
	rec = env.do(t, "GET", "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTaskLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	token := env.login(t, "alice@example.com")

	// Alice owns seeded tasks 2 and 3.
	rec := env.do(t, "GET", "/api/tasks?sort=priority", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decodeData[[]database.Task](t, rec)
	require.Len(t, listed, 2)
	assert.Equal(t, "3", listed[0].ID)

	rec = env.do(t, "POST", "/api/tasks", token, services.NewTask{Title: "", UserPriority: "low", DueDate: "2030-01-01"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, "POST", "/api/tasks", token, services.NewTask{
		Title: "Write release notes", UserPriority: database.PriorityUrgent, DueDate: "2030-01-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeData[database.Task](t, rec)
	assert.Equal(t, "2", created.UserID)
	assert.Equal(t, database.StatusTodo, created.Status)

	rec = env.do(t, "GET", "/api/tasks?search=release", token, nil)
	assert.Len(t, decodeData[[]database.Task](t, rec), 1)

	created.Description = "for 2.0"
	rec = env.do(t, "PUT", "/api/tasks/"+created.ID, token, created)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "for 2.0", decodeData[database.Task](t, rec).Description)

	rec = env.do(t, "POST", "/api/tasks/"+created.ID+"/attachments", token,
		services.NewAttachment{Type: database.AttachmentLink, Name: "design doc", URL: "http://x"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	attachment := decodeData[database.Attachment](t, rec)

	rec = env.do(t, "DELETE", "/api/tasks/"+created.ID+"/attachments/"+attachment.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	task, _ := env.tasks.TaskByID(created.ID)
	assert.Empty(t, task.Attachments)

	rec = env.do(t, "DELETE", "/api/tasks/"+created.ID+"/attachments/"+attachment.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, "PUT", "/api/tasks/"+created.ID+"/help", token, map[string]bool{"needsHelp": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeData[database.Task](t, rec).NeedsHelp)

	rec = env.do(t, "POST", "/api/tasks/"+created.ID+"/complete", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	completed := decodeData[database.Task](t, rec)
	assert.True(t, completed.IsCompleted)
	assert.NotNil(t, completed.CompletedAt)

	rec = env.do(t, "GET", "/api/tasks/completed", token, nil)
	assert.Equal(t, []string{created.ID}, taskIDs(decodeData[[]database.Task](t, rec)))

	rec = env.do(t, "DELETE", "/api/tasks/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, "GET", "/api/tasks/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Every change reached the store.
	stored, err := env.store.Load()
	require.NoError(t, err)
	assert.Len(t, stored, 5)
}

func TestTeamMembersCannotSeeOthersTasks(t *testing.T) {
	env := setupTestEnv(t)
	bob := env.login(t, "bob@example.com")

	rec := env.do(t, "GET", "/api/tasks/3", bob, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, "DELETE", "/api/tasks/3", bob, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	_, ok := env.tasks.TaskByID("3")
	assert.True(t, ok)

	rec = env.do(t, "GET", "/api/team/tasks", bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMembersCannotSetManagerPriority(t *testing.T) {
	env := setupTestEnv(t)
	alice := env.login(t, "alice@example.com")

	rec := env.do(t, "GET", "/api/tasks/3", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	task := decodeData[database.Task](t, rec)
	require.NotNil(t, task.ManagerPriority)
	require.Equal(t, database.PriorityUrgent, *task.ManagerPriority)

	low := database.PriorityLow
	task.ManagerPriority = &low
	task.Title = "Fix login redirect"
	rec = env.do(t, "PUT", "/api/tasks/3", alice, task)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeData[database.Task](t, rec)
	assert.Equal(t, "Fix login redirect", updated.Title)
	require.NotNil(t, updated.ManagerPriority)
	assert.Equal(t, database.PriorityUrgent, *updated.ManagerPriority)

	rec = env.do(t, "POST", "/api/tasks", alice, map[string]string{
		"title": "Self-promoted", "userPriority": "low", "managerPriority": "urgent", "dueDate": "2030-01-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeData[database.Task](t, rec)
	assert.Nil(t, created.ManagerPriority)
	assert.NotContains(t, rec.Body.String(), "managerPriority")

	stored, err := env.store.Load()
	require.NoError(t, err)
	for _, s := range stored {
		switch s.ID {
		case "3":
			assert.Equal(t, database.PriorityUrgent, *s.ManagerPriority)
		case created.ID:
			assert.Nil(t, s.ManagerPriority)
		}
	}
}

func TestManagerTeamView(t *testing.T) {
	env := setupTestEnv(t)
	mgr := env.login(t, "manager@example.com")

	rec := env.do(t, "GET", "/api/team/tasks", mgr, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tasks := decodeData[[]database.Task](t, rec)
	assert.ElementsMatch(t, []string{"2", "3", "4", "5"}, taskIDs(tasks))

	rec = env.do(t, "GET", "/api/team/tasks?member=3", mgr, nil)
	assert.ElementsMatch(t, []string{"4", "5"}, taskIDs(decodeData[[]database.Task](t, rec)))

	rec = env.do(t, "PUT", "/api/team/tasks/2/manager-priority", mgr, map[string]string{"priority": "urgent"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, database.PriorityUrgent, *decodeData[database.Task](t, rec).ManagerPriority)

	rec = env.do(t, "PUT", "/api/team/tasks/2/manager-priority", mgr, map[string]any{"priority": nil})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decodeData[database.Task](t, rec).ManagerPriority)

	rec = env.do(t, "PUT", "/api/team/tasks/99/manager-priority", mgr, map[string]string{"priority": "low"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, "GET", "/api/reports/summary", mgr, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, decodeData[services.Summary](t, rec).Total)

	// Managers may open any task.
	rec = env.do(t, "GET", "/api/tasks/4", mgr, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRolloverEndpoint(t *testing.T) {
	env := setupTestEnv(t)
	token := env.login(t, "alice@example.com")

	rec := env.do(t, "POST", "/api/tasks", token, services.NewTask{
		Title: "Overdue", UserPriority: database.PriorityLow, DueDate: "2001-01-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	overdue := decodeData[database.Task](t, rec)

	rec = env.do(t, "POST", "/api/tasks/rollover", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"moved":1`)

	task, _ := env.tasks.TaskByID(overdue.ID)
	assert.NotEqual(t, "2001-01-01", task.DueDate)
}

func taskIDs(tasks []database.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}
