package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/CrowderSoup/priority-pilot/database"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrTaskNotFound       = errors.New("task not found")
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrInvalidTask        = errors.New("invalid task")
	ErrTaskCompleted      = errors.New("task is already completed")
	ErrPersistence        = errors.New("failed to persist tasks")
)

// TaskStorer loads and saves the complete task list.
type TaskStorer interface {
	Load() ([]database.Task, error)
	Save(tasks []database.Task) error
}

// NewTask holds the caller-supplied fields of a task being created. The
// manager priority is only ever set through SetManagerPriority.
type NewTask struct {
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	UserPriority database.Priority `json:"userPriority"`
	DueDate      string            `json:"dueDate"`
}

type NewAttachment struct {
	Type database.AttachmentKind `json:"type"`
	Name string                  `json:"name"`
	URL  string                  `json:"url"`
}

// TaskService owns the task list. Every change goes through Reduce and is
// saved to the store before it becomes visible to readers; the user an
// operation acts for is taken from the context.
type TaskService struct {
	mu       sync.RWMutex
	tasks    []database.Task
	store    TaskStorer
	notifier Notifier
	now      func() time.Time
	lastID   int64
}

func NewTaskService(store TaskStorer, notifier Notifier) *TaskService {
	if notifier == nil {
		notifier = Notifiers{}
	}
	return &TaskService{
		tasks:    []database.Task{},
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

// Load replaces the in-memory list with the stored one.
func (s *TaskService) Load(ctx context.Context) error {
	tasks, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("failed to load tasks: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = Reduce(s.tasks, LoadTasks{Tasks: tasks})
	for _, t := range s.tasks {
		if n, err := strconv.ParseInt(t.ID, 10, 64); err == nil && n > s.lastID {
			s.lastID = n
		}
	}
	log.Info().Int("tasks", len(s.tasks)).Msg("Tasks loaded")
	return nil
}

// UserTasks returns the tasks owned by the user in ctx, or none when ctx
// carries no user.
func (s *TaskService) UserTasks(ctx context.Context) []database.Task {
	user := UserFromContext(ctx)
	if user == nil {
		return []database.Task{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []database.Task{}
	for _, t := range s.tasks {
		if t.UserID == user.ID {
			out = append(out, t.Clone())
		}
	}
	return out
}

// AllTasks returns every task regardless of owner. Callers decide who may
// see them.
func (s *TaskService) AllTasks() []database.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return database.CloneTasks(s.tasks)
}

func (s *TaskService) TaskByID(id string) (database.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.tasks[i].Clone(), true
	}
	return database.Task{}, false
}

// AddTask creates a task owned by the user in ctx.
func (s *TaskService) AddTask(ctx context.Context, in NewTask) (database.Task, error) {
	user := UserFromContext(ctx)
	if user == nil {
		return database.Task{}, ErrUnauthenticated
	}
	in.Title = strings.TrimSpace(in.Title)
	if err := validateFields(in.Title, in.UserPriority, in.DueDate); err != nil {
		return database.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task := database.Task{
		ID:           s.nextID(),
		UserID:       user.ID,
		Title:        in.Title,
		Description:  in.Description,
		UserPriority: in.UserPriority,
		DueDate:      in.DueDate,
		CreatedAt:    s.now(),
		Attachments:  []database.Attachment{},
		Status:       database.StatusTodo,
	}
	if err := s.commit(ctx, AddTask{Task: task}, task.ID); err != nil {
		return database.Task{}, err
	}
	s.notify(ctx, LevelSuccess, "Task added successfully", task.ID)
	return task.Clone(), nil
}

// UpdateTask replaces the stored task with the same ID. The owner, creation
// time, completion state, manager priority and attachments always come from
// the stored task; each has its own operation.
func (s *TaskService) UpdateTask(ctx context.Context, task database.Task) (database.Task, error) {
	task.Title = strings.TrimSpace(task.Title)
	if err := validateFields(task.Title, task.UserPriority, task.DueDate); err != nil {
		return database.Task{}, err
	}
	if !task.Status.Valid() {
		return database.Task{}, fmt.Errorf("%w: unknown status %q", ErrInvalidTask, task.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(task.ID)
	if i < 0 {
		return database.Task{}, ErrTaskNotFound
	}
	existing := s.tasks[i].Clone()
	if existing.IsCompleted && task.NeedsHelp && !existing.NeedsHelp {
		return database.Task{}, ErrTaskCompleted
	}

	task.UserID = existing.UserID
	task.CreatedAt = existing.CreatedAt
	task.IsCompleted = existing.IsCompleted
	task.CompletedAt = existing.CompletedAt
	task.ManagerPriority = existing.ManagerPriority
	task.Attachments = existing.Attachments

	if err := s.commit(ctx, UpdateTask{Task: task}, task.ID); err != nil {
		return database.Task{}, err
	}
	s.notify(ctx, LevelSuccess, "Task updated successfully", task.ID)
	return s.tasks[i].Clone(), nil
}

// SetNeedsHelp raises or clears the help request on a task. Help cannot be
// requested for a completed task.
func (s *TaskService) SetNeedsHelp(ctx context.Context, taskID string, needsHelp bool) (database.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(taskID)
	if i < 0 {
		return database.Task{}, ErrTaskNotFound
	}
	task := s.tasks[i].Clone()
	if needsHelp && task.IsCompleted {
		return database.Task{}, ErrTaskCompleted
	}
	task.NeedsHelp = needsHelp

	if err := s.commit(ctx, UpdateTask{Task: task}, taskID); err != nil {
		return database.Task{}, err
	}
	if needsHelp {
		s.notify(ctx, LevelSuccess, "Help requested", taskID)
	} else {
		s.notify(ctx, LevelSuccess, "Task updated successfully", taskID)
	}
	return task, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(id) < 0 {
		return ErrTaskNotFound
	}
	if err := s.commit(ctx, DeleteTask{ID: id}, id); err != nil {
		return err
	}
	s.notify(ctx, LevelSuccess, "Task deleted successfully", id)
	return nil
}

// CompleteTask marks the task complete as of now. The help flag is left as
// it is.
func (s *TaskService) CompleteTask(ctx context.Context, id string) (database.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return database.Task{}, ErrTaskNotFound
	}
	if err := s.commit(ctx, CompleteTask{ID: id, At: s.now()}, id); err != nil {
		return database.Task{}, err
	}
	s.notify(ctx, LevelSuccess, "Task marked as complete", id)
	return s.tasks[i].Clone(), nil
}

func (s *TaskService) AddAttachment(ctx context.Context, taskID string, in NewAttachment) (database.Attachment, error) {
	if !in.Type.Valid() {
		return database.Attachment{}, fmt.Errorf("%w: unknown attachment type %q", ErrInvalidTask, in.Type)
	}
	if strings.TrimSpace(in.Name) == "" {
		return database.Attachment{}, fmt.Errorf("%w: attachment name is required", ErrInvalidTask)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(taskID) < 0 {
		return database.Attachment{}, ErrTaskNotFound
	}
	attachment := database.Attachment{
		ID:        uuid.NewString(),
		Type:      in.Type,
		Name:      in.Name,
		URL:       in.URL,
		CreatedAt: s.now(),
	}
	if err := s.commit(ctx, AddAttachment{TaskID: taskID, Attachment: attachment}, taskID); err != nil {
		return database.Attachment{}, err
	}
	s.notify(ctx, LevelSuccess, "Attachment added successfully", taskID)
	return attachment, nil
}

func (s *TaskService) RemoveAttachment(ctx context.Context, taskID, attachmentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(taskID)
	if i < 0 {
		return ErrTaskNotFound
	}
	found := false
	for _, a := range s.tasks[i].Attachments {
		if a.ID == attachmentID {
			found = true
			break
		}
	}
	if !found {
		return ErrAttachmentNotFound
	}

	if err := s.commit(ctx, RemoveAttachment{TaskID: taskID, AttachmentID: attachmentID}, taskID); err != nil {
		return err
	}
	s.notify(ctx, LevelSuccess, "Attachment removed successfully", taskID)
	return nil
}

// SetManagerPriority sets the manager priority of a task; nil clears it.
func (s *TaskService) SetManagerPriority(ctx context.Context, taskID string, priority *database.Priority) error {
	if priority != nil && !priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidTask, *priority)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(taskID) < 0 {
		return ErrTaskNotFound
	}
	if err := s.commit(ctx, SetManagerPriority{TaskID: taskID, Priority: priority}, taskID); err != nil {
		return err
	}
	s.notify(ctx, LevelSuccess, "Manager priority set successfully", taskID)
	return nil
}

// RolloverIncompleteTasks moves every incomplete task due yesterday or
// earlier to today. It returns the number of tasks moved.
func (s *TaskService) RolloverIncompleteTasks(ctx context.Context) (int, error) {
	now := s.now()
	today := now.Format(database.DateLayout)
	yesterday := now.AddDate(0, 0, -1).Format(database.DateLayout)

	s.mu.Lock()
	defer s.mu.Unlock()

	moved := 0
	next := database.CloneTasks(s.tasks)
	for i := range next {
		if !next[i].IsCompleted && next[i].DueDate <= yesterday {
			next[i].DueDate = today
			moved++
		}
	}

	if err := s.store.Save(next); err != nil {
		log.Error().Err(err).Msg("Error saving rolled over tasks")
		s.notify(ctx, LevelError, "Failed to roll over tasks", "")
		return 0, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	s.tasks = Reduce(s.tasks, LoadTasks{Tasks: next})

	log.Info().Int("moved", moved).Str("today", today).Msg("Rolled over incomplete tasks")
	s.notify(ctx, LevelInfo, "Incomplete tasks rolled over to today", "")
	return moved, nil
}

// commit applies action and, for mutating actions, saves the result before
// swapping it in. On a failed save the previous list stays current.
// The caller must hold s.mu.
func (s *TaskService) commit(ctx context.Context, action Action, taskID string) error {
	next := Reduce(s.tasks, action)
	if Mutates(action) {
		if err := s.store.Save(next); err != nil {
			log.Error().Err(err).Str("task", taskID).Msgf("Error saving tasks after %T", action)
			s.notify(ctx, LevelError, "Failed to save changes", taskID)
			return fmt.Errorf("%w: %w", ErrPersistence, err)
		}
	}
	s.tasks = next
	return nil
}

func (s *TaskService) notify(ctx context.Context, level Level, message, taskID string) {
	n := Notification{Level: level, Message: message, TaskID: taskID}
	if user := UserFromContext(ctx); user != nil {
		n.UserID = user.ID
	}
	s.notifier.Notify(ctx, n)
}

// nextID derives a task ID from the current time in milliseconds, bumped so
// that IDs strictly increase. The caller must hold s.mu.
func (s *TaskService) nextID() string {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	for s.indexOf(strconv.FormatInt(id, 10)) >= 0 {
		id++
	}
	s.lastID = id
	return strconv.FormatInt(id, 10)
}

func (s *TaskService) indexOf(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func validateFields(title string, priority database.Priority, dueDate string) error {
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidTask)
	}
	if !priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidTask, priority)
	}
	if !database.ValidDate(dueDate) {
		return fmt.Errorf("%w: due date must be YYYY-MM-DD, got %q", ErrInvalidTask, dueDate)
	}
	return nil
}
