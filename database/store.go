package database

import (
	"encoding/json"
	"fmt"
	"time"
)

// TaskStore persists the full task list under the "tasks" key.
type TaskStore struct {
	kv  *KVStore
	now func() time.Time
}

func NewTaskStore(kv *KVStore) *TaskStore {
	return &TaskStore{kv: kv, now: time.Now}
}

// Load returns the stored task list, or the seeded example tasks when nothing
// has been saved yet.
func (s *TaskStore) Load() ([]Task, error) {
	value, ok, err := s.kv.Get(TasksKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return SeedTasks(s.now())
	}

	var tasks []Task
	if err := json.Unmarshal([]byte(value), &tasks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tasks: %w", err)
	}
	for i := range tasks {
		if tasks[i].Attachments == nil {
			tasks[i].Attachments = []Attachment{}
		}
	}
	return tasks, nil
}

// Save replaces the stored task list.
func (s *TaskStore) Save(tasks []Task) error {
	if tasks == nil {
		tasks = []Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("failed to marshal tasks: %w", err)
	}
	return s.kv.Set(TasksKey, string(data))
}

// SessionStore persists the signed-in user under the "user" key.
type SessionStore struct {
	kv *KVStore
}

func NewSessionStore(kv *KVStore) *SessionStore {
	return &SessionStore{kv: kv}
}

// Load returns the stored user, or nil when nobody is signed in.
func (s *SessionStore) Load() (*User, error) {
	value, ok, err := s.kv.Get(UserKey)
	if err != nil || !ok {
		return nil, err
	}

	var user User
	if err := json.Unmarshal([]byte(value), &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return &user, nil
}

func (s *SessionStore) Save(user *User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	return s.kv.Set(UserKey, string(data))
}

func (s *SessionStore) Clear() error {
	return s.kv.Delete(UserKey)
}
