package services

import (
	"time"

	"github.com/CrowderSoup/priority-pilot/database"
)

// Action is one task-list transition. The set of actions is closed: only the
// types in this file implement it.
type Action interface {
	isAction()
}

// LoadTasks replaces the whole list.
type LoadTasks struct {
	Tasks []database.Task
}

// AddTask appends a fully initialised task.
type AddTask struct {
	Task database.Task
}

// UpdateTask replaces the task with the same ID.
type UpdateTask struct {
	Task database.Task
}

type DeleteTask struct {
	ID string
}

// CompleteTask marks a task complete at the given instant.
type CompleteTask struct {
	ID string
	At time.Time
}

type AddAttachment struct {
	TaskID     string
	Attachment database.Attachment
}

type RemoveAttachment struct {
	TaskID       string
	AttachmentID string
}

// SetManagerPriority sets the manager priority; a nil Priority clears it.
type SetManagerPriority struct {
	TaskID   string
	Priority *database.Priority
}

func (LoadTasks) isAction()          {}
func (AddTask) isAction()            {}
func (UpdateTask) isAction()         {}
func (DeleteTask) isAction()         {}
func (CompleteTask) isAction()       {}
func (AddAttachment) isAction()      {}
func (RemoveAttachment) isAction()   {}
func (SetManagerPriority) isAction() {}

// Mutates reports whether applying the action must be persisted.
func Mutates(action Action) bool {
	switch action.(type) {
	case LoadTasks, nil:
		return false
	}
	return true
}

// Reduce returns the task list that results from applying action to tasks.
// The input list and its tasks are never modified; tasks the action does not
// touch are carried over as copies. Actions naming an unknown task ID leave
// the list unchanged.
func Reduce(tasks []database.Task, action Action) []database.Task {
	switch a := action.(type) {
	case LoadTasks:
		return database.CloneTasks(a.Tasks)

	case AddTask:
		next := database.CloneTasks(tasks)
		task := a.Task.Clone()
		return append(next, task)

	case UpdateTask:
		return mapTask(tasks, a.Task.ID, func(database.Task) database.Task {
			return a.Task.Clone()
		})

	case DeleteTask:
		next := make([]database.Task, 0, len(tasks))
		for _, t := range tasks {
			if t.ID != a.ID {
				next = append(next, t.Clone())
			}
		}
		return next

	case CompleteTask:
		return mapTask(tasks, a.ID, func(t database.Task) database.Task {
			at := a.At
			t.IsCompleted = true
			t.CompletedAt = &at
			return t
		})

	case AddAttachment:
		return mapTask(tasks, a.TaskID, func(t database.Task) database.Task {
			t.Attachments = append(t.Attachments, a.Attachment)
			return t
		})

	case RemoveAttachment:
		return mapTask(tasks, a.TaskID, func(t database.Task) database.Task {
			kept := make([]database.Attachment, 0, len(t.Attachments))
			for _, att := range t.Attachments {
				if att.ID != a.AttachmentID {
					kept = append(kept, att)
				}
			}
			t.Attachments = kept
			return t
		})

	case SetManagerPriority:
		return mapTask(tasks, a.TaskID, func(t database.Task) database.Task {
			if a.Priority == nil {
				t.ManagerPriority = nil
			} else {
				p := *a.Priority
				t.ManagerPriority = &p
			}
			return t
		})
	}

	return database.CloneTasks(tasks)
}

// mapTask copies tasks, passing a private copy of the task with the given ID
// through fn.
func mapTask(tasks []database.Task, id string, fn func(database.Task) database.Task) []database.Task {
	next := make([]database.Task, len(tasks))
	for i, t := range tasks {
		c := t.Clone()
		if t.ID == id {
			c = fn(c)
		}
		next[i] = c
	}
	return next
}
