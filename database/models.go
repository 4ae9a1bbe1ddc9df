package database

import (
	"time"
)

// DateLayout is the calendar-date format used for due dates. Due dates are
// compared as strings, which is only chronological while every stored value
// uses this layout.
const DateLayout = "2006-01-02"

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank orders priorities by severity, urgent first.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

func (p Priority) Valid() bool {
	return p.Rank() < 4
}

// Priorities lists every priority from most to least severe.
var Priorities = []Priority{PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow}

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

type AttachmentKind string

const (
	AttachmentFile  AttachmentKind = "file"
	AttachmentLink  AttachmentKind = "link"
	AttachmentEmail AttachmentKind = "email"
)

func (k AttachmentKind) Valid() bool {
	switch k {
	case AttachmentFile, AttachmentLink, AttachmentEmail:
		return true
	}
	return false
}

type Role string

const (
	RoleManager    Role = "manager"
	RoleTeamMember Role = "team_member"
)

type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	ProfileImage string `json:"profileImage,omitempty"`
}

type Attachment struct {
	ID        string         `json:"id"`
	Type      AttachmentKind `json:"type"`
	Name      string         `json:"name"`
	URL       string         `json:"url"`
	CreatedAt time.Time      `json:"createdAt"`
}

type Task struct {
	ID              string       `json:"id"`
	UserID          string       `json:"userId"`
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	UserPriority    Priority     `json:"userPriority"`
	ManagerPriority *Priority    `json:"managerPriority,omitempty"`
	DueDate         string       `json:"dueDate"`
	CreatedAt       time.Time    `json:"createdAt"`
	CompletedAt     *time.Time   `json:"completedAt,omitempty"`
	Attachments     []Attachment `json:"attachments"`
	IsCompleted     bool         `json:"isCompleted"`
	Status          Status       `json:"status"`
	NeedsHelp       bool         `json:"needsHelp"`
}

// Clone returns a copy of the task that shares no memory with t.
func (t Task) Clone() Task {
	c := t
	if t.ManagerPriority != nil {
		p := *t.ManagerPriority
		c.ManagerPriority = &p
	}
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	c.Attachments = make([]Attachment, len(t.Attachments))
	copy(c.Attachments, t.Attachments)
	return c
}

// CloneTasks deep-copies a task list.
func CloneTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

// ValidDate reports whether s is a calendar date in DateLayout.
func ValidDate(s string) bool {
	d, err := time.Parse(DateLayout, s)
	return err == nil && d.Format(DateLayout) == s
}
