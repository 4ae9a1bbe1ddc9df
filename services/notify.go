package services

import (
	"context"

	"github.com/CrowderSoup/priority-pilot/database"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

// Notification is a short user-facing message about the outcome of an
// operation.
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
	TaskID  string `json:"taskId,omitempty"`
	// UserID is the user who triggered the operation, empty if unknown.
	UserID string `json:"userId,omitempty"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Notifiers fans a notification out to every notifier in the list.
type Notifiers []Notifier

func (ns Notifiers) Notify(ctx context.Context, n Notification) {
	for _, notifier := range ns {
		notifier.Notify(ctx, n)
	}
}

// LogNotifier writes notifications to the global logger.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n Notification) {
	var ev *zerolog.Event
	if n.Level == LevelError {
		ev = log.Warn()
	} else {
		ev = log.Info()
	}
	ev.Str("kind", string(n.Level)).
		Str("task", n.TaskID).
		Str("user", n.UserID).
		Msg(n.Message)
}

type contextKey string

const userContextKey contextKey = "user"

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user *database.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(ctx context.Context) *database.User {
	user, _ := ctx.Value(userContextKey).(*database.User)
	return user
}
