package database

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

type seedAttachment struct {
	ID             string         `yaml:"id"`
	Type           AttachmentKind `yaml:"type"`
	Name           string         `yaml:"name"`
	URL            string         `yaml:"url"`
	CreatedDaysAgo int            `yaml:"createdDaysAgo"`
}

type seedTask struct {
	ID              string           `yaml:"id"`
	UserID          string           `yaml:"userId"`
	Title           string           `yaml:"title"`
	Description     string           `yaml:"description"`
	UserPriority    Priority         `yaml:"userPriority"`
	ManagerPriority Priority         `yaml:"managerPriority"`
	DueInDays       int              `yaml:"dueInDays"`
	CreatedDaysAgo  int              `yaml:"createdDaysAgo"`
	Attachments     []seedAttachment `yaml:"attachments"`
}

// SeedTasks returns the built-in example tasks with dates anchored on now.
func SeedTasks(now time.Time) ([]Task, error) {
	var seeds []seedTask
	if err := yaml.Unmarshal(seedYAML, &seeds); err != nil {
		return nil, fmt.Errorf("failed to parse seed tasks: %w", err)
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	tasks := make([]Task, 0, len(seeds))
	for _, s := range seeds {
		task := Task{
			ID:           s.ID,
			UserID:       s.UserID,
			Title:        s.Title,
			Description:  s.Description,
			UserPriority: s.UserPriority,
			DueDate:      today.AddDate(0, 0, s.DueInDays).Format(DateLayout),
			CreatedAt:    today.AddDate(0, 0, -s.CreatedDaysAgo),
			Attachments:  []Attachment{},
			Status:       StatusTodo,
		}
		if s.ManagerPriority != "" {
			p := s.ManagerPriority
			task.ManagerPriority = &p
		}
		for _, a := range s.Attachments {
			task.Attachments = append(task.Attachments, Attachment{
				ID:        a.ID,
				Type:      a.Type,
				Name:      a.Name,
				URL:       a.URL,
				CreatedAt: today.AddDate(0, 0, -a.CreatedDaysAgo),
			})
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}
