package services

import (
	"sort"
	"strings"

	"github.com/CrowderSoup/priority-pilot/database"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type SortKey string

const (
	SortByDueDate  SortKey = "dueDate"
	SortByPriority SortKey = "priority"
	SortByTitle    SortKey = "title"
)

// MatchesSearch reports whether term occurs in the task's title or
// description, ignoring case. An empty term matches every task.
func MatchesSearch(task database.Task, term string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(task.Title), term) ||
		strings.Contains(strings.ToLower(task.Description), term)
}

// FilterTasks returns the tasks matching search, ordered by key. The sort is
// stable and an unknown key keeps the input order. tasks is not modified.
func FilterTasks(tasks []database.Task, search string, key SortKey) []database.Task {
	out := make([]database.Task, 0, len(tasks))
	for _, t := range tasks {
		if MatchesSearch(t, search) {
			out = append(out, t.Clone())
		}
	}

	switch key {
	case SortByDueDate:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].DueDate < out[j].DueDate
		})
	case SortByPriority:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].UserPriority.Rank() < out[j].UserPriority.Rank()
		})
	case SortByTitle:
		// A Collator is not safe for concurrent use.
		c := collate.New(language.English)
		sort.SliceStable(out, func(i, j int) bool {
			return c.CompareString(out[i].Title, out[j].Title) < 0
		})
	}
	return out
}
