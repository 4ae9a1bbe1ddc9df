package services

import (
	"sort"

	"github.com/CrowderSoup/priority-pilot/database"
)

// CompletedTasks returns the completed tasks matching search, most recently
// completed first.
func CompletedTasks(tasks []database.Task, search string) []database.Task {
	out := []database.Task{}
	for _, t := range tasks {
		if t.IsCompleted && MatchesSearch(t, search) {
			out = append(out, t.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return completedUnix(out[i]) > completedUnix(out[j])
	})
	return out
}

func completedUnix(t database.Task) int64 {
	if t.CompletedAt == nil {
		return 0
	}
	return t.CompletedAt.UnixMilli()
}

// TeamFilter narrows the manager's view of team tasks.
type TeamFilter struct {
	Search string
	// MemberID limits the view to one team member when set.
	MemberID string
	// ExcludeOwnerID drops tasks owned by this user, normally the manager.
	ExcludeOwnerID string
}

// TeamTasks returns the incomplete tasks of the team that match f, soonest
// due first.
func TeamTasks(tasks []database.Task, f TeamFilter) []database.Task {
	out := []database.Task{}
	for _, t := range tasks {
		switch {
		case t.IsCompleted:
		case f.ExcludeOwnerID != "" && t.UserID == f.ExcludeOwnerID:
		case f.MemberID != "" && t.UserID != f.MemberID:
		case !MatchesSearch(t, f.Search):
		default:
			out = append(out, t.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DueDate < out[j].DueDate
	})
	return out
}

// HelpRequests returns the incomplete tasks whose owner asked for help.
func HelpRequests(tasks []database.Task) []database.Task {
	out := []database.Task{}
	for _, t := range tasks {
		if t.NeedsHelp && !t.IsCompleted {
			out = append(out, t.Clone())
		}
	}
	return out
}

type Summary struct {
	Total      int                       `json:"total"`
	Completed  int                       `json:"completed"`
	Overdue    int                       `json:"overdue"`
	NeedsHelp  int                       `json:"needsHelp"`
	ByStatus   map[database.Status]int   `json:"byStatus"`
	ByPriority map[database.Priority]int `json:"byPriority"`
}

// Summarize counts tasks by status and user priority. A task is overdue when
// it is incomplete and due before today (YYYY-MM-DD).
func Summarize(tasks []database.Task, today string) Summary {
	s := Summary{
		ByStatus:   make(map[database.Status]int, len(database.Statuses)),
		ByPriority: make(map[database.Priority]int, len(database.Priorities)),
	}
	for _, st := range database.Statuses {
		s.ByStatus[st] = 0
	}
	for _, p := range database.Priorities {
		s.ByPriority[p] = 0
	}

	for _, t := range tasks {
		s.Total++
		s.ByStatus[t.Status]++
		s.ByPriority[t.UserPriority]++
		if t.IsCompleted {
			s.Completed++
			continue
		}
		if t.DueDate < today {
			s.Overdue++
		}
		if t.NeedsHelp {
			s.NeedsHelp++
		}
	}
	return s
}

// TasksByDate groups tasks by due date.
func TasksByDate(tasks []database.Task) map[string][]database.Task {
	out := make(map[string][]database.Task)
	for _, t := range tasks {
		out[t.DueDate] = append(out[t.DueDate], t.Clone())
	}
	return out
}
