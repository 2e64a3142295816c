// Package store provides owner-scoped read access to tasks for the analytics
// endpoints. Soft-deleted tasks are never returned.
package store

import (
	"context"
	"regexp"
	"slices"
	"strings"

	"github.com/nadmax/taskpulse/internal/task"
)

// Snapshot sizes used by the analytics endpoints.
const (
	ScheduleHistoryLimit = 20
	RecentDoneLimit      = 30
)

type TaskStore interface {
	Find(ctx context.Context, f Filter) ([]task.Task, error)
	Close() error
}

// Filter narrows a query to one owner's live tasks. Zero-valued fields do
// not constrain the result.
type Filter struct {
	OwnerID  string
	Statuses []task.Status
	Priority task.Priority
	RootOnly bool
	// TitleContains is matched literally and case-insensitively.
	TitleContains string
	// TrackedOnly keeps tasks with recorded time.
	TrackedOnly bool
	NewestFirst bool
	Limit       int
}

func (f Filter) Matches(t task.Task) bool {
	if t.IsDeleted || t.AssignedTo != f.OwnerID {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, t.Status) {
		return false
	}
	if f.Priority != "" && t.Priority.OrDefault() != f.Priority {
		return false
	}
	if f.RootOnly && !t.IsRoot() {
		return false
	}
	if f.TrackedOnly && t.TotalTimeSpent <= 0 {
		return false
	}
	if f.TitleContains != "" && !titlePattern(f.TitleContains).MatchString(t.Title) {
		return false
	}

	return true
}

// titlePattern is the case-insensitive, metacharacter-escaped form of a
// literal title fragment. Postgres evaluates the same string with ~*.
func titlePattern(fragment string) *regexp.Regexp {
	return regexp.MustCompile("(?i)" + regexp.QuoteMeta(fragment))
}

// PendingTodo lists the owner's open Todo tasks, including subtasks.
func PendingTodo(owner string) Filter {
	return Filter{OwnerID: owner, Statuses: []task.Status{task.TodoStatus}}
}

// RecentDoneRoots lists the owner's finished top-level tasks, newest first.
func RecentDoneRoots(owner string, limit int) Filter {
	return Filter{
		OwnerID:     owner,
		Statuses:    []task.Status{task.DoneStatus},
		RootOnly:    true,
		NewestFirst: true,
		Limit:       limit,
	}
}

// AllRoots lists every live top-level task of the owner.
func AllRoots(owner string) Filter {
	return Filter{OwnerID: owner, RootOnly: true}
}

// SimilarDone lists finished tasks with recorded time whose title contains
// token.
func SimilarDone(owner, token string, limit int) Filter {
	return Filter{
		OwnerID:       owner,
		Statuses:      []task.Status{task.DoneStatus},
		TitleContains: strings.TrimSpace(token),
		TrackedOnly:   true,
		Limit:         limit,
	}
}
