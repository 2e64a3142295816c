package engine

import (
	"fmt"
	"slices"
	"strings"

	"github.com/nadmax/taskpulse/internal/task"
)

const (
	minTaskMinutes = 15
	maxTaskMinutes = 240
)

// LeafTasks returns the tasks that no other task in the same slice names as
// its parent. Containment is judged only against the given candidates.
func LeafTasks(tasks []task.Task) []task.Task {
	parents := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		if t.ParentID != "" {
			parents[t.ParentID] = struct{}{}
		}
	}

	leaves := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if _, isParent := parents[t.ID]; !isParent {
			leaves = append(leaves, t)
		}
	}

	return leaves
}

// RankByPriority returns a copy of tasks stable-sorted by priority weight,
// highest first.
func RankByPriority(tasks []task.Task) []task.Task {
	ranked := slices.Clone(tasks)
	slices.SortStableFunc(ranked, func(a, b task.Task) int {
		return b.Priority.Weight() - a.Priority.Weight()
	})

	return ranked
}

// HeuristicDuration estimates minutes for a task from its priority and title.
// Only the first matching keyword applies.
func HeuristicDuration(p task.Priority, title string) int {
	minutes := 60
	switch p.OrDefault() {
	case task.HighPriority:
		minutes = 90
	case task.LowPriority:
		minutes = 30
	}

	lower := strings.ToLower(title)
	switch {
	case strings.Contains(lower, "meeting"):
		minutes = 30
	case strings.Contains(lower, "bug"):
		minutes += 30
	case strings.Contains(lower, "build"):
		minutes += 60
	}

	return min(max(minutes, minTaskMinutes), maxTaskMinutes)
}

// KeywordEstimate is the last-resort estimate for a new task. Rules are
// applied in order and later matches win.
func KeywordEstimate(title string) int {
	lower := strings.ToLower(title)
	minutes := 30

	if strings.Contains(lower, "project") || strings.Contains(lower, "build") {
		minutes = 120
	}
	if strings.Contains(lower, "meeting") {
		minutes = 60
	}
	if strings.Contains(lower, "email") || strings.Contains(lower, "call") {
		minutes = 15
	}

	return minutes
}

// FormatClock renders minutes since midnight as H:MM. Hours past 23 are not
// wrapped.
func FormatClock(totalMinutes int) string {
	return fmt.Sprintf("%d:%02d", totalMinutes/60, totalMinutes%60)
}
