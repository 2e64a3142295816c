// Package task defines the task record the analytics engine reads.
// Records are owned by the surrounding CRUD layer; nothing here mutates them.
package task

import (
	"time"
)

type (
	Status   string
	Priority string
	Task     struct {
		ID             string    `json:"id"`
		Title          string    `json:"title"`
		Description    string    `json:"description,omitempty"`
		Status         Status    `json:"status"`
		Priority       Priority  `json:"priority,omitempty"`
		ParentID       string    `json:"parent_id,omitempty"`
		AssignedTo     string    `json:"assigned_to"`
		TotalTimeSpent int       `json:"total_time_spent"`
		UpdatedAt      time.Time `json:"updated_at"`
		IsDeleted      bool      `json:"is_deleted"`
	}
)

const (
	TodoStatus       Status = "Todo"
	InProgressStatus Status = "In Progress"
	DoneStatus       Status = "Done"
)

const (
	LowPriority    Priority = "Low"
	MediumPriority Priority = "Medium"
	HighPriority   Priority = "High"
)

// OrDefault returns Medium for an absent priority.
func (p Priority) OrDefault() Priority {
	if p == "" {
		return MediumPriority
	}

	return p
}

// Weight ranks priorities for scheduling. Unrecognized values weigh 0.
func (p Priority) Weight() int {
	switch p.OrDefault() {
	case HighPriority:
		return 3
	case MediumPriority:
		return 2
	case LowPriority:
		return 1
	default:
		return 0
	}
}

func (p Priority) String() string {
	return string(p.OrDefault())
}

func (t *Task) IsRoot() bool {
	return t.ParentID == ""
}

// Live drops soft-deleted records.
func Live(tasks []Task) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.IsDeleted {
			out = append(out, t)
		}
	}

	return out
}
