package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/nadmax/taskpulse/internal/task"
)

const dayStartMinutes = 9 * 60

type ScheduleItem struct {
	Title       string `json:"title"`
	Priority    string `json:"priority"`
	Description string `json:"description"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Duration    int    `json:"duration"`
	Reasoning   string `json:"reasoning"`

	// Raw holds the item as it was decoded. When set it is encoded unchanged,
	// so advisor plans pass through with their own field types.
	Raw json.RawMessage `json:"-"`
}

// maxItemMinutes bounds the duration read from a decoded item.
const maxItemMinutes = 24 * 60

type scheduleItemFields ScheduleItem

func (s ScheduleItem) MarshalJSON() ([]byte, error) {
	if len(s.Raw) > 0 {
		return s.Raw, nil
	}
	return json.Marshal(scheduleItemFields(s))
}

// UnmarshalJSON accepts any JSON object. Fields of an unexpected type are
// left zero instead of failing the decode.
func (s *ScheduleItem) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return errors.New("schedule item is not a JSON object")
	}

	*s = ScheduleItem{
		Title:       stringField(fields["title"]),
		Priority:    stringField(fields["priority"]),
		Description: stringField(fields["description"]),
		Start:       stringField(fields["start"]),
		End:         stringField(fields["end"]),
		Duration:    minutesField(fields["duration"]),
		Reasoning:   stringField(fields["reasoning"]),
		Raw:         append(json.RawMessage(nil), data...),
	}
	return nil
}

func stringField(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func minutesField(v any) int {
	var f float64
	switch v := v.(type) {
	case float64:
		f = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}

	if math.IsNaN(f) || f < 0 || f > maxItemMinutes {
		return 0
	}
	return int(math.Round(f))
}

type ScheduleTask struct {
	Title       string `json:"title"`
	Priority    string `json:"priority"`
	Description string `json:"description"`
}

type CompletedSummary struct {
	Title   string `json:"title"`
	Minutes int    `json:"minutes"`
}

type ScheduleRequest struct {
	Tasks           []ScheduleTask     `json:"tasks"`
	RecentCompleted []CompletedSummary `json:"recent_completed,omitempty"`
}

// Schedule builds a back-to-back day plan from the pending Todo leaves,
// highest priority first. completedSample only informs the advisor.
func (e *Engine) Schedule(ctx context.Context, pending, completedSample []task.Task) []ScheduleItem {
	todo := make([]task.Task, 0, len(pending))
	for _, t := range task.Live(pending) {
		if t.Status == task.TodoStatus {
			todo = append(todo, t)
		}
	}

	ranked := RankByPriority(LeafTasks(todo))
	if len(ranked) == 0 {
		return []ScheduleItem{}
	}

	req := newScheduleRequest(ranked, completedSample)

	var advised []ScheduleItem
	ok := e.consult(ctx, "schedule", func(ctx context.Context) error {
		items, err := e.advisor.Schedule(ctx, req)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return fmt.Errorf("advisor returned an empty schedule")
		}
		advised = items
		return nil
	})
	if ok {
		return advised
	}

	return StaticSchedule(ranked)
}

// StaticSchedule lays out ranked tasks from 09:00 with no gaps.
func StaticSchedule(ranked []task.Task) []ScheduleItem {
	items := make([]ScheduleItem, 0, len(ranked))
	elapsed := 0

	for _, t := range ranked {
		duration := HeuristicDuration(t.Priority, t.Title)
		start := dayStartMinutes + elapsed

		items = append(items, ScheduleItem{
			Title:       t.Title,
			Priority:    t.Priority.String(),
			Description: t.Description,
			Start:       FormatClock(start),
			End:         FormatClock(start + duration),
			Duration:    duration,
			Reasoning:   fmt.Sprintf("Allocated %d minutes based on complexity and priority (Static Fallback).", duration),
		})

		elapsed += duration
	}

	return items
}

func newScheduleRequest(ranked, completed []task.Task) ScheduleRequest {
	req := ScheduleRequest{Tasks: make([]ScheduleTask, 0, len(ranked))}
	for _, t := range ranked {
		req.Tasks = append(req.Tasks, ScheduleTask{
			Title:       t.Title,
			Priority:    t.Priority.String(),
			Description: t.Description,
		})
	}

	for _, t := range task.Live(completed) {
		if t.TotalTimeSpent > 0 {
			req.RecentCompleted = append(req.RecentCompleted, CompletedSummary{
				Title:   t.Title,
				Minutes: t.TotalTimeSpent,
			})
		}
	}

	return req
}
