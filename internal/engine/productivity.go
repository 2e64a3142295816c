package engine

import (
	"context"
	"errors"
	"math"
	"slices"

	"github.com/nadmax/taskpulse/internal/task"
)

const (
	// ProductivityWindow is how many recent completions the score considers.
	ProductivityWindow = 30

	TrendNoData     = "No data yet"
	TrendImproving  = "Improving"
	TrendNeedsFocus = "Needs focus"

	trendDays = 7
)

var defaultSuggestions = []string{
	"Break down large tasks into smaller subtasks (15-30 mins each).",
	"Focus on completing High-priority tasks during your peak energy hours.",
	"Minimize context switching by batching similar tasks together.",
}

type ProductivityMetrics struct {
	TasksCompleted        int    `json:"tasks_completed"`
	CompletionRate        int    `json:"completion_rate"`
	AverageTimePerTask    int    `json:"average_time_per_task"`
	HighPriorityCompleted int    `json:"high_priority_completed"`
	Trend                 string `json:"trend"`
}

type ProductivityResult struct {
	Score       int                 `json:"score"`
	Metrics     ProductivityMetrics `json:"metrics"`
	Suggestions []string            `json:"suggestions"`
}

type SuggestionRequest struct {
	Score   int                 `json:"score"`
	Metrics ProductivityMetrics `json:"metrics"`
}

// Productivity scores recent completions against the number of root tasks
// the user owns.
func (e *Engine) Productivity(ctx context.Context, completed []task.Task, allRootTaskCount int) ProductivityResult {
	completed = task.Live(completed)
	if len(completed) > ProductivityWindow {
		completed = completed[:ProductivityWindow]
	}

	if len(completed) == 0 {
		return ProductivityResult{
			Metrics:     ProductivityMetrics{Trend: TrendNoData},
			Suggestions: []string{},
		}
	}

	total := len(completed)
	totalTime := 0
	highPriority := 0
	recent := 0
	now := e.now()

	for _, t := range completed {
		totalTime += t.TotalTimeSpent
		if t.Priority == task.HighPriority {
			highPriority++
		}
		if int(math.Floor(now.Sub(t.UpdatedAt).Hours()/24)) <= trendDays {
			recent++
		}
	}

	metrics := ProductivityMetrics{
		TasksCompleted:        total,
		CompletionRate:        roundInt(float64(total) / float64(max(allRootTaskCount, 1)) * 100),
		AverageTimePerTask:    roundInt(float64(totalTime) / float64(total)),
		HighPriorityCompleted: highPriority,
		Trend:                 TrendNeedsFocus,
	}
	if float64(recent) > float64(total)/4 {
		metrics.Trend = TrendImproving
	}

	score := min(productivityScore(metrics), 100)

	suggestions := slices.Clone(defaultSuggestions)
	e.consult(ctx, "suggestions", func(ctx context.Context) error {
		advised, err := e.advisor.Suggestions(ctx, SuggestionRequest{Score: score, Metrics: metrics})
		if err != nil {
			return err
		}
		if advised == nil {
			return errors.New("advisor returned no suggestions")
		}
		suggestions = advised
		return nil
	})

	return ProductivityResult{
		Score:       score,
		Metrics:     metrics,
		Suggestions: suggestions,
	}
}

func productivityScore(m ProductivityMetrics) int {
	score := min(m.CompletionRate, 50)

	switch {
	case m.AverageTimePerTask < 60:
		score += 30
	case m.AverageTimePerTask < 90:
		score += 20
	default:
		score += 10
	}

	if m.HighPriorityCompleted > 0 {
		score += 20
	}

	return score
}

func roundInt(f float64) int {
	return int(math.Round(f))
}
