package engine

import (
	"context"
	"errors"
	"math"
	"slices"

	"github.com/nadmax/taskpulse/internal/task"
)

const (
	LevelCritical = "Critical"
	LevelHigh     = "High"
	LevelModerate = "Moderate"
	LevelHealthy  = "Healthy"

	maxLoadRatio = 5.0
)

var (
	defaultBurnoutReasons = []string{
		"High volume of pending work.",
		"Multiple high-priority deadlines.",
		"Steady task accumulation.",
	}
	defaultRecoveryTips = []string{
		"Start with a single easy win to build momentum.",
		"Decline or delegate non-essential meetings.",
		"Take a strict 15-minute break every 2 hours.",
	}
)

type BurnoutMetrics struct {
	UnfinishedTasks        int     `json:"unfinished_tasks"`
	HighPriorityUnfinished int     `json:"high_priority_unfinished"`
	InProgressCount        int     `json:"in_progress_count"`
	TaskLoadRatio          float64 `json:"task_load_ratio"`
	AverageTimePerTask     int     `json:"average_time_per_task"`
	Recommendation         string  `json:"recommendation"`
}

type BurnoutResult struct {
	Score        int            `json:"score"`
	Level        string         `json:"level"`
	Metrics      BurnoutMetrics `json:"metrics"`
	Reasons      []string       `json:"reasons"`
	RecoveryTips []string       `json:"recovery_tips"`
}

type BurnoutRequest struct {
	Score            int     `json:"score"`
	Level            string  `json:"level"`
	TodoCount        int     `json:"todo_count"`
	HighPriorityTodo int     `json:"high_priority_todo"`
	InProgressCount  int     `json:"in_progress_count"`
	LoadRatio        float64 `json:"load_ratio"`
}

type BurnoutInsights struct {
	Reasons []string `json:"reasons"`
	Tips    []string `json:"tips"`
}

// Burnout rates workload risk over the user's root tasks as the sum of four
// independently capped factors.
func (e *Engine) Burnout(ctx context.Context, allRoot []task.Task) BurnoutResult {
	var todo, inProgress, done, highPriorityTodo, doneTime int

	for _, t := range task.Live(allRoot) {
		switch t.Status {
		case task.TodoStatus:
			todo++
			if t.Priority == task.HighPriority {
				highPriorityTodo++
			}
		case task.InProgressStatus:
			inProgress++
		case task.DoneStatus:
			done++
			doneTime += t.TotalTimeSpent
		}
	}

	loadRatio := math.Min(float64(todo+inProgress)/float64(max(done, 1)), maxLoadRatio)

	averageTime := 0
	if done > 0 {
		averageTime = roundInt(float64(doneTime) / float64(done))
	}

	score := workloadFactor(loadRatio) +
		priorityOverloadFactor(highPriorityTodo) +
		timePressureFactor(averageTime) +
		activeLoadFactor(inProgress)
	score = min(max(score, 0), 100)
	level := BurnoutLevel(score)

	result := BurnoutResult{
		Score: score,
		Level: level,
		Metrics: BurnoutMetrics{
			UnfinishedTasks:        todo + inProgress,
			HighPriorityUnfinished: highPriorityTodo,
			InProgressCount:        inProgress,
			TaskLoadRatio:          math.Round(loadRatio*100) / 100,
			AverageTimePerTask:     averageTime,
			Recommendation:         recommendation(score),
		},
		Reasons:      slices.Clone(defaultBurnoutReasons),
		RecoveryTips: slices.Clone(defaultRecoveryTips),
	}

	req := BurnoutRequest{
		Score:            score,
		Level:            level,
		TodoCount:        todo,
		HighPriorityTodo: highPriorityTodo,
		InProgressCount:  inProgress,
		LoadRatio:        loadRatio,
	}

	e.consult(ctx, "burnout", func(ctx context.Context) error {
		insights, err := e.advisor.BurnoutInsights(ctx, req)
		if err != nil {
			return err
		}
		if insights.Reasons == nil || insights.Tips == nil {
			return errors.New("advisor insights missing reasons or tips")
		}
		result.Reasons = insights.Reasons
		result.RecoveryTips = insights.Tips
		return nil
	})

	return result
}

// BurnoutLevel maps a 0-100 score to its category.
func BurnoutLevel(score int) string {
	switch {
	case score > 70:
		return LevelCritical
	case score > 50:
		return LevelHigh
	case score > 30:
		return LevelModerate
	default:
		return LevelHealthy
	}
}

func workloadFactor(loadRatio float64) int {
	switch {
	case loadRatio > 4:
		return 40
	case loadRatio > 3:
		return 30
	case loadRatio > 2:
		return 20
	case loadRatio > 1:
		return 10
	default:
		return 0
	}
}

func priorityOverloadFactor(highPriorityTodo int) int {
	switch {
	case highPriorityTodo > 5:
		return 30
	case highPriorityTodo > 3:
		return 20
	case highPriorityTodo > 1:
		return 10
	default:
		return 0
	}
}

func timePressureFactor(averageTime int) int {
	switch {
	case averageTime > 120:
		return 20
	case averageTime > 90:
		return 10
	default:
		return 0
	}
}

func activeLoadFactor(inProgress int) int {
	if inProgress > 3 {
		return 10
	}
	return 0
}

func recommendation(score int) string {
	if score > 50 {
		return "Action required to prevent total burnout"
	}
	return "Sustainable work patterns detected"
}
