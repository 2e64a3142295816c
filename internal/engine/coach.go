package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nadmax/taskpulse/internal/task"
)

const SourceNone = "none"

type CoachingTask struct {
	Title     string `json:"title"`
	Priority  string `json:"priority"`
	TimeSpent int    `json:"time_spent"`
}

type CoachingRequest struct {
	Tasks             []CoachingTask `json:"tasks"`
	AverageTime       int            `json:"average_time"`
	HighPriorityCount int            `json:"high_priority_count"`
	TotalCompleted    int            `json:"total_completed"`
}

type CoachResult struct {
	Advice string `json:"advice"`
	Source string `json:"source"`
}

// Coach writes free-text advice about the user's recent completions.
func (e *Engine) Coach(ctx context.Context, completed []task.Task) CoachResult {
	completed = task.Live(completed)
	if len(completed) > ProductivityWindow {
		completed = completed[:ProductivityWindow]
	}

	if len(completed) == 0 {
		return CoachResult{
			Advice: "Complete some tasks to get personalized coaching advice!",
			Source: SourceNone,
		}
	}

	req := CoachingRequest{
		Tasks:          make([]CoachingTask, 0, len(completed)),
		TotalCompleted: len(completed),
	}
	totalTime := 0
	for _, t := range completed {
		totalTime += t.TotalTimeSpent
		if t.Priority == task.HighPriority {
			req.HighPriorityCount++
		}
		req.Tasks = append(req.Tasks, CoachingTask{
			Title:     t.Title,
			Priority:  t.Priority.String(),
			TimeSpent: t.TotalTimeSpent,
		})
	}
	req.AverageTime = roundInt(float64(totalTime) / float64(len(completed)))

	var advice string
	ok := e.consult(ctx, "coaching", func(ctx context.Context) error {
		text, err := e.advisor.Coaching(ctx, req)
		if err != nil {
			return err
		}
		if strings.TrimSpace(text) == "" {
			return errors.New("advisor returned blank advice")
		}
		advice = text
		return nil
	})
	if ok {
		return CoachResult{Advice: advice, Source: SourceAI}
	}

	return CoachResult{Advice: staticAdvice(req), Source: SourceFallback}
}

func staticAdvice(req CoachingRequest) string {
	var b strings.Builder

	b.WriteString("Based on your task completion patterns:\n\n")

	if req.AverageTime > 120 {
		fmt.Fprintf(&b, "Your tasks take an average of %d minutes. Consider breaking larger tasks into smaller subtasks for better focus.\n\n", req.AverageTime)
	}
	if float64(req.HighPriorityCount) > float64(req.TotalCompleted)*0.5 {
		b.WriteString("You're completing a lot of high-priority tasks. Make sure to schedule some lower-priority items to maintain balance.\n\n")
	}

	fmt.Fprintf(&b, "Great job completing %d tasks! Keep up the momentum!", req.TotalCompleted)

	return b.String()
}
