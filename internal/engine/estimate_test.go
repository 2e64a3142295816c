package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nadmax/taskpulse/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func history(titles []string, minutes []int) []task.Task {
	out := make([]task.Task, 0, len(titles))
	for i, title := range titles {
		out = append(out, task.Task{
			ID:             title,
			Title:          title,
			Status:         task.DoneStatus,
			TotalTimeSpent: minutes[i],
		})
	}
	return out
}

func TestFirstToken(t *testing.T) {
	assert.Equal(t, "Deploy", FirstToken("Deploy api to prod"))
	assert.Equal(t, "Deploy", FirstToken("  Deploy\tapi"))
	assert.Equal(t, "", FirstToken("   "))
}

func TestTitleMatcher_TreatsTokenLiterally(t *testing.T) {
	m := TitleMatcher("c++")

	assert.True(t, m.MatchString("Refactor C++ parser"))
	assert.False(t, m.MatchString("Refactor cc parser"))
	assert.True(t, TitleMatcher("(draft)").MatchString("Review (DRAFT) proposal"))
	assert.False(t, TitleMatcher("a.c").MatchString("abc"))
}

func TestEstimate_TitleRequired(t *testing.T) {
	advisor := &stubAdvisor{}
	e := newTestEngine(advisor)

	_, err := e.Estimate(context.Background(), "  ", "details", nil)

	assert.ErrorIs(t, err, ErrTitleRequired)
	assert.Zero(t, advisor.calls.Load())
}

func TestEstimate_FromHistory(t *testing.T) {
	e := newTestEngine(&stubAdvisor{})
	past := history(
		[]string{"Deploy web", "deploy worker", "Redeploy cache"},
		[]int{30, 45, 60},
	)

	est, err := e.Estimate(context.Background(), "Deploy api", "", past)

	require.NoError(t, err)
	assert.Equal(t, Estimate{
		Minutes:   45,
		Source:    SourceHistory,
		Reasoning: "Based on 3 similar tasks you've completed.",
	}, est)
}

func TestEstimate_HistoryFilters(t *testing.T) {
	past := []task.Task{
		{Title: "Deploy a", Status: task.DoneStatus, TotalTimeSpent: 10},
		{Title: "Deploy b", Status: task.DoneStatus, TotalTimeSpent: 0},
		{Title: "Deploy c", Status: task.TodoStatus, TotalTimeSpent: 50},
		{Title: "Deploy d", Status: task.DoneStatus, TotalTimeSpent: 50, IsDeleted: true},
		{Title: "Write e", Status: task.DoneStatus, TotalTimeSpent: 50},
		{Title: "Deploy f", Status: task.DoneStatus, TotalTimeSpent: 20},
	}

	similar := SimilarCompleted("deploy now", past)

	require.Len(t, similar, 2)
	assert.Equal(t, "Deploy a", similar[0].Title)
	assert.Equal(t, "Deploy f", similar[1].Title)
}

func TestEstimate_HistoryCappedAtLimit(t *testing.T) {
	titles := make([]string, 15)
	minutes := make([]int, 15)
	for i := range titles {
		titles[i] = "Sync " + strings.Repeat("x", i)
		minutes[i] = 10
		if i >= HistoryLimit {
			minutes[i] = 1000
		}
	}

	e := newTestEngine(nil)
	est, err := e.Estimate(context.Background(), "Sync calendars", "", history(titles, minutes))

	require.NoError(t, err)
	assert.Equal(t, 10, est.Minutes)
	assert.Equal(t, "Based on 10 similar tasks you've completed.", est.Reasoning)
}

func TestEstimate_AdvisorWhenHistoryThin(t *testing.T) {
	advisor := &stubAdvisor{
		estimate: func(req EstimateRequest) (Estimate, error) {
			assert.Equal(t, "Deploy api", req.Title)
			assert.Equal(t, "blue/green", req.Description)
			return Estimate{Minutes: 75}, nil
		},
	}
	e := newTestEngine(advisor)

	est, err := e.Estimate(context.Background(), "Deploy api", "blue/green", history([]string{"Deploy web"}, []int{30}))

	require.NoError(t, err)
	assert.Equal(t, Estimate{Minutes: 75, Source: SourceAI, Reasoning: "AI estimated based on task complexity."}, est)
}

func TestEstimate_KeywordFallback(t *testing.T) {
	tests := []struct {
		name string
		fn   func(EstimateRequest) (Estimate, error)
	}{
		{name: "no advisor", fn: nil},
		{name: "advisor error", fn: func(EstimateRequest) (Estimate, error) { return Estimate{}, errors.New("bad json") }},
		{name: "advisor zero minutes", fn: func(EstimateRequest) (Estimate, error) { return Estimate{Reasoning: "?"}, nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(&stubAdvisor{estimate: tt.fn})

			est, err := e.Estimate(context.Background(), "Weekly sync meeting", "", nil)

			require.NoError(t, err)
			assert.Equal(t, Estimate{Minutes: 60, Source: SourceFallback, Reasoning: "Keyword-based fallback."}, est)
		})
	}
}

func TestCoach_NoCompletedTasks(t *testing.T) {
	e := newTestEngine(nil)

	result := e.Coach(context.Background(), nil)

	assert.Equal(t, SourceNone, result.Source)
	assert.Contains(t, result.Advice, "Complete some tasks")
}

func TestCoach_StaticAdvice(t *testing.T) {
	e := newTestEngine(nil)
	completed := []task.Task{
		doneTask("a", 150, task.HighPriority, fixedNow),
		doneTask("b", 130, task.HighPriority, fixedNow),
		doneTask("c", 100, task.LowPriority, fixedNow),
	}

	result := e.Coach(context.Background(), completed)

	assert.Equal(t, SourceFallback, result.Source)
	assert.True(t, strings.HasPrefix(result.Advice, "Based on your task completion patterns:"))
	assert.Contains(t, result.Advice, "average of 127 minutes")
	assert.Contains(t, result.Advice, "lower-priority items")
	assert.True(t, strings.HasSuffix(result.Advice, "Great job completing 3 tasks! Keep up the momentum!"))
}

func TestCoach_StaticAdviceOmitsUntriggeredLines(t *testing.T) {
	e := newTestEngine(nil)

	result := e.Coach(context.Background(), []task.Task{doneTask("a", 20, task.LowPriority, fixedNow)})

	assert.NotContains(t, result.Advice, "average of")
	assert.NotContains(t, result.Advice, "lower-priority")
}

func TestCoach_Advisor(t *testing.T) {
	advisor := &stubAdvisor{
		coaching: func(req CoachingRequest) (string, error) {
			assert.Equal(t, 1, req.TotalCompleted)
			assert.Equal(t, 20, req.AverageTime)
			return "Keep shipping.", nil
		},
	}
	e := newTestEngine(advisor)

	result := e.Coach(context.Background(), []task.Task{doneTask("a", 20, task.LowPriority, fixedNow)})

	assert.Equal(t, CoachResult{Advice: "Keep shipping.", Source: SourceAI}, result)
}
