package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/nadmax/taskpulse/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const snapshot = `[
	{"id": "1", "title": "Fix login bug", "status": "Todo", "priority": "High", "assigned_to": "u1"},
	{"id": "2", "title": "Write report", "status": "Todo", "priority": "Low", "assigned_to": "u1"},
	{"id": "3", "title": "Deploy web", "status": "Done", "assigned_to": "u1", "total_time_spent": 40, "updated_at": "2026-03-10T10:00:00Z"},
	{"id": "4", "title": "Deploy worker", "status": "Done", "assigned_to": "u1", "total_time_spent": 50, "updated_at": "2026-03-11T10:00:00Z"},
	{"id": "5", "title": "Deploy cache", "status": "Done", "assigned_to": "u1", "total_time_spent": 60, "updated_at": "2026-03-12T10:00:00Z"},
	{"id": "6", "title": "Other owner", "status": "Todo", "assigned_to": "u2"}
]`

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("ADVISOR_API_KEY", "")
	t.Setenv("TASKPULSE_CONFIG", "")

	path := filepath.Join(t.TempDir(), "tasks.json")
	require.NoError(t, os.WriteFile(path, []byte(snapshot), 0o600))

	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(append([]string{"--tasks", path, "--owner", "u1"}, args...))
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	return out.String(), err
}

func TestSchedule(t *testing.T) {
	out, err := runCLI(t, "schedule")
	require.NoError(t, err)

	var resp struct {
		Schedule []engine.ScheduleItem `json:"schedule"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Schedule, 2)
	assert.Equal(t, "Fix login bug", resp.Schedule[0].Title)
	assert.Equal(t, "9:00", resp.Schedule[0].Start)
	assert.Equal(t, "11:00", resp.Schedule[0].End)
}

func TestBurnout(t *testing.T) {
	out, err := runCLI(t, "burnout")
	require.NoError(t, err)

	var result engine.BurnoutResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 2, result.Metrics.UnfinishedTasks)
}

func TestProductivity(t *testing.T) {
	out, err := runCLI(t, "productivity")
	require.NoError(t, err)

	var result engine.ProductivityResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 3, result.Metrics.TasksCompleted)
	assert.Equal(t, 60, result.Metrics.CompletionRate)
}

func TestEstimate(t *testing.T) {
	out, err := runCLI(t, "estimate", "--title", "Deploy api")
	require.NoError(t, err)

	var est engine.Estimate
	require.NoError(t, json.Unmarshal([]byte(out), &est))
	assert.Equal(t, engine.Estimate{Minutes: 50, Source: engine.SourceHistory, Reasoning: "Based on 3 similar tasks you've completed."}, est)
}

func TestEstimate_RequiresTitle(t *testing.T) {
	_, err := runCLI(t, "estimate")

	assert.ErrorIs(t, err, engine.ErrTitleRequired)
}

func TestCoach(t *testing.T) {
	out, err := runCLI(t, "coach")
	require.NoError(t, err)

	var result engine.CoachResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, engine.SourceFallback, result.Source)
}

func TestMissingSnapshot(t *testing.T) {
	t.Setenv("TASKPULSE_CONFIG", "")

	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs([]string{"--tasks", filepath.Join(t.TempDir(), "none.json"), "--owner", "u1", "burnout"})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()

	assert.ErrorContains(t, err, "failed to read snapshot")
}
