package advisor

import (
	"encoding/json"
	"fmt"

	"github.com/nadmax/taskpulse/internal/engine"
)

const systemPrompt = "You are a productivity assistant for a personal task manager. " +
	"Answer with a single JSON object and nothing else."

func schedulePrompt(req engine.ScheduleRequest) string {
	return fmt.Sprintf(`Plan a focused workday starting at 9:00 for the pending tasks below.

TASKS: %s

Rules:
1. Keep every task title exactly as given and schedule high priority work first.
2. Use recent_completed durations, when present, to size similar tasks.
3. Times use H:MM, slots are back to back and duration is in minutes.
4. Reply with {"schedule": [{"title", "priority", "description", "start", "end", "duration", "reasoning"}]}`,
		compact(req))
}

func suggestionsPrompt(req engine.SuggestionRequest) string {
	return fmt.Sprintf(`A user's productivity score is %d out of 100.

METRICS: %s

Give three short, concrete suggestions that address the weakest metric.
Reply with {"suggestions": ["...", "...", "..."]}`,
		req.Score, compact(req.Metrics))
}

func burnoutPrompt(req engine.BurnoutRequest) string {
	return fmt.Sprintf(`A user's burnout risk is %s (score %d out of 100).

METRICS: %s

Explain the three main drivers of this score and give three recovery tips.
Reply with {"reasons": ["...", "...", "..."], "tips": ["...", "...", "..."]}`,
		req.Level, req.Score, compact(req))
}

func estimatePrompt(req engine.EstimateRequest) string {
	return fmt.Sprintf(`Estimate how many minutes a single person needs for this task.

TASK: %s

Reply with {"minutes": number, "reasoning": "one sentence"}`,
		compact(req))
}

func coachingPrompt(req engine.CoachingRequest) string {
	return fmt.Sprintf(`Review these recently completed tasks and coach the user in under 120 words.

HISTORY: %s

Mention one strength and one habit to change.
Reply with {"advice": "..."}`,
		compact(req))
}

func compact(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
