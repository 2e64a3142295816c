package engine

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/nadmax/taskpulse/internal/task"
)

const (
	SourceHistory  = "history"
	SourceAI       = "ai"
	SourceFallback = "fallback"

	// HistoryLimit caps how many similar completions feed an estimate.
	HistoryLimit = 10
	// minHistoryMatches is the fewest similar completions trusted over the advisor.
	minHistoryMatches = 3
)

type Estimate struct {
	Minutes   int    `json:"minutes"`
	Source    string `json:"source"`
	Reasoning string `json:"reasoning"`
}

type EstimateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// FirstToken returns the first whitespace-delimited word of title.
func FirstToken(title string) string {
	fields := strings.Fields(title)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// TitleMatcher matches titles containing token literally, ignoring case.
func TitleMatcher(token string) *regexp.Regexp {
	return regexp.MustCompile("(?i)" + regexp.QuoteMeta(token))
}

// SimilarCompleted picks up to HistoryLimit finished tasks whose title
// contains the first word of title and that have recorded time.
func SimilarCompleted(title string, history []task.Task) []task.Task {
	token := FirstToken(title)
	if token == "" {
		return nil
	}

	matcher := TitleMatcher(token)
	similar := make([]task.Task, 0, HistoryLimit)
	for _, t := range task.Live(history) {
		if len(similar) == HistoryLimit {
			break
		}
		if t.Status != task.DoneStatus || t.TotalTimeSpent <= 0 {
			continue
		}
		if matcher.MatchString(t.Title) {
			similar = append(similar, t)
		}
	}

	return similar
}

// Estimate predicts how long a new task will take, preferring the user's own
// history, then the advisor, then keyword rules. Only a blank title is an
// error.
func (e *Engine) Estimate(ctx context.Context, title, description string, history []task.Task) (Estimate, error) {
	if strings.TrimSpace(title) == "" {
		return Estimate{}, ErrTitleRequired
	}

	similar := SimilarCompleted(title, history)
	if len(similar) >= minHistoryMatches {
		total := 0
		for _, t := range similar {
			total += t.TotalTimeSpent
		}

		return Estimate{
			Minutes:   roundInt(float64(total) / float64(len(similar))),
			Source:    SourceHistory,
			Reasoning: fmt.Sprintf("Based on %d similar tasks you've completed.", len(similar)),
		}, nil
	}

	var advised Estimate
	ok := e.consult(ctx, "estimate", func(ctx context.Context) error {
		est, err := e.advisor.Estimate(ctx, EstimateRequest{Title: title, Description: description})
		if err != nil {
			return err
		}
		if est.Minutes <= 0 {
			return errors.New("advisor estimate is not a positive number of minutes")
		}
		advised = est
		return nil
	})
	if ok {
		advised.Source = SourceAI
		if strings.TrimSpace(advised.Reasoning) == "" {
			advised.Reasoning = "AI estimated based on task complexity."
		}
		return advised, nil
	}

	return Estimate{
		Minutes:   KeywordEstimate(title),
		Source:    SourceFallback,
		Reasoning: "Keyword-based fallback.",
	}, nil
}
