package advisor

import (
	"context"
	"errors"
	"time"

	"github.com/nadmax/taskpulse/internal/engine"
	"github.com/nadmax/taskpulse/internal/metrics"
)

// Outcome labels recorded for each advisor call.
const (
	OutcomeOK      = "ok"
	OutcomeNone    = "none"
	OutcomeTimeout = "timeout"
	OutcomeError   = "error"
)

// Instrumented records call counts and latency for the wrapped advisor.
type Instrumented struct {
	next engine.Advisor
}

var _ engine.Advisor = (*Instrumented)(nil)

func NewInstrumented(next engine.Advisor) *Instrumented {
	return &Instrumented{next: next}
}

func (i *Instrumented) Schedule(ctx context.Context, req engine.ScheduleRequest) ([]engine.ScheduleItem, error) {
	return observe(ctx, "schedule", req, i.next.Schedule)
}

func (i *Instrumented) Suggestions(ctx context.Context, req engine.SuggestionRequest) ([]string, error) {
	return observe(ctx, "suggestions", req, i.next.Suggestions)
}

func (i *Instrumented) BurnoutInsights(ctx context.Context, req engine.BurnoutRequest) (engine.BurnoutInsights, error) {
	return observe(ctx, "burnout", req, i.next.BurnoutInsights)
}

func (i *Instrumented) Estimate(ctx context.Context, req engine.EstimateRequest) (engine.Estimate, error) {
	return observe(ctx, "estimate", req, i.next.Estimate)
}

func (i *Instrumented) Coaching(ctx context.Context, req engine.CoachingRequest) (string, error) {
	return observe(ctx, "coaching", req, i.next.Coaching)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, engine.ErrNoAdvice):
		return OutcomeNone
	case errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimeout
	default:
		return OutcomeError
	}
}

func observe[Req, Resp any](
	ctx context.Context,
	need string,
	req Req,
	call func(context.Context, Req) (Resp, error),
) (Resp, error) {
	start := time.Now()
	resp, err := call(ctx, req)
	metrics.RecordAdvisorCall(need, outcome(err), time.Since(start))
	return resp, err
}
