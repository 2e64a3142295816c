// Package engine holds the deterministic task analytics: daily scheduling,
// productivity and burnout scoring, and duration estimation.
//
// Each operation first asks an optional Advisor for enriched output and falls
// back to its own rule-based result, with the same shape, when the advisor is
// absent, slow or returns something unusable. Advisor failures are logged and
// never reach the caller.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/nadmax/taskpulse/internal/logging"
)

const DefaultAdvisorTimeout = 10 * time.Second

var (
	// ErrNoAdvice is returned by NoAdvisor for every request.
	ErrNoAdvice = errors.New("no advisor configured")
	// ErrTitleRequired is the only error an estimate reports to its caller.
	ErrTitleRequired = errors.New("task title is required")
)

// Advisor is the optional collaborator consulted before each deterministic
// computation. Implementations return an error for anything they cannot
// answer with a well-formed payload.
type Advisor interface {
	Schedule(ctx context.Context, req ScheduleRequest) ([]ScheduleItem, error)
	Suggestions(ctx context.Context, req SuggestionRequest) ([]string, error)
	BurnoutInsights(ctx context.Context, req BurnoutRequest) (BurnoutInsights, error)
	Estimate(ctx context.Context, req EstimateRequest) (Estimate, error)
	Coaching(ctx context.Context, req CoachingRequest) (string, error)
}

// NoAdvisor is the default Advisor: it never answers.
type NoAdvisor struct{}

func (NoAdvisor) Schedule(context.Context, ScheduleRequest) ([]ScheduleItem, error) {
	return nil, ErrNoAdvice
}

func (NoAdvisor) Suggestions(context.Context, SuggestionRequest) ([]string, error) {
	return nil, ErrNoAdvice
}

func (NoAdvisor) BurnoutInsights(context.Context, BurnoutRequest) (BurnoutInsights, error) {
	return BurnoutInsights{}, ErrNoAdvice
}

func (NoAdvisor) Estimate(context.Context, EstimateRequest) (Estimate, error) {
	return Estimate{}, ErrNoAdvice
}

func (NoAdvisor) Coaching(context.Context, CoachingRequest) (string, error) {
	return "", ErrNoAdvice
}

type Config struct {
	Advisor        Advisor
	AdvisorTimeout time.Duration
	Logger         *logging.Logger
	Now            func() time.Time
}

type Engine struct {
	advisor Advisor
	timeout time.Duration
	log     *logging.Logger
	now     func() time.Time
}

func New(cfg Config) *Engine {
	e := &Engine{
		advisor: cfg.Advisor,
		timeout: cfg.AdvisorTimeout,
		log:     cfg.Logger,
		now:     cfg.Now,
	}

	if e.advisor == nil {
		e.advisor = NoAdvisor{}
	}
	if e.timeout <= 0 {
		e.timeout = DefaultAdvisorTimeout
	}
	if e.log == nil {
		e.log = logging.Component("engine")
	}
	if e.now == nil {
		e.now = time.Now
	}

	return e
}

// consult runs one bounded advisor call and reports whether it produced a
// usable answer.
func (e *Engine) consult(ctx context.Context, need string, call func(ctx context.Context) error) bool {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	err := call(ctx)
	if err == nil {
		return true
	}

	if errors.Is(err, ErrNoAdvice) {
		e.log.DebugEvent().Str("need", need).Msg("no advisor, using deterministic result")
	} else {
		e.log.WarnEvent().Err(err).Str("need", need).Msg("advisor failed, using deterministic result")
	}

	return false
}
