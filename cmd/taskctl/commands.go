package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/nadmax/taskpulse/internal/advisor"
	"github.com/nadmax/taskpulse/internal/config"
	"github.com/nadmax/taskpulse/internal/engine"
	"github.com/nadmax/taskpulse/internal/logging"
	"github.com/nadmax/taskpulse/internal/store"
	"github.com/nadmax/taskpulse/internal/task"
	"github.com/spf13/cobra"
)

// session is the state shared by every subcommand once the persistent flags
// are parsed.
type session struct {
	tasksPath string
	owner     string
	logLevel  string

	store  *store.MemoryTaskStore
	engine *engine.Engine
	out    io.Writer
}

func newRootCmd(out io.Writer) *cobra.Command {
	s := &session{out: out}

	root := &cobra.Command{
		Use:   "taskctl",
		Short: "Run task analytics against a JSON task snapshot",
		Long: `taskctl loads a JSON array of tasks and runs the same scheduling,
scoring and estimation the server exposes, printing the result as JSON.

Set GROQ_API_KEY to let the advisor enrich the results.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.open()
		},
	}

	root.PersistentFlags().StringVar(&s.tasksPath, "tasks", "", "Path to the JSON task snapshot")
	root.PersistentFlags().StringVar(&s.owner, "owner", "", "Owner id the tasks are filtered by")
	root.PersistentFlags().StringVar(&s.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	_ = root.MarkPersistentFlagRequired("tasks")
	_ = root.MarkPersistentFlagRequired("owner")

	root.AddCommand(
		s.scheduleCmd(),
		s.productivityCmd(),
		s.burnoutCmd(),
		s.estimateCmd(),
		s.coachCmd(),
	)

	return root
}

func (s *session) open() error {
	if err := logging.Init(logging.Config{Level: s.logLevel, Format: "text"}); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	s.store, err = store.LoadSnapshot(s.tasksPath)
	if err != nil {
		return err
	}

	engineCfg := engine.Config{AdvisorTimeout: cfg.Advisor.Timeout}
	if cfg.AdvisorEnabled() {
		engineCfg.Advisor = advisor.NewClient(advisor.Config{
			APIKey:  cfg.Advisor.APIKey,
			BaseURL: cfg.Advisor.BaseURL,
			Model:   cfg.Advisor.Model,
			Timeout: cfg.Advisor.Timeout,
		})
	}
	s.engine = engine.New(engineCfg)

	return nil
}

func (s *session) find(ctx context.Context, f store.Filter) ([]task.Task, error) {
	tasks, err := s.store.Find(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("querying snapshot: %w", err)
	}
	return tasks, nil
}

func (s *session) print(v any) error {
	enc := json.NewEncoder(s.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (s *session) scheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Plan today's pending tasks from 9:00",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pending, err := s.find(ctx, store.PendingTodo(s.owner))
			if err != nil {
				return err
			}
			completed, err := s.find(ctx, store.RecentDoneRoots(s.owner, store.ScheduleHistoryLimit))
			if err != nil {
				return err
			}

			return s.print(map[string]any{"schedule": s.engine.Schedule(ctx, pending, completed)})
		},
	}
}

func (s *session) productivityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "productivity",
		Short: "Score recent productivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			completed, err := s.find(ctx, store.RecentDoneRoots(s.owner, store.RecentDoneLimit))
			if err != nil {
				return err
			}
			roots, err := s.find(ctx, store.AllRoots(s.owner))
			if err != nil {
				return err
			}

			return s.print(s.engine.Productivity(ctx, completed, len(roots)))
		},
	}
}

func (s *session) burnoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "burnout",
		Short: "Score burnout risk",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			roots, err := s.find(ctx, store.AllRoots(s.owner))
			if err != nil {
				return err
			}

			return s.print(s.engine.Burnout(ctx, roots))
		},
	}
}

func (s *session) estimateCmd() *cobra.Command {
	var title, description string

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate minutes for a new task",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(title) == "" {
				return engine.ErrTitleRequired
			}

			ctx := cmd.Context()
			history, err := s.find(ctx, store.SimilarDone(s.owner, engine.FirstToken(title), engine.HistoryLimit))
			if err != nil {
				return err
			}

			est, err := s.engine.Estimate(ctx, title, description, history)
			if err != nil {
				return err
			}
			return s.print(est)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Task title")
	cmd.Flags().StringVar(&description, "description", "", "Task description")

	return cmd
}

func (s *session) coachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "coach",
		Short: "Review recently completed work",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			completed, err := s.find(ctx, store.RecentDoneRoots(s.owner, store.RecentDoneLimit))
			if err != nil {
				return err
			}

			return s.print(s.engine.Coach(ctx, completed))
		},
	}
}
