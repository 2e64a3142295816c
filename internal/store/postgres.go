package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/nadmax/taskpulse/internal/logging"
	"github.com/nadmax/taskpulse/internal/metrics"
	"github.com/nadmax/taskpulse/internal/task"
)

type PostgresTaskStore struct {
	db  *sql.DB
	log *logging.Logger
}

func NewPostgresTaskStore(connectionString string) (*PostgresTaskStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresTaskStore{db: db, log: logging.Component("store")}, nil
}

// NewPostgresTaskStoreWithDB wraps an existing handle.
func NewPostgresTaskStoreWithDB(db *sql.DB) *PostgresTaskStore {
	return &PostgresTaskStore{db: db, log: logging.Component("store")}
}

func (s *PostgresTaskStore) Find(ctx context.Context, f Filter) (tasks []task.Task, err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreQuery(err, time.Since(start)) }()

	query, args := buildQuery(f)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			s.log.Warnf("failed to close rows: %v", err)
		}
	}()

	tasks = []task.Task{}
	for rows.Next() {
		var t task.Task
		var description, priority, parentID sql.NullString
		var totalTime sql.NullInt64
		var updatedAt sql.NullTime

		if err := rows.Scan(
			&t.ID,
			&t.Title,
			&description,
			&t.Status,
			&priority,
			&parentID,
			&t.AssignedTo,
			&totalTime,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}

		t.Description = description.String
		t.Priority = task.Priority(priority.String).OrDefault()
		t.ParentID = parentID.String
		t.TotalTimeSpent = int(totalTime.Int64)
		if updatedAt.Valid {
			t.UpdatedAt = updatedAt.Time
		}

		tasks = append(tasks, t)
	}

	return tasks, rows.Err()
}

func buildQuery(f Filter) (string, []any) {
	var b strings.Builder
	b.WriteString(`
		SELECT
			id, title, description, status, priority,
			parent_id, assigned_to, total_time_spent, updated_at
		FROM tasks
		WHERE assigned_to = $1 AND is_deleted = FALSE`)
	args := []any{f.OwnerID}

	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(f.Statuses) > 0 {
		statuses := make([]string, 0, len(f.Statuses))
		for _, s := range f.Statuses {
			statuses = append(statuses, string(s))
		}
		fmt.Fprintf(&b, " AND status = ANY(%s)", next(pq.Array(statuses)))
	}
	if f.Priority != "" {
		fmt.Fprintf(&b, " AND COALESCE(priority, 'Medium') = %s", next(string(f.Priority)))
	}
	if f.RootOnly {
		b.WriteString(" AND parent_id IS NULL")
	}
	if f.TrackedOnly {
		b.WriteString(" AND total_time_spent > 0")
	}
	if f.TitleContains != "" {
		fmt.Fprintf(&b, " AND title ~* %s", next(regexp.QuoteMeta(f.TitleContains)))
	}
	if f.NewestFirst {
		b.WriteString(" ORDER BY updated_at DESC")
	} else {
		b.WriteString(" ORDER BY created_at ASC")
	}
	if f.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %s", next(f.Limit))
	}

	return b.String(), args
}

func (s *PostgresTaskStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresTaskStore) Close() error {
	return s.db.Close()
}
