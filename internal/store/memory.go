package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/nadmax/taskpulse/internal/task"
)

// MemoryTaskStore serves tasks from an in-process snapshot. It backs the CLI
// and the handler tests, and records the filters it was asked for.
type MemoryTaskStore struct {
	mu        sync.Mutex
	tasks     []task.Task
	FindCalls []Filter
	FindError error
}

func NewMemoryTaskStore(tasks ...task.Task) *MemoryTaskStore {
	return &MemoryTaskStore{tasks: slices.Clone(tasks)}
}

// LoadSnapshot reads a JSON array of tasks from path.
func LoadSnapshot(path string) (*MemoryTaskStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var tasks []task.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	return NewMemoryTaskStore(tasks...), nil
}

func (m *MemoryTaskStore) Add(t task.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, t)
}

func (m *MemoryTaskStore) Find(_ context.Context, f Filter) ([]task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FindCalls = append(m.FindCalls, f)
	if m.FindError != nil {
		return nil, m.FindError
	}

	found := []task.Task{}
	for _, t := range m.tasks {
		if f.Matches(t) {
			t.Priority = t.Priority.OrDefault()
			found = append(found, t)
		}
	}

	if f.NewestFirst {
		slices.SortStableFunc(found, func(a, b task.Task) int {
			return b.UpdatedAt.Compare(a.UpdatedAt)
		})
	}
	if f.Limit > 0 && len(found) > f.Limit {
		found = found[:f.Limit]
	}

	return found, nil
}

func (m *MemoryTaskStore) FindCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.FindCalls)
}

func (m *MemoryTaskStore) Close() error {
	return nil
}
