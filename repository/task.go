package repository

import (
	"context"

	"github.com/fastygo/taskdesk/domain"
)

// TaskSort selects one of the supported result orderings. Ties are broken by
// insertion order so paging stays deterministic.
type TaskSort int

const (
	// SortNewest orders by creation time, most recent first.
	SortNewest TaskSort = iota
	// SortDueSoonest orders by due date, soonest first.
	SortDueSoonest
)

// TaskQuery is a bounded retrieval plan. Empty string fields are not filtered
// on; a zero Limit means unbounded.
type TaskQuery struct {
	AssignedTo string
	Status     string
	Priority   string
	Sort       TaskSort
	Limit      int
	Offset     int
}

// Unwindowed returns the same predicate without the pagination window, for counting.
func (q TaskQuery) Unwindowed() TaskQuery {
	q.Limit = 0
	q.Offset = 0
	return q
}

// Matches evaluates the query predicate against a task.
func (q TaskQuery) Matches(task *domain.Task) bool {
	if task == nil {
		return false
	}
	if q.AssignedTo != "" && task.AssignedTo.ID != q.AssignedTo {
		return false
	}
	if q.Status != "" && string(task.Status) != q.Status {
		return false
	}
	if q.Priority != "" && string(task.Priority) != q.Priority {
		return false
	}
	return true
}

type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	Find(ctx context.Context, query TaskQuery) ([]domain.Task, error)
	Count(ctx context.Context, query TaskQuery) (int, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, id string) error
}
