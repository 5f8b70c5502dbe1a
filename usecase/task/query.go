package task

import (
	"github.com/fastygo/taskdesk/domain"
	"github.com/fastygo/taskdesk/repository"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Filters is the closed set of optional list filters. Values are matched
// verbatim: an unknown status or priority simply matches nothing.
type Filters struct {
	Status   string
	Priority string
}

// ListRequest describes a page of the task listing. Zero values mean "not
// supplied" and fall back to the defaults.
type ListRequest struct {
	Page    int
	Limit   int
	Filters Filters
}

// Pagination is reported alongside every listing page.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// ListPlan is the deterministic retrieval plan derived from a ListRequest.
type ListPlan struct {
	Query repository.TaskQuery
	Page  int
	Limit int
}

// BuildListQuery restricts non-admins to their own tasks, ANDs the optional
// filters onto that restriction and normalizes the pagination window. Pages
// below 1 are clamped to 1 and limits are capped at MaxLimit.
func BuildListQuery(principal *domain.Principal, req ListRequest) ListPlan {
	page := req.Page
	if page < 1 {
		page = DefaultPage
	}
	limit := req.Limit
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return ListPlan{
		Query: repository.TaskQuery{
			AssignedTo: domain.VisibilityScope(principal),
			Status:     req.Filters.Status,
			Priority:   req.Filters.Priority,
			Sort:       repository.SortNewest,
			Limit:      limit,
			Offset:     (page - 1) * limit,
		},
		Page:  page,
		Limit: limit,
	}
}

// BuildPriorityQuery lists every visible task of one priority, soonest due first.
func BuildPriorityQuery(principal *domain.Principal, priority string) repository.TaskQuery {
	return repository.TaskQuery{
		AssignedTo: domain.VisibilityScope(principal),
		Priority:   priority,
		Sort:       repository.SortDueSoonest,
	}
}

// Pages returns ceil(total / limit).
func Pages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
