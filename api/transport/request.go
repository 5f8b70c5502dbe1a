package transport

import (
	"strings"
	"time"

	"github.com/fastygo/taskdesk/domain"
)

// TaskRequest is the body of create and full-update calls. Immutable fields
// (id, createdBy, createdAt, updatedAt) are not part of the shape and unknown
// keys are ignored.
type TaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"dueDate"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	AssignedTo  *string `json:"assignedTo"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

type PriorityRequest struct {
	Priority string `json:"priority"`
}

var dueDateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// ParseDueDate accepts RFC 3339 timestamps and plain calendar dates (UTC).
func ParseDueDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dueDateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, domain.Invalid("dueDate %q is not a valid date", value)
}

// Patch converts the request into a merge set. Present-but-empty values are
// kept so validation can reject them.
func (r TaskRequest) Patch() (domain.TaskPatch, error) {
	patch := domain.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
		AssignedTo:  r.AssignedTo,
	}
	if r.DueDate != nil {
		due, err := ParseDueDate(*r.DueDate)
		if err != nil {
			return domain.TaskPatch{}, err
		}
		patch.DueDate = &due
	}
	if r.Status != nil {
		status := domain.Status(*r.Status)
		patch.Status = &status
	}
	if r.Priority != nil {
		priority := domain.Priority(*r.Priority)
		patch.Priority = &priority
	}
	return patch, nil
}

// Value returns the string behind an optional field, or "".
func Value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
