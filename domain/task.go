package domain

import (
	"strings"
	"time"
)

// Status is the progress state of a task. Any status may be set from any other.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// ParseStatus returns fallback for an empty value and rejects unknown ones.
func ParseStatus(value string, fallback Status) (Status, error) {
	if value == "" {
		return fallback, nil
	}
	s := Status(value)
	if !s.Valid() {
		return "", Invalid("`%s` is not a valid status", value)
	}
	return s, nil
}

// Priority ranks tasks from low to urgent.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ParsePriority returns fallback for an empty value and rejects unknown ones.
func ParsePriority(value string, fallback Priority) (Priority, error) {
	if value == "" {
		return fallback, nil
	}
	p := Priority(value)
	if !p.Valid() {
		return "", Invalid("`%s` is not a valid priority", value)
	}
	return p, nil
}

// UserRef is a task's reference to a user, expanded with name and email when
// read back from storage.
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Task represents a unit of trackable work owned by its assignee.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"dueDate"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	AssignedTo  UserRef   `json:"assignedTo"`
	CreatedBy   UserRef   `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Validate trims text fields, applies enum defaults and checks required fields.
func (t *Task) Validate() error {
	if t == nil {
		return ErrInvalidPayload
	}
	t.Title = strings.TrimSpace(t.Title)
	t.Description = strings.TrimSpace(t.Description)

	switch {
	case t.Title == "":
		return Invalid("Please provide a task title")
	case t.Description == "":
		return Invalid("Please provide a task description")
	case t.DueDate.IsZero():
		return Invalid("Please provide a due date")
	case t.AssignedTo.ID == "":
		return Invalid("assignedTo is required")
	case t.CreatedBy.ID == "":
		return Invalid("createdBy is required")
	}

	if t.Status == "" {
		t.Status = StatusPending
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if !t.Status.Valid() {
		return Invalid("`%s` is not a valid status", t.Status)
	}
	if !t.Priority.Valid() {
		return Invalid("`%s` is not a valid priority", t.Priority)
	}
	return nil
}

// TaskPatch is the set of mutable fields a caller may change. Nil fields are
// left untouched. id, createdBy and createdAt are deliberately absent.
type TaskPatch struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Status      *Status
	Priority    *Priority
	AssignedTo  *string
	UpdatedAt   time.Time
}

// Validate trims text fields and rejects empty or out-of-set values.
func (p *TaskPatch) Validate() error {
	if p == nil {
		return ErrInvalidPayload
	}
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return Invalid("Please provide a task title")
		}
		p.Title = &title
	}
	if p.Description != nil {
		description := strings.TrimSpace(*p.Description)
		if description == "" {
			return Invalid("Please provide a task description")
		}
		p.Description = &description
	}
	if p.DueDate != nil && p.DueDate.IsZero() {
		return Invalid("Please provide a due date")
	}
	if p.Status != nil && !p.Status.Valid() {
		return Invalid("`%s` is not a valid status", *p.Status)
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return Invalid("`%s` is not a valid priority", *p.Priority)
	}
	if p.AssignedTo != nil && strings.TrimSpace(*p.AssignedTo) == "" {
		return Invalid("assignedTo is required")
	}
	return nil
}

// Apply merges the patch into t. UpdatedAt never moves backwards and never
// precedes CreatedAt.
func (p TaskPatch) Apply(t *Task) {
	if t == nil {
		return
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.AssignedTo != nil && *p.AssignedTo != t.AssignedTo.ID {
		t.AssignedTo = UserRef{ID: *p.AssignedTo}
	}
	t.UpdatedAt = latest(p.UpdatedAt, t.UpdatedAt, t.CreatedAt)
}

func latest(times ...time.Time) time.Time {
	var out time.Time
	for _, ts := range times {
		if ts.After(out) {
			out = ts
		}
	}
	return out
}
