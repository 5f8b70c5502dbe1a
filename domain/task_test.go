package domain

import (
	"testing"
	"time"
)

func TestStatusAndPriorityValid(t *testing.T) {
	t.Parallel()

	for _, s := range []Status{StatusPending, StatusInProgress, StatusCompleted} {
		if !s.Valid() {
			t.Errorf("status %q should be valid", s)
		}
	}
	for _, s := range []Status{"", "done", "Pending"} {
		if s.Valid() {
			t.Errorf("status %q should be invalid", s)
		}
	}
	for _, p := range []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent} {
		if !p.Valid() {
			t.Errorf("priority %q should be valid", p)
		}
	}
	for _, p := range []Priority{"", "critical", "HIGH"} {
		if p.Valid() {
			t.Errorf("priority %q should be invalid", p)
		}
	}
}

func TestParseStatus(t *testing.T) {
	t.Parallel()

	got, err := ParseStatus("", StatusPending)
	if err != nil || got != StatusPending {
		t.Fatalf("ParseStatus(\"\") = %q, %v", got, err)
	}
	if _, err := ParseStatus("archived", StatusPending); !IsDomainError(err, ErrCodeInvalid) {
		t.Fatalf("expected invalid, got %v", err)
	}
	if _, err := ParsePriority("critical", PriorityMedium); !IsDomainError(err, ErrCodeInvalid) {
		t.Fatalf("expected invalid, got %v", err)
	}
}

func TestTaskValidate_Defaults(t *testing.T) {
	t.Parallel()

	task := &Task{
		Title:       "  A ",
		Description: "B",
		DueDate:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		AssignedTo:  UserRef{ID: "u1"},
		CreatedBy:   UserRef{ID: "u1"},
	}
	if err := task.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Title != "A" {
		t.Errorf("title not trimmed: %q", task.Title)
	}
	if task.Status != StatusPending || task.Priority != PriorityMedium {
		t.Errorf("defaults not applied: %q %q", task.Status, task.Priority)
	}
}

func TestTaskValidate_Required(t *testing.T) {
	t.Parallel()

	due := time.Now()
	tests := []struct {
		name string
		task Task
	}{
		{"missing title", Task{Description: "B", DueDate: due, AssignedTo: UserRef{ID: "u"}, CreatedBy: UserRef{ID: "u"}}},
		{"blank description", Task{Title: "A", Description: "  ", DueDate: due, AssignedTo: UserRef{ID: "u"}, CreatedBy: UserRef{ID: "u"}}},
		{"missing due date", Task{Title: "A", Description: "B", AssignedTo: UserRef{ID: "u"}, CreatedBy: UserRef{ID: "u"}}},
		{"bad status", Task{Title: "A", Description: "B", DueDate: due, Status: "done", AssignedTo: UserRef{ID: "u"}, CreatedBy: UserRef{ID: "u"}}},
		{"bad priority", Task{Title: "A", Description: "B", DueDate: due, Priority: "p0", AssignedTo: UserRef{ID: "u"}, CreatedBy: UserRef{ID: "u"}}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := tt.task.Validate(); !IsDomainError(err, ErrCodeInvalid) {
				t.Fatalf("expected validation failure, got %v", err)
			}
		})
	}
}

func TestTaskPatchValidate(t *testing.T) {
	t.Parallel()

	blank := "   "
	bad := Status("blocked")
	if err := (&TaskPatch{Title: &blank}).Validate(); !IsDomainError(err, ErrCodeInvalid) {
		t.Fatalf("blank title: got %v", err)
	}
	if err := (&TaskPatch{Status: &bad}).Validate(); !IsDomainError(err, ErrCodeInvalid) {
		t.Fatalf("bad status: got %v", err)
	}

	title := " New "
	patch := &TaskPatch{Title: &title}
	if err := patch.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *patch.Title != "New" {
		t.Fatalf("title not trimmed: %q", *patch.Title)
	}
}

func TestTaskPatchApply(t *testing.T) {
	t.Parallel()

	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	task := &Task{
		ID:         "t1",
		Title:      "A",
		Status:     StatusPending,
		Priority:   PriorityLow,
		AssignedTo: UserRef{ID: "u1", Name: "One", Email: "one@example.com"},
		CreatedBy:  UserRef{ID: "u1"},
		CreatedAt:  created,
		UpdatedAt:  created.Add(time.Hour),
	}

	completed := StatusCompleted
	patch := TaskPatch{Status: &completed, UpdatedAt: created.Add(2 * time.Hour)}
	patch.Apply(task)

	if task.Status != StatusCompleted {
		t.Fatalf("status = %q", task.Status)
	}
	if task.Priority != PriorityLow || task.Title != "A" || task.AssignedTo.Name != "One" {
		t.Fatalf("untouched fields changed: %+v", task)
	}
	if !task.UpdatedAt.Equal(created.Add(2 * time.Hour)) {
		t.Fatalf("updatedAt = %v", task.UpdatedAt)
	}

	// A stale clock never moves updatedAt backwards.
	TaskPatch{UpdatedAt: created.Add(-time.Hour)}.Apply(task)
	if !task.UpdatedAt.Equal(created.Add(2 * time.Hour)) {
		t.Fatalf("updatedAt moved backwards: %v", task.UpdatedAt)
	}

	other := "u2"
	TaskPatch{AssignedTo: &other}.Apply(task)
	if task.AssignedTo != (UserRef{ID: "u2"}) {
		t.Fatalf("assignee = %+v", task.AssignedTo)
	}
}
