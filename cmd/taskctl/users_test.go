package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fastygo/taskdesk/domain"
	"github.com/fastygo/taskdesk/repository/boltdb"
)

func TestParseUsers(t *testing.T) {
	t.Parallel()

	users, err := parseUsers(strings.NewReader(`
users:
  - id: u1
    name: " Alice "
    email: Alice@Example.com
    role: admin
  - name: Bob
    email: bob@example.com
`))
	if err != nil {
		t.Fatalf("parseUsers: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("users = %+v", users)
	}
	if users[0].Name != "Alice" || users[0].Email != "alice@example.com" || users[0].Role != domain.RoleAdmin {
		t.Fatalf("first user = %+v", users[0])
	}
	if users[1].Role != domain.RoleUser || users[1].ID != "" {
		t.Fatalf("second user = %+v", users[1])
	}
}

func TestParseUsersRejects(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"empty":         ``,
		"missing email": "users:\n  - name: Ann\n",
		"missing name":  "users:\n  - email: a@example.com\n",
		"bad role":      "users:\n  - name: Ann\n    email: a@example.com\n    role: root\n",
		"unknown field": "users:\n  - name: Ann\n    email: a@example.com\n    password: x\n",
		"duplicate":     "users:\n  - name: Ann\n    email: a@example.com\n  - name: Ann2\n    email: A@example.com\n",
	}
	for name, doc := range tests {
		if _, err := parseUsers(strings.NewReader(doc)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

type forgetLog []string

func (f *forgetLog) Forget(_ context.Context, userID string) error {
	*f = append(*f, userID)
	return nil
}

func TestImportUsers(t *testing.T) {
	t.Parallel()

	store, err := boltdb.Open(filepath.Join(t.TempDir(), "users.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()
	repo := boltdb.NewUserRepository(store)

	ctx := context.Background()
	var forgotten forgetLog

	n, err := importUsers(ctx, repo, &forgotten, []domain.User{
		{ID: "u1", Name: "Alice", Email: "alice@example.com", Role: domain.RoleUser},
		{ID: "u2", Name: "Bob", Email: "bob@example.com", Role: domain.RoleUser},
	})
	if err != nil || n != 2 {
		t.Fatalf("import = %d, %v", n, err)
	}

	// promoting an existing user must invalidate its cached principal
	n, err = importUsers(ctx, repo, &forgotten, []domain.User{
		{ID: "u1", Name: "Alice", Email: "alice@example.com", Role: domain.RoleAdmin},
	})
	if err != nil || n != 1 {
		t.Fatalf("re-import = %d, %v", n, err)
	}

	got, err := repo.GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Role != domain.RoleAdmin {
		t.Fatalf("role = %s", got.Role)
	}
	if strings.Join(forgotten, ",") != "u1,u2,u1" {
		t.Fatalf("forgotten = %v", forgotten)
	}

	if _, err := importUsers(ctx, repo, &forgotten, []domain.User{
		{ID: "u3", Name: "Mallory", Email: "bob@example.com", Role: domain.RoleUser},
	}); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("duplicate email import = %v", err)
	}
}

func TestDeleteUsers(t *testing.T) {
	t.Parallel()

	store, err := boltdb.Open(filepath.Join(t.TempDir(), "users.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()
	repo := boltdb.NewUserRepository(store)
	tasks := boltdb.NewTaskRepository(store)

	ctx := context.Background()
	var forgotten forgetLog

	if _, err := importUsers(ctx, repo, &forgotten, []domain.User{
		{ID: "u1", Name: "Alice", Email: "alice@example.com", Role: domain.RoleUser},
		{ID: "u2", Name: "Bob", Email: "bob@example.com", Role: domain.RoleUser},
	}); err != nil {
		t.Fatalf("import: %v", err)
	}
	now := time.Now()
	if _, err := tasks.Create(ctx, &domain.Task{
		Title: "t", Description: "d", DueDate: now,
		Status: domain.StatusPending, Priority: domain.PriorityLow,
		AssignedTo: domain.UserRef{ID: "u2"}, CreatedBy: domain.UserRef{ID: "u2"},
		CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("create task: %v", err)
	}
	forgotten = nil

	n, err := deleteUsers(ctx, repo, &forgotten, []string{"u1", "u2"})
	if n != 1 || !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("delete = %d, %v", n, err)
	}
	if strings.Join(forgotten, ",") != "u1" {
		t.Fatalf("forgotten = %v", forgotten)
	}
	if _, err := repo.GetByID(ctx, "u1"); err != domain.ErrUserNotFound {
		t.Fatalf("u1 still present: %v", err)
	}
	if _, err := repo.GetByID(ctx, "u2"); err != nil {
		t.Fatalf("u2 should survive: %v", err)
	}

	if _, err := deleteUsers(ctx, repo, &forgotten, []string{"ghost"}); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("unknown user = %v", err)
	}
}

func TestWriteUsers(t *testing.T) {
	t.Parallel()

	users := []domain.User{{ID: "u1", Name: "Alice", Email: "alice@example.com", Role: domain.RoleAdmin}}

	var table bytes.Buffer
	if err := writeUsers(&table, users, "table"); err != nil {
		t.Fatalf("table: %v", err)
	}
	if !strings.Contains(table.String(), "alice@example.com") || !strings.HasPrefix(table.String(), "ID") {
		t.Fatalf("table output = %q", table.String())
	}

	var doc bytes.Buffer
	if err := writeUsers(&doc, users, "yaml"); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	parsed, err := parseUsers(&doc)
	if err != nil {
		t.Fatalf("yaml output does not parse back: %v", err)
	}
	if parsed[0] != users[0] {
		t.Fatalf("round trip = %+v", parsed[0])
	}

	if err := writeUsers(&doc, users, "xml"); err == nil {
		t.Fatal("expected unknown format error")
	}
}
