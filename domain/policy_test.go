package domain

import "testing"

func TestCanAccess(t *testing.T) {
	t.Parallel()

	owner := &Principal{ID: "u1", Role: RoleUser}
	stranger := &Principal{ID: "u2", Role: RoleUser}
	admin := &Principal{ID: "a1", Role: RoleAdmin}
	task := &Task{ID: "t1", AssignedTo: UserRef{ID: "u1"}, CreatedBy: UserRef{ID: "u2"}}

	tests := []struct {
		name      string
		principal *Principal
		want      bool
	}{
		{"assignee", owner, true},
		{"creator who is not assignee", stranger, false},
		{"admin", admin, true},
		{"nil principal", nil, false},
		{"empty id", &Principal{Role: RoleUser}, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			for _, op := range []Operation{OpRead, OpWrite, OpDelete} {
				if got := CanAccess(tt.principal, task, op); got != tt.want {
					t.Fatalf("CanAccess(%s) = %v, want %v", op, got, tt.want)
				}
			}
		})
	}
}

func TestCanAccess_UnknownOperation(t *testing.T) {
	t.Parallel()

	admin := &Principal{ID: "a1", Role: RoleAdmin}
	if CanAccess(admin, &Task{}, Operation("archive")) {
		t.Fatal("unknown operation must be denied")
	}
}

func TestAuthorize(t *testing.T) {
	t.Parallel()

	task := &Task{AssignedTo: UserRef{ID: "u1"}}

	if err := Authorize(nil, task, OpRead); !IsDomainError(err, ErrCodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if err := Authorize(&Principal{ID: "u2", Role: RoleUser}, task, OpWrite); !IsDomainError(err, ErrCodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := Authorize(&Principal{ID: "u1", Role: RoleUser}, task, OpDelete); err != nil {
		t.Fatalf("expected access, got %v", err)
	}
}

func TestVisibilityScope(t *testing.T) {
	t.Parallel()

	if got := VisibilityScope(&Principal{ID: "a1", Role: RoleAdmin}); got != "" {
		t.Fatalf("admin scope = %q, want unrestricted", got)
	}
	if got := VisibilityScope(&Principal{ID: "u1", Role: RoleUser}); got != "u1" {
		t.Fatalf("user scope = %q, want u1", got)
	}
	// Unknown roles are treated as regular users.
	if got := VisibilityScope(&Principal{ID: "x", Role: Role("root")}); got != "x" {
		t.Fatalf("unknown role scope = %q, want x", got)
	}
}
