package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fastygo/taskdesk/domain"
	"github.com/fastygo/taskdesk/internal/infrastructure/monitor"
	"github.com/fastygo/taskdesk/pkg/httpcontext"
	"github.com/fastygo/taskdesk/repository"
	"github.com/fastygo/taskdesk/repository/boltdb"
	profileUC "github.com/fastygo/taskdesk/usecase/profile"
	taskUC "github.com/fastygo/taskdesk/usecase/task"
)

type testEnv struct {
	tasks   *TaskHandler
	profile *ProfileHandler

	alice *domain.Principal
	bob   *domain.Principal
	admin *domain.Principal
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := boltdb.Open(filepath.Join(t.TempDir(), "handler.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	users := boltdb.NewUserRepository(store)
	for _, u := range []domain.User{
		{ID: "alice", Name: "Alice", Email: "alice@example.com", Role: domain.RoleUser},
		{ID: "bob", Name: "Bob", Email: "bob@example.com", Role: domain.RoleUser},
		{ID: "root", Name: "Root", Email: "root@example.com", Role: domain.RoleAdmin},
	} {
		u := u
		if err := users.Upsert(context.Background(), &u); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}

	adapter := httpcontext.NewAdapter(time.Second)
	return &testEnv{
		tasks:   NewTaskHandler(taskUC.New(boltdb.NewTaskRepository(store), nil), adapter, nil),
		profile: NewProfileHandler(profileUC.New(users, nil), adapter, nil),
		alice:   &domain.Principal{ID: "alice", Role: domain.RoleUser},
		bob:     &domain.Principal{ID: "bob", Role: domain.RoleUser},
		admin:   &domain.Principal{ID: "root", Role: domain.RoleAdmin},
	}
}

type request struct {
	method    string
	uri       string
	body      string
	principal *domain.Principal
	params    map[string]string
}

func serve(h fasthttp.RequestHandler, req request) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(req.method)
	ctx.Request.SetRequestURI(req.uri)
	if req.body != "" {
		ctx.Request.SetBodyString(req.body)
	}
	for k, v := range req.params {
		ctx.SetUserValue(k, v)
	}
	if req.principal != nil {
		httpcontext.SetPrincipal(ctx, req.principal)
	}
	h(ctx)
	return ctx
}

type envelope struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	Task       *domain.Task      `json:"task"`
	Tasks      []domain.Task     `json:"tasks"`
	Pagination taskUC.Pagination `json:"pagination"`
	User       *domain.User      `json:"user"`
	Users      []domain.User     `json:"users"`
}

func decode(t *testing.T, ctx *fasthttp.RequestCtx, wantStatus int) envelope {
	t.Helper()

	if got := ctx.Response.StatusCode(); got != wantStatus {
		t.Fatalf("status = %d, want %d (body %s)", got, wantStatus, ctx.Response.Body())
	}
	var out envelope
	if err := json.Unmarshal(ctx.Response.Body(), &out); err != nil {
		t.Fatalf("decode %s: %v", ctx.Response.Body(), err)
	}
	return out
}

func (e *testEnv) create(t *testing.T, principal *domain.Principal, body string) *domain.Task {
	t.Helper()

	ctx := serve(e.tasks.CreateTask, request{method: "POST", uri: "/api/tasks", body: body, principal: principal})
	out := decode(t, ctx, http.StatusCreated)
	if !out.Success || out.Task == nil {
		t.Fatalf("create failed: %+v", out)
	}
	return out.Task
}

func TestCreateTask(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	task := env.create(t, env.alice, `{"title":" Write report ","description":"Q3","dueDate":"2025-03-01","createdBy":"bob","id":"forged"}`)

	if task.ID == "forged" || task.ID == "" {
		t.Fatalf("id must be generated, got %q", task.ID)
	}
	if task.Title != "Write report" {
		t.Fatalf("title = %q", task.Title)
	}
	if task.Status != domain.StatusPending || task.Priority != domain.PriorityMedium {
		t.Fatalf("defaults not applied: %s / %s", task.Status, task.Priority)
	}
	if task.AssignedTo.ID != "alice" || task.AssignedTo.Name != "Alice" || task.CreatedBy.ID != "alice" {
		t.Fatalf("references = %+v / %+v", task.AssignedTo, task.CreatedBy)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"title":`},
		{"missing title", `{"description":"d","dueDate":"2025-03-01"}`},
		{"missing due date", `{"title":"t","description":"d"}`},
		{"bad due date", `{"title":"t","description":"d","dueDate":"tomorrow"}`},
		{"bad status", `{"title":"t","description":"d","dueDate":"2025-03-01","status":"done"}`},
		{"unknown assignee", `{"title":"t","description":"d","dueDate":"2025-03-01","assignedTo":"ghost"}`},
	}
	for _, tt := range tests {
		ctx := serve(env.tasks.CreateTask, request{method: "POST", uri: "/api/tasks", body: tt.body, principal: env.alice})
		out := decode(t, ctx, http.StatusBadRequest)
		if out.Success || out.Code != string(domain.ErrCodeInvalid) || out.Message == "" {
			t.Fatalf("%s: %+v", tt.name, out)
		}
	}
}

func TestUnauthenticatedRequests(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	for name, h := range map[string]fasthttp.RequestHandler{
		"list":   env.tasks.GetTasks,
		"create": env.tasks.CreateTask,
		"me":     env.profile.Me,
	} {
		ctx := serve(h, request{method: "GET", uri: "/api/tasks"})
		out := decode(t, ctx, http.StatusUnauthorized)
		if out.Success || out.Code != string(domain.ErrCodeUnauthorized) {
			t.Fatalf("%s: %+v", name, out)
		}
	}
}

func TestGetTaskAccess(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	task := env.create(t, env.alice, `{"title":"t","description":"d","dueDate":"2025-03-01"}`)
	params := map[string]string{"id": task.ID}

	out := decode(t, serve(env.tasks.GetTask, request{method: "GET", principal: env.alice, params: params}), http.StatusOK)
	if out.Task == nil || out.Task.ID != task.ID {
		t.Fatalf("owner read = %+v", out)
	}

	out = decode(t, serve(env.tasks.GetTask, request{method: "GET", principal: env.bob, params: params}), http.StatusForbidden)
	if out.Code != string(domain.ErrCodeForbidden) {
		t.Fatalf("foreign read = %+v", out)
	}

	decode(t, serve(env.tasks.GetTask, request{method: "GET", principal: env.admin, params: params}), http.StatusOK)

	out = decode(t, serve(env.tasks.GetTask, request{method: "GET", principal: env.bob, params: map[string]string{"id": "missing"}}), http.StatusNotFound)
	if out.Message != domain.ErrTaskNotFound.Message {
		t.Fatalf("missing read = %+v", out)
	}
}

func TestListTasksEnvelope(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	ctx := serve(env.tasks.GetTasks, request{method: "GET", uri: "/api/tasks", principal: env.bob})
	if body := string(ctx.Response.Body()); body != `{"success":true,"tasks":[],"pagination":{"page":1,"limit":10,"total":0,"pages":0}}` {
		t.Fatalf("empty list body = %s", body)
	}

	for i := 0; i < 3; i++ {
		env.create(t, env.alice, `{"title":"t","description":"d","dueDate":"2025-03-01","priority":"high"}`)
	}
	env.create(t, env.bob, `{"title":"b","description":"d","dueDate":"2025-03-01"}`)

	out := decode(t, serve(env.tasks.GetTasks, request{method: "GET", uri: "/api/tasks?page=2&limit=2", principal: env.alice}), http.StatusOK)
	if len(out.Tasks) != 1 {
		t.Fatalf("page 2 size = %d", len(out.Tasks))
	}
	if out.Pagination != (taskUC.Pagination{Page: 2, Limit: 2, Total: 3, Pages: 2}) {
		t.Fatalf("pagination = %+v", out.Pagination)
	}

	out = decode(t, serve(env.tasks.GetTasks, request{method: "GET", uri: "/api/tasks?priority=high", principal: env.admin}), http.StatusOK)
	if out.Pagination.Total != 3 {
		t.Fatalf("admin high priority total = %d", out.Pagination.Total)
	}
}

func TestListByPriority(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	env.create(t, env.alice, `{"title":"late","description":"d","dueDate":"2025-05-01","priority":"urgent"}`)
	env.create(t, env.alice, `{"title":"soon","description":"d","dueDate":"2025-01-01","priority":"urgent"}`)

	out := decode(t, serve(env.tasks.GetTasksByPriority, request{method: "GET", principal: env.alice, params: map[string]string{"priority": "urgent"}}), http.StatusOK)
	if len(out.Tasks) != 2 || out.Tasks[0].Title != "soon" {
		t.Fatalf("priority list = %+v", out.Tasks)
	}

	ctx := serve(env.tasks.GetTasksByPriority, request{method: "GET", principal: env.alice, params: map[string]string{"priority": "critical"}})
	if body := string(ctx.Response.Body()); body != `{"success":true,"tasks":[]}` {
		t.Fatalf("unknown priority body = %s", body)
	}
}

func TestUpdateAndPatch(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	task := env.create(t, env.alice, `{"title":"t","description":"d","dueDate":"2025-03-01"}`)
	params := map[string]string{"id": task.ID}

	out := decode(t, serve(env.tasks.UpdateTask, request{method: "PUT", body: `{"title":"renamed","createdBy":"bob"}`, principal: env.alice, params: params}), http.StatusOK)
	if out.Task.Title != "renamed" || out.Task.Description != "d" || out.Task.CreatedBy.ID != "alice" {
		t.Fatalf("update = %+v", out.Task)
	}

	decode(t, serve(env.tasks.UpdateTask, request{method: "PUT", body: `{"title":"x"}`, principal: env.bob, params: params}), http.StatusForbidden)
	decode(t, serve(env.tasks.UpdateTask, request{method: "PUT", body: `{"title":""}`, principal: env.alice, params: params}), http.StatusBadRequest)

	out = decode(t, serve(env.tasks.UpdateStatus, request{method: "PATCH", body: `{"status":"completed"}`, principal: env.alice, params: params}), http.StatusOK)
	if out.Task.Status != domain.StatusCompleted {
		t.Fatalf("status = %s", out.Task.Status)
	}
	decode(t, serve(env.tasks.UpdateStatus, request{method: "PATCH", body: `{"status":"archived"}`, principal: env.alice, params: params}), http.StatusBadRequest)
	decode(t, serve(env.tasks.UpdateStatus, request{method: "PATCH", body: `{}`, principal: env.alice, params: params}), http.StatusBadRequest)

	out = decode(t, serve(env.tasks.UpdatePriority, request{method: "PATCH", body: `{"priority":"low"}`, principal: env.admin, params: params}), http.StatusOK)
	if out.Task.Priority != domain.PriorityLow || out.Task.Status != domain.StatusCompleted {
		t.Fatalf("priority patch = %+v", out.Task)
	}
}

func TestUpdateTaskChecksAccessBeforeDueDate(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	task := env.create(t, env.alice, `{"title":"t","description":"d","dueDate":"2025-03-01"}`)
	body := `{"dueDate":"next tuesday"}`

	out := decode(t, serve(env.tasks.UpdateTask, request{method: "PUT", body: body, principal: env.alice, params: map[string]string{"id": "missing"}}), http.StatusNotFound)
	if out.Code != string(domain.ErrCodeNotFound) {
		t.Fatalf("missing task body = %+v", out)
	}
	out = decode(t, serve(env.tasks.UpdateTask, request{method: "PUT", body: body, principal: env.bob, params: map[string]string{"id": task.ID}}), http.StatusForbidden)
	if out.Code != string(domain.ErrCodeForbidden) {
		t.Fatalf("foreign task body = %+v", out)
	}
	out = decode(t, serve(env.tasks.UpdateTask, request{method: "PUT", body: body, principal: env.alice, params: map[string]string{"id": task.ID}}), http.StatusBadRequest)
	if out.Code != string(domain.ErrCodeInvalid) {
		t.Fatalf("own task body = %+v", out)
	}

	got := decode(t, serve(env.tasks.GetTask, request{method: "GET", principal: env.alice, params: map[string]string{"id": task.ID}}), http.StatusOK)
	if !got.Task.UpdatedAt.Equal(task.UpdatedAt) {
		t.Fatalf("rejected update touched the task: %v != %v", got.Task.UpdatedAt, task.UpdatedAt)
	}
}

func TestDeleteTask(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	task := env.create(t, env.alice, `{"title":"t","description":"d","dueDate":"2025-03-01"}`)
	params := map[string]string{"id": task.ID}

	decode(t, serve(env.tasks.DeleteTask, request{method: "DELETE", principal: env.bob, params: params}), http.StatusForbidden)

	out := decode(t, serve(env.tasks.DeleteTask, request{method: "DELETE", principal: env.alice, params: params}), http.StatusOK)
	if !out.Success || out.Message != "Task deleted successfully" {
		t.Fatalf("delete = %+v", out)
	}

	decode(t, serve(env.tasks.GetTask, request{method: "GET", principal: env.alice, params: params}), http.StatusNotFound)
	decode(t, serve(env.tasks.DeleteTask, request{method: "DELETE", principal: env.alice, params: params}), http.StatusNotFound)
}

func TestProfileEndpoints(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	out := decode(t, serve(env.profile.Me, request{method: "GET", principal: env.bob}), http.StatusOK)
	if out.User == nil || out.User.Email != "bob@example.com" {
		t.Fatalf("me = %+v", out.User)
	}

	decode(t, serve(env.profile.ListUsers, request{method: "GET", principal: env.bob}), http.StatusForbidden)

	out = decode(t, serve(env.profile.ListUsers, request{method: "GET", principal: env.admin}), http.StatusOK)
	if len(out.Users) != 3 {
		t.Fatalf("users = %+v", out.Users)
	}
}

type brokenRepo struct {
	repository.TaskRepository
}

func (brokenRepo) GetByID(context.Context, string) (*domain.Task, error) {
	return nil, errors.New("dial tcp 10.0.0.5:5432: connection refused")
}

func TestUnexpectedErrorsAreMasked(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.ErrorLevel)
	h := NewTaskHandler(taskUC.New(brokenRepo{}, nil), nil, zap.New(core))

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod("GET")
	ctx.Request.SetRequestURI("/api/tasks/t1")
	ctx.Request.Header.SetUserAgent("taskdesk-test/1.0")
	ctx.SetUserValue("id", "t1")
	httpcontext.SetPrincipal(ctx, &domain.Principal{ID: "alice", Role: domain.RoleUser})
	h.GetTask(ctx)

	out := decode(t, ctx, http.StatusInternalServerError)
	if out.Message != "internal server error" || out.Code != string(domain.ErrCodeInternal) {
		t.Fatalf("body = %+v", out)
	}

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one error log, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["user_agent"] != "taskdesk-test/1.0" || fields["path"] != "/api/tasks/t1" {
		t.Fatalf("log fields = %v", fields)
	}
	if _, ok := fields["remote_addr"]; !ok {
		t.Fatalf("remote_addr missing from %v", fields)
	}
}

type staticStatus monitor.Status

func (s staticStatus) GetStatus() monitor.Status { return monitor.Status(s) }

func TestHealth(t *testing.T) {
	t.Parallel()

	healthy := staticStatus{
		Dependencies: map[string]monitor.DependencyStatus{"bolt": {Online: true}},
		LastCheck:    time.Now(),
	}
	ctx := serve(NewHealthHandler(healthy, nil, nil).Check, request{method: "GET", uri: "/health"})
	if ctx.Response.StatusCode() != http.StatusOK {
		t.Fatalf("healthy status = %d", ctx.Response.StatusCode())
	}

	degraded := staticStatus{
		Dependencies: map[string]monitor.DependencyStatus{"postgresql": {Online: false, Error: "timeout"}},
		LastCheck:    time.Now(),
	}
	ctx = serve(NewHealthHandler(degraded, nil, nil).Check, request{method: "GET", uri: "/health"})
	out := decode(t, ctx, http.StatusServiceUnavailable)
	if out.Success || out.Code != "DEGRADED" {
		t.Fatalf("degraded body = %+v", out)
	}
}
