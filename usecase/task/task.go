package task

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/taskdesk/domain"
	"github.com/fastygo/taskdesk/pkg/logger"
	"github.com/fastygo/taskdesk/repository"
)

// CreateInput carries the caller-supplied fields of a new task. Empty Status
// and Priority take their defaults; empty AssignedTo assigns the creator.
type CreateInput struct {
	Title       string
	Description string
	DueDate     time.Time
	Status      string
	Priority    string
	AssignedTo  string
}

// ListResult is one page of the task listing.
type ListResult struct {
	Tasks      []domain.Task
	Pagination Pagination
}

type UseCase struct {
	tasks    repository.TaskRepository
	logger   *zap.Logger
	recorder Recorder
	now      func() time.Time
}

type Option func(*UseCase)

// WithRecorder reports the outcome of every operation to r.
func WithRecorder(r Recorder) Option {
	return func(uc *UseCase) {
		uc.recorder = r
	}
}

func New(tasks repository.TaskRepository, logger *zap.Logger, opts ...Option) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	uc := &UseCase{
		tasks:  tasks,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *UseCase) ListTasks(ctx context.Context, principal *domain.Principal, req ListRequest) (_ *ListResult, err error) {
	defer func() { uc.record(OpList, err) }()

	if principal == nil {
		return nil, domain.ErrUnauthenticated
	}

	plan := BuildListQuery(principal, req)

	tasks, err := uc.tasks.Find(ctx, plan.Query)
	if err != nil {
		return nil, err
	}
	total, err := uc.tasks.Count(ctx, plan.Query.Unwindowed())
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}

	return &ListResult{
		Tasks: tasks,
		Pagination: Pagination{
			Page:  plan.Page,
			Limit: plan.Limit,
			Total: total,
			Pages: Pages(total, plan.Limit),
		},
	}, nil
}

// ListTasksByPriority does not check priority against the enum; an unknown
// value matches nothing and yields an empty list.
func (uc *UseCase) ListTasksByPriority(ctx context.Context, principal *domain.Principal, priority string) (_ []domain.Task, err error) {
	defer func() { uc.record(OpListByPriority, err) }()

	if principal == nil {
		return nil, domain.ErrUnauthenticated
	}
	if priority == "" {
		return nil, domain.Invalid("priority is required")
	}

	tasks, err := uc.tasks.Find(ctx, BuildPriorityQuery(principal, priority))
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return tasks, nil
}

func (uc *UseCase) GetTask(ctx context.Context, principal *domain.Principal, id string) (_ *domain.Task, err error) {
	defer func() { uc.record(OpGet, err) }()

	return uc.load(ctx, principal, id, domain.OpRead)
}

func (uc *UseCase) CreateTask(ctx context.Context, principal *domain.Principal, in CreateInput) (_ *domain.Task, err error) {
	defer func() { uc.record(OpCreate, err) }()

	if principal == nil {
		return nil, domain.ErrUnauthenticated
	}

	assignee := in.AssignedTo
	if assignee == "" {
		assignee = principal.ID
	}

	now := uc.now()
	task := &domain.Task{
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate,
		Status:      domain.Status(in.Status),
		Priority:    domain.Priority(in.Priority),
		AssignedTo:  domain.UserRef{ID: assignee},
		CreatedBy:   domain.UserRef{ID: principal.ID},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}

	created, err := uc.tasks.Create(ctx, task)
	if err != nil {
		return nil, err
	}

	logger.WithRequestID(ctx, uc.logger).Info("task created",
		zap.String("task_id", created.ID),
		zap.String("assigned_to", created.AssignedTo.ID),
		zap.String("created_by", principal.ID))
	return created, nil
}

// PatchSource yields the merge set of a full update. It is consulted only
// after the task is found and the caller authorized, so malformed input never
// outranks NotFound or Forbidden.
type PatchSource interface {
	Patch() (domain.TaskPatch, error)
}

type fixedPatch domain.TaskPatch

func (p fixedPatch) Patch() (domain.TaskPatch, error) {
	return domain.TaskPatch(p), nil
}

// UpdateTask merges the supplied fields into the stored task.
func (uc *UseCase) UpdateTask(ctx context.Context, principal *domain.Principal, id string, patch domain.TaskPatch) (*domain.Task, error) {
	return uc.UpdateTaskFrom(ctx, principal, id, fixedPatch(patch))
}

// UpdateTaskFrom is UpdateTask for input that still has to be decoded, such
// as a request body carrying a textual due date.
func (uc *UseCase) UpdateTaskFrom(ctx context.Context, principal *domain.Principal, id string, src PatchSource) (_ *domain.Task, err error) {
	defer func() { uc.record(OpUpdate, err) }()

	if _, err := uc.load(ctx, principal, id, domain.OpWrite); err != nil {
		return nil, err
	}
	patch, err := src.Patch()
	if err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	return uc.commit(ctx, principal, id, patch)
}

func (uc *UseCase) UpdateStatus(ctx context.Context, principal *domain.Principal, id string, status string) (_ *domain.Task, err error) {
	defer func() { uc.record(OpUpdateStatus, err) }()

	if _, err := uc.load(ctx, principal, id, domain.OpWrite); err != nil {
		return nil, err
	}
	if status == "" {
		return nil, domain.Invalid("status is required")
	}
	parsed, err := domain.ParseStatus(status, "")
	if err != nil {
		return nil, err
	}
	return uc.commit(ctx, principal, id, domain.TaskPatch{Status: &parsed})
}

func (uc *UseCase) UpdatePriority(ctx context.Context, principal *domain.Principal, id string, priority string) (_ *domain.Task, err error) {
	defer func() { uc.record(OpUpdatePriority, err) }()

	if _, err := uc.load(ctx, principal, id, domain.OpWrite); err != nil {
		return nil, err
	}
	if priority == "" {
		return nil, domain.Invalid("priority is required")
	}
	parsed, err := domain.ParsePriority(priority, "")
	if err != nil {
		return nil, err
	}
	return uc.commit(ctx, principal, id, domain.TaskPatch{Priority: &parsed})
}

func (uc *UseCase) DeleteTask(ctx context.Context, principal *domain.Principal, id string) (err error) {
	defer func() { uc.record(OpDelete, err) }()

	if _, err := uc.load(ctx, principal, id, domain.OpDelete); err != nil {
		return err
	}
	if err := uc.tasks.Delete(ctx, id); err != nil {
		return err
	}

	logger.WithRequestID(ctx, uc.logger).Info("task deleted",
		zap.String("task_id", id),
		zap.String("principal", principal.ID))
	return nil
}

// load fetches the persisted task and evaluates the policy against it, so a
// caller can never authorize against client-supplied state. Existence is
// checked before ownership.
func (uc *UseCase) load(ctx context.Context, principal *domain.Principal, id string, op domain.Operation) (*domain.Task, error) {
	if principal == nil {
		return nil, domain.ErrUnauthenticated
	}
	if id == "" {
		return nil, domain.ErrTaskNotFound
	}

	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.Authorize(principal, task, op); err != nil {
		logger.WithRequestID(ctx, uc.logger).Debug("task access denied",
			zap.String("task_id", id),
			zap.String("principal", principal.ID),
			zap.String("operation", string(op)))
		return nil, err
	}
	return task, nil
}

func (uc *UseCase) commit(ctx context.Context, principal *domain.Principal, id string, patch domain.TaskPatch) (*domain.Task, error) {
	patch.UpdatedAt = uc.now()

	updated, err := uc.tasks.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	logger.WithRequestID(ctx, uc.logger).Debug("task updated",
		zap.String("task_id", id),
		zap.String("principal", principal.ID))
	return updated, nil
}
