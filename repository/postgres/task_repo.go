package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/taskdesk/domain"
	"github.com/fastygo/taskdesk/repository"
)

const selectTasks = `
	SELECT t.id, t.title, t.description, t.due_date, t.status, t.priority,
		a.id, a.name, a.email,
		c.id, c.name, c.email,
		t.created_at, t.updated_at
	FROM tasks t
	JOIN users a ON a.id = t.assigned_to
	JOIN users c ON c.id = t.created_by
	`

const filterTasks = `
	WHERE ($1 = '' OR t.assigned_to::text = $1)
	  AND ($2 = '' OR t.status = $2)
	  AND ($3 = '' OR t.priority = $3)
	`

var orderClauses = map[repository.TaskSort]string{
	repository.SortNewest:     `ORDER BY t.created_at DESC, t.seq DESC`,
	repository.SortDueSoonest: `ORDER BY t.due_date ASC, t.seq ASC`,
}

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	if !validID(id) {
		return nil, domain.ErrTaskNotFound
	}
	row := r.pool.QueryRow(ctx, selectTasks+`WHERE t.id = $1`, id)
	return scanTask(row)
}

func (r *taskRepository) Find(ctx context.Context, query repository.TaskQuery) ([]domain.Task, error) {
	sql := fmt.Sprintf("%s%s%s\n\tLIMIT $4 OFFSET $5", selectTasks, filterTasks, orderClause(query.Sort))

	rows, err := r.pool.Query(ctx, sql,
		query.AssignedTo,
		query.Status,
		query.Priority,
		limitParam(query.Limit),
		max(query.Offset, 0),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Count(ctx context.Context, query repository.TaskQuery) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tasks t`+filterTasks,
		query.AssignedTo,
		query.Status,
		query.Priority,
	).Scan(&total)
	return total, err
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if !validID(task.AssignedTo.ID) {
		return nil, domain.ErrUnknownAssignee
	}

	const query = `
	INSERT INTO tasks (id, title, description, due_date, status, priority, assigned_to, created_by, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, NOW()), COALESCE($9, NOW()))
	`

	if _, err := r.pool.Exec(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.DueDate,
		string(task.Status),
		string(task.Priority),
		task.AssignedTo.ID,
		task.CreatedBy.ID,
		nullTime(task.CreatedAt),
	); err != nil {
		return nil, translateWriteError(err)
	}

	return r.GetByID(ctx, task.ID)
}

func (r *taskRepository) Update(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error) {
	if !validID(id) {
		return nil, domain.ErrTaskNotFound
	}
	if patch.AssignedTo != nil && !validID(*patch.AssignedTo) {
		return nil, domain.ErrUnknownAssignee
	}

	const query = `
	UPDATE tasks
	SET title = COALESCE($2, title),
		description = COALESCE($3, description),
		due_date = COALESCE($4, due_date),
		status = COALESCE($5, status),
		priority = COALESCE($6, priority),
		assigned_to = COALESCE($7::uuid, assigned_to),
		updated_at = GREATEST(COALESCE($8, NOW()), updated_at)
	WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		id,
		patch.Title,
		patch.Description,
		patch.DueDate,
		optionalString(patch.Status),
		optionalString(patch.Priority),
		patch.AssignedTo,
		nullTime(patch.UpdatedAt),
	)
	if err != nil {
		return nil, translateWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrTaskNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.ErrTaskNotFound
	}
	const query = `DELETE FROM tasks WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func orderClause(sort repository.TaskSort) string {
	if clause, ok := orderClauses[sort]; ok {
		return clause
	}
	return orderClauses[repository.SortNewest]
}

func translateWriteError(err error) error {
	switch pgErrorCode(err) {
	case pgForeignKeyViolation:
		return domain.ErrUnknownAssignee
	case pgCheckViolation:
		return domain.WrapError(domain.ErrCodeInvalid, "task violates a field constraint", err)
	}
	return err
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var (
		task             domain.Task
		status, priority string
	)

	if err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.DueDate,
		&status,
		&priority,
		&task.AssignedTo.ID,
		&task.AssignedTo.Name,
		&task.AssignedTo.Email,
		&task.CreatedBy.ID,
		&task.CreatedBy.Name,
		&task.CreatedBy.Email,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	task.Status = domain.Status(status)
	task.Priority = domain.Priority(priority)
	return &task, nil
}
