package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/taskdesk/domain"
	"github.com/fastygo/taskdesk/repository"
)

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository instantiates a Postgres-backed user repository.
func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if !validID(id) {
		return nil, domain.ErrUserNotFound
	}

	const query = `
		SELECT id, name, email, role, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	const query = `
		SELECT id, name, email, role, created_at, updated_at
		FROM users
		ORDER BY name ASC, email ASC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (r *userRepository) Upsert(ctx context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if !validID(user.ID) {
		return domain.Invalid("user id %q is not a uuid", user.ID)
	}

	const query = `
	INSERT INTO users (id, name, email, role, created_at, updated_at)
	VALUES ($1, $2, $3, $4, COALESCE($5, NOW()), NOW())
	ON CONFLICT (id) DO UPDATE
	SET name = EXCLUDED.name,
		email = EXCLUDED.email,
		role = EXCLUDED.role,
		updated_at = NOW()
	RETURNING created_at, updated_at;
	`

	var createdAt, updatedAt time.Time

	if err := r.pool.QueryRow(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		string(user.Role),
		nullTime(user.CreatedAt),
	).Scan(&createdAt, &updatedAt); err != nil {
		switch pgErrorCode(err) {
		case pgCheckViolation:
			return domain.WrapError(domain.ErrCodeInvalid, "user violates a field constraint", err)
		case pgUniqueViolation:
			return domain.WrapError(domain.ErrCodeInvalid, "email "+user.Email+" is already in use", err)
		}
		return err
	}

	user.CreatedAt = createdAt
	user.UpdatedAt = updatedAt
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.ErrUserNotFound
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return domain.WrapError(domain.ErrCodeInvalid, "user still has tasks", err)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user domain.User
		role string
	)
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &role, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	user.Role = domain.Role(role)
	return &user, nil
}
