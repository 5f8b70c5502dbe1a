package repository

import (
	"context"

	"github.com/fastygo/taskdesk/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Upsert(ctx context.Context, user *domain.User) error
	// Delete removes a user that no task references.
	Delete(ctx context.Context, id string) error
}
