package profile

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/taskdesk/domain"
	"github.com/fastygo/taskdesk/repository"
)

type UseCase struct {
	users  repository.UserRepository
	logger *zap.Logger
}

func New(users repository.UserRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		logger: logger,
	}
}

// GetProfile returns the caller's own user record.
func (uc *UseCase) GetProfile(ctx context.Context, principal *domain.Principal) (*domain.User, error) {
	if principal == nil {
		return nil, domain.ErrUnauthenticated
	}
	return uc.users.GetByID(ctx, principal.ID)
}

// ListUsers is the admin-only directory used to pick assignees.
func (uc *UseCase) ListUsers(ctx context.Context, principal *domain.Principal) ([]domain.User, error) {
	if principal == nil {
		return nil, domain.ErrUnauthenticated
	}
	if !principal.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return uc.users.List(ctx)
}
