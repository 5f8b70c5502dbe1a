package auth

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/fastygo/taskdesk/domain"
	"github.com/fastygo/taskdesk/pkg/logger"
	"github.com/fastygo/taskdesk/repository"
)

// UseCase turns the user id carried by a verified token into a Principal.
type UseCase struct {
	users  repository.UserRepository
	cache  repository.PrincipalCache
	logger *zap.Logger
}

// New builds the resolver. cache may be nil, in which case every request hits
// the user repository.
func New(users repository.UserRepository, cache repository.PrincipalCache, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		cache:  cache,
		logger: logger,
	}
}

func (uc *UseCase) ResolvePrincipal(ctx context.Context, userID string) (*domain.Principal, error) {
	if userID == "" {
		return nil, domain.ErrInvalidToken
	}
	log := logger.WithRequestID(ctx, uc.logger)

	if uc.cache != nil {
		principal, err := uc.cache.Get(ctx, userID)
		switch {
		case err == nil:
			return principal, nil
		case !errors.Is(err, domain.ErrPrincipalMissing):
			log.Warn("principal cache read failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, domain.ErrUnknownPrincipal
		}
		return nil, err
	}

	principal := user.Principal()
	if uc.cache != nil {
		if err := uc.cache.Save(ctx, principal); err != nil {
			log.Warn("principal cache write failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return principal, nil
}

// Forget drops a cached principal so the next request re-reads its role.
func (uc *UseCase) Forget(ctx context.Context, userID string) error {
	if uc.cache == nil {
		return nil
	}
	return uc.cache.Delete(ctx, userID)
}
