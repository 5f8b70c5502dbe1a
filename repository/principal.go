package repository

import (
	"context"

	"github.com/fastygo/taskdesk/domain"
)

// PrincipalCache keeps resolved principals close to the request path.
type PrincipalCache interface {
	Get(ctx context.Context, userID string) (*domain.Principal, error)
	Save(ctx context.Context, principal *domain.Principal) error
	Delete(ctx context.Context, userID string) error
}
