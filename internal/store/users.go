package store

import (
	"context"

	"github.com/google/uuid"

	"devbook/backend/internal/domain"
)

type UserStore interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)
}
