package user

import (
	"context"
)

type Repository interface {
	Create(ctx context.Context, id, login, passwordHash string) error
	FindByLogin(ctx context.Context, login string) (User, error)
}
