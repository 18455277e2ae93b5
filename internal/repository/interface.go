package repository

import (
	"context"
	"errors"

	"github.com/MGeorge0116/ezchat-cam/internal/domain"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrDuplicate    = errors.New("username or email already taken")
)

// UserRepository defines persistence for user accounts.
type UserRepository interface {
	Create(ctx context.Context, username, email, passwordHash string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.UserModel, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}
