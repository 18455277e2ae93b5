package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MGeorge0116/ezchat-cam/internal/domain"
	"github.com/MGeorge0116/ezchat-cam/pkg/log"
)

// GormUserRepository implements UserRepository using GORM.
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GORM-based user repository.
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Create inserts a new user. Username and email are normalized to
// lowercase before storing.
func (r *GormUserRepository) Create(ctx context.Context, username, email, passwordHash string) (*domain.User, error) {
	l := log.Ctx(ctx)

	model := &domain.UserModel{
		ID:           uuid.New().String(),
		Username:     normalize(username),
		Email:        normalize(email),
		PasswordHash: passwordHash,
	}

	result := r.db.WithContext(ctx).Create(model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicate
		}
		l.Error().Err(result.Error).Msg("failed to create user in db")
		return nil, result.Error
	}

	l.Debug().Str(log.FieldUserID, model.ID).Msg("user created in db")
	return model.ToDomain(), nil
}

// GetByUsername retrieves a user row (including the password hash) by
// normalized username.
func (r *GormUserRepository) GetByUsername(ctx context.Context, username string) (*domain.UserModel, error) {
	l := log.Ctx(ctx)

	var model domain.UserModel
	result := r.db.WithContext(ctx).First(&model, "username = ?", normalize(username))
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		l.Error().Err(result.Error).Msg("failed to get user by username")
		return nil, result.Error
	}
	return &model, nil
}

// GetByID retrieves the public shape of a user by ID.
func (r *GormUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	l := log.Ctx(ctx)

	var model domain.UserModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		l.Error().Err(result.Error).Str(log.FieldUserID, id).Msg("failed to get user by id")
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
