package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MGeorge0116/ezchat-cam/internal/domain"
	"github.com/MGeorge0116/ezchat-cam/internal/kvstore"
	"github.com/MGeorge0116/ezchat-cam/pkg/log"
)

// CachedUserRepository caches user profiles by ID in Redis in front of
// another repository. Lookups that carry the password hash bypass the
// cache.
type CachedUserRepository struct {
	inner UserRepository
	store *kvstore.RedisStore
	ttl   time.Duration
}

// NewCachedUserRepository wraps inner with a profile cache.
func NewCachedUserRepository(inner UserRepository, store *kvstore.RedisStore, ttl time.Duration) *CachedUserRepository {
	return &CachedUserRepository{
		inner: inner,
		store: store,
		ttl:   ttl,
	}
}

func userKey(id string) string {
	return fmt.Sprintf("user:id:%s", id)
}

// Create inserts through the inner repository and warms the cache.
func (r *CachedUserRepository) Create(ctx context.Context, username, email, passwordHash string) (*domain.User, error) {
	user, err := r.inner.Create(ctx, username, email, passwordHash)
	if err != nil {
		return nil, err
	}
	if err := r.store.SetJSON(ctx, userKey(user.ID), user, r.ttl); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldUserID, user.ID).Msg("failed to cache user profile")
	}
	return user, nil
}

// GetByUsername always hits the inner repository; the row includes the
// password hash and is only read on login.
func (r *CachedUserRepository) GetByUsername(ctx context.Context, username string) (*domain.UserModel, error) {
	return r.inner.GetByUsername(ctx, username)
}

// GetByID serves from the cache when possible, falling back to the
// inner repository and re-caching on a miss.
func (r *CachedUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	l := log.Ctx(ctx)

	var cached domain.User
	err := r.store.GetJSON(ctx, userKey(id), &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, kvstore.ErrNotFound) {
		// A corrupt or unreadable entry is dropped so the next lookup
		// repopulates it.
		l.Warn().Err(err).Str(log.FieldUserID, id).Msg("user cache read failed")
		if delErr := r.store.Delete(ctx, userKey(id)); delErr != nil {
			l.Warn().Err(delErr).Str(log.FieldUserID, id).Msg("failed to drop user cache entry")
		}
	}

	user, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.store.SetJSON(ctx, userKey(id), user, r.ttl); err != nil {
		l.Warn().Err(err).Str(log.FieldUserID, id).Msg("failed to cache user profile")
	}
	return user, nil
}
