package cache

import (
	"context"

	"github.com/riskibarqy/career-coach/internal/domain/user"
	basecache "github.com/riskibarqy/career-coach/internal/platform/cache"
)

const userKeyPrefix = "user:ext:"

// UserRepository caches lookups by external id in front of next. Profile
// writes made through a transaction bypass it, so callers must Forget the
// external id after commit.
type UserRepository struct {
	next  user.Repository
	cache *basecache.Store[user.User]
}

func NewUserRepository(next user.Repository, cache *basecache.Store[user.User]) *UserRepository {
	return &UserRepository{next: next, cache: cache}
}

func (r *UserRepository) GetByExternalID(ctx context.Context, externalID string) (user.User, bool, error) {
	v, found, err := r.cache.GetOrLoad(ctx, userKeyPrefix+externalID, func(ctx context.Context) (user.User, bool, error) {
		return r.next.GetByExternalID(ctx, externalID)
	})
	if err != nil || !found {
		return user.User{}, found, err
	}
	return cloneUser(v), true, nil
}

func (r *UserRepository) Create(ctx context.Context, u user.User) (user.User, bool, error) {
	created, ok, err := r.next.Create(ctx, u)
	if err != nil {
		return user.User{}, false, err
	}
	if ok {
		r.cache.Set(ctx, userKeyPrefix+created.ExternalID, cloneUser(created))
	}
	return created, ok, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, profile user.Profile) (user.User, error) {
	updated, err := r.next.UpdateProfile(ctx, id, profile)
	if err != nil {
		return user.User{}, err
	}
	r.cache.Set(ctx, userKeyPrefix+updated.ExternalID, cloneUser(updated))
	return updated, nil
}

func (r *UserRepository) Forget(ctx context.Context, externalID string) {
	r.cache.Delete(ctx, userKeyPrefix+externalID)
}

func cloneUser(u user.User) user.User {
	copied := u
	copied.Skills = append(make([]string, 0, len(u.Skills)), u.Skills...)
	if u.Experience != nil {
		v := *u.Experience
		copied.Experience = &v
	}
	if u.ImageURL != nil {
		v := *u.ImageURL
		copied.ImageURL = &v
	}
	return copied
}
