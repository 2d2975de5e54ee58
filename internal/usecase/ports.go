package usecase

import (
	"context"
	"time"

	"github.com/riskibarqy/career-coach/internal/domain/insight"
	"github.com/riskibarqy/career-coach/internal/domain/user"
)

// TxFunc receives repositories bound to a single transaction.
type TxFunc = func(ctx context.Context, users user.Repository, insights insight.Repository) error

// UnitOfWork runs fn in one transaction, committing when fn returns nil and
// rolling back otherwise. The deadline of ctx bounds the whole transaction.
type UnitOfWork interface {
	WithinTransaction(ctx context.Context, fn TxFunc) error
}

// Revalidator invalidates a rendered page so the next request re-renders it.
type Revalidator interface {
	RevalidatePath(ctx context.Context, path string) error
}

// Locker grants cross-process exclusive leases. release is non-nil when
// acquired is true.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, acquired bool, err error)
}

// UserCacheInvalidator drops a cached user after it was written.
type UserCacheInvalidator interface {
	Forget(ctx context.Context, externalID string)
}

type noopRevalidator struct{}

func (noopRevalidator) RevalidatePath(context.Context, string) error { return nil }

type localLocker struct{}

func (localLocker) TryLock(context.Context, string, time.Duration) (func(context.Context) error, bool, error) {
	return func(context.Context) error { return nil }, true, nil
}

type noopUserCache struct{}

func (noopUserCache) Forget(context.Context, string) {}
