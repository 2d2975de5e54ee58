package user

import "context"

type Repository interface {
	GetByExternalID(ctx context.Context, externalID string) (User, bool, error)
	// Create inserts u unless a row with the same external id exists. The
	// returned flag is false when another writer got there first; the
	// caller re-reads in that case.
	Create(ctx context.Context, u User) (User, bool, error)
	UpdateProfile(ctx context.Context, id string, profile Profile) (User, error)
}

// IdentityProvider looks up accounts by their external id.
type IdentityProvider interface {
	FetchUser(ctx context.Context, externalID string) (ExternalProfile, error)
}
