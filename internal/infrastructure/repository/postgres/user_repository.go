package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/career-coach/internal/domain/user"
	qb "github.com/riskibarqy/career-coach/internal/platform/querybuilder"
)

// UserRepository works on either the pool or a transaction.
type UserRepository struct {
	db  sqlx.ExtContext
	now func() time.Time
}

func NewUserRepository(db sqlx.ExtContext) *UserRepository {
	return &UserRepository{db: db, now: time.Now}
}

func (r *UserRepository) GetByExternalID(ctx context.Context, externalID string) (user.User, bool, error) {
	query, args, err := qb.Select(userColumns...).
		From("users").
		Where(qb.Eq("clerk_user_id", externalID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return user.User{}, false, fmt.Errorf("build get user query: %w", err)
	}

	var row userTableModel
	if err := sqlx.GetContext(ctx, r.db, &row, query, args...); err != nil {
		if isNotFound(err) {
			return user.User{}, false, nil
		}
		return user.User{}, false, fmt.Errorf("get user by clerk id: %w", err)
	}

	return userFromRow(row), true, nil
}

func (r *UserRepository) Create(ctx context.Context, u user.User) (user.User, bool, error) {
	insert, err := qb.InsertModel("users", userInsertModel{
		ID:          u.ID,
		ClerkUserID: u.ExternalID,
		Email:       u.Email,
		Name:        u.Name,
		ImageURL:    u.ImageURL,
		Skills:      stringArray(u.Skills),
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	})
	if err != nil {
		return user.User{}, false, fmt.Errorf("build create user query: %w", err)
	}
	query, args, err := insert.
		OnConflictDoNothing("clerk_user_id").
		Returning(userColumns...).
		ToSQL()
	if err != nil {
		return user.User{}, false, fmt.Errorf("build create user query: %w", err)
	}

	var row userTableModel
	if err := sqlx.GetContext(ctx, r.db, &row, query, args...); err != nil {
		// DO NOTHING returns no row when the external id already exists.
		if isNotFound(err) || isUniqueViolation(err) {
			return user.User{}, false, nil
		}
		return user.User{}, false, fmt.Errorf("create user: %w", err)
	}

	return userFromRow(row), true, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, profile user.Profile) (user.User, error) {
	var experience any
	if profile.Experience != nil {
		experience = *profile.Experience
	}

	query, args, err := qb.Update("users").
		Set("industry", optionalString(profile.Industry)).
		Set("experience", experience).
		Set("bio", optionalString(profile.Bio)).
		Set("skills", stringArray(profile.Skills)).
		Set("updated_at", r.now().UTC()).
		Where(qb.Eq("id", id)).
		Returning(userColumns...).
		ToSQL()
	if err != nil {
		return user.User{}, fmt.Errorf("build update user profile query: %w", err)
	}

	var row userTableModel
	if err := sqlx.GetContext(ctx, r.db, &row, query, args...); err != nil {
		if isNotFound(err) {
			return user.User{}, fmt.Errorf("user %s not found", id)
		}
		return user.User{}, fmt.Errorf("update user profile: %w", err)
	}

	return userFromRow(row), nil
}
