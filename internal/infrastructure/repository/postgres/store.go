package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/career-coach/internal/domain/insight"
	"github.com/riskibarqy/career-coach/internal/domain/user"
)

// Store hands out pool-backed repositories and runs units of work in a
// single database transaction.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Users() *UserRepository {
	return NewUserRepository(s.db)
}

func (s *Store) Insights() *InsightRepository {
	return NewInsightRepository(s.db)
}

func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context, users user.Repository, insights insight.Repository) error) error {
	if fn == nil {
		return fmt.Errorf("transaction function is required")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(ctx, NewUserRepository(tx), NewInsightRepository(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}
