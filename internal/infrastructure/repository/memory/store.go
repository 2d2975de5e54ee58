package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/riskibarqy/career-coach/internal/domain/insight"
	"github.com/riskibarqy/career-coach/internal/domain/user"
)

type state struct {
	users          map[string]user.User
	userByExternal map[string]string
	insights       map[string]insight.Insight
	insightByName  map[string]string
}

func newState() *state {
	return &state{
		users:          make(map[string]user.User),
		userByExternal: make(map[string]string),
		insights:       make(map[string]insight.Insight),
		insightByName:  make(map[string]string),
	}
}

func (s *state) clone() *state {
	out := &state{
		users:          make(map[string]user.User, len(s.users)),
		userByExternal: make(map[string]string, len(s.userByExternal)),
		insights:       make(map[string]insight.Insight, len(s.insights)),
		insightByName:  make(map[string]string, len(s.insightByName)),
	}
	for k, v := range s.users {
		out.users[k] = cloneUser(v)
	}
	for k, v := range s.userByExternal {
		out.userByExternal[k] = v
	}
	for k, v := range s.insights {
		out.insights[k] = cloneInsight(v)
	}
	for k, v := range s.insightByName {
		out.insightByName[k] = v
	}
	return out
}

// Store keeps users and insights in memory. Writers are serialized and a
// transaction works on a private copy that replaces the live state only on
// commit.
type Store struct {
	writeMu sync.Mutex
	mu      sync.RWMutex
	current *state

	beforeCommit func(ctx context.Context) error
}

func NewStore() *Store {
	return &Store{current: newState()}
}

func (s *Store) Users() *UserRepository {
	return &UserRepository{access: liveAccess{store: s}}
}

func (s *Store) Insights() *InsightRepository {
	return &InsightRepository{access: liveAccess{store: s}}
}

// BeforeCommit installs a hook run right before a transaction commits; an
// error aborts the commit.
func (s *Store) BeforeCommit(fn func(ctx context.Context) error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.beforeCommit = fn
}

func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context, users user.Repository, insights insight.Repository) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	working := s.current.clone()
	s.mu.RUnlock()

	access := txAccess{state: working}
	if err := fn(ctx, &UserRepository{access: access}, &InsightRepository{access: access}); err != nil {
		return err
	}
	if s.beforeCommit != nil {
		if err := s.beforeCommit(ctx); err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	s.mu.Lock()
	s.current = working
	s.mu.Unlock()
	return nil
}

// access abstracts over the live state and a transaction's working copy.
type access interface {
	read(fn func(st *state))
	write(fn func(st *state))
}

type liveAccess struct {
	store *Store
}

func (a liveAccess) read(fn func(st *state)) {
	a.store.mu.RLock()
	defer a.store.mu.RUnlock()
	fn(a.store.current)
}

func (a liveAccess) write(fn func(st *state)) {
	a.store.writeMu.Lock()
	defer a.store.writeMu.Unlock()

	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	fn(a.store.current)
}

type txAccess struct {
	state *state
}

func (a txAccess) read(fn func(st *state))  { fn(a.state) }
func (a txAccess) write(fn func(st *state)) { fn(a.state) }
