package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/riskibarqy/career-coach/internal/platform/resilience"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Store is an in-process TTL cache. A zero or negative TTL keeps entries
// until they are deleted.
//
// Every Set and Delete advances the key's generation. A load that started
// under an older generation never writes its result back.
type Store[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	gens    map[string]uint64
	ttl     time.Duration
	flight  resilience.Group[lookup[V]]
	now     func() time.Time
}

type lookup[V any] struct {
	value V
	found bool
}

func NewStore[V any](ttl time.Duration) *Store[V] {
	return &Store[V]{
		entries: make(map[string]entry[V]),
		gens:    make(map[string]uint64),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *Store[V]) Get(_ context.Context, key string) (V, bool) {
	var zero V
	if key == "" {
		return zero, false
	}

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return zero, false
	}
	if s.ttl > 0 && !e.expiresAt.After(s.now()) {
		s.mu.Lock()
		if cur, ok := s.entries[key]; ok && !cur.expiresAt.After(s.now()) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return zero, false
	}

	return e.value, true
}

func (s *Store[V]) Set(_ context.Context, key string, value V) {
	if key == "" {
		return
	}

	s.mu.Lock()
	s.gens[key]++
	s.entries[key] = s.newEntry(value)
	s.mu.Unlock()
}

func (s *Store[V]) Delete(_ context.Context, key string) {
	if key == "" {
		return
	}

	s.mu.Lock()
	s.gens[key]++
	delete(s.entries, key)
	s.mu.Unlock()
}

func (s *Store[V]) newEntry(value V) entry[V] {
	e := entry[V]{value: value}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	return e
}

func (s *Store[V]) generation(key string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gens[key]
}

// setIfGeneration stores value only when key was not written or deleted
// since gen was observed.
func (s *Store[V]) setIfGeneration(key string, gen uint64, value V) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gens[key] != gen {
		return false
	}
	s.entries[key] = s.newEntry(value)
	return true
}

// GetOrLoad returns the cached value for key or runs loader once for all
// concurrent callers of the same generation. Only results the loader reports
// as found are stored, so a miss is never remembered. Callers arriving after
// a Set or Delete start a fresh load instead of joining a stale one.
func (s *Store[V]) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (V, bool, error)) (V, bool, error) {
	var zero V
	if loader == nil {
		return zero, false, fmt.Errorf("loader is required")
	}
	if key == "" {
		return loader(ctx)
	}

	if value, ok := s.Get(ctx, key); ok {
		return value, true, nil
	}

	gen := s.generation(key)
	res, err, _ := s.flight.Do(key+"#"+strconv.FormatUint(gen, 10), func() (lookup[V], error) {
		if cached, ok := s.Get(ctx, key); ok {
			return lookup[V]{value: cached, found: true}, nil
		}

		loaded, found, loadErr := loader(ctx)
		if loadErr != nil {
			return lookup[V]{}, loadErr
		}
		if found {
			s.setIfGeneration(key, gen, loaded)
		}
		return lookup[V]{value: loaded, found: found}, nil
	})
	if err != nil {
		return zero, false, err
	}

	return res.value, res.found, nil
}
