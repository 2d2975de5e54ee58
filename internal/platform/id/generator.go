package id

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Generator creates row identifiers.
type Generator interface {
	NewID() (string, error)
}

// UUIDGenerator issues random (v4) UUIDs in canonical string form.
type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NewID() (string, error) {
	v, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return v.String(), nil
}

// Sequence returns fixed ids in order; used by tests that assert on ids.
type Sequence struct {
	mu   sync.Mutex
	ids  []string
	next int
}

func NewSequence(ids ...string) *Sequence {
	return &Sequence{ids: append([]string(nil), ids...)}
}

func (s *Sequence) NewID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.next >= len(s.ids) {
		return "", fmt.Errorf("id sequence exhausted after %d ids", len(s.ids))
	}
	v := s.ids[s.next]
	s.next++
	return v, nil
}
