package resilience

import (
	"errors"
	"sync"
)

// ErrCallPanicked is handed to waiters when the leading call panicked.
var ErrCallPanicked = errors.New("shared call panicked")

// Group collapses concurrent calls that share a key into one execution.
// Callers that arrive while a call is in flight receive its result.
type Group[T any] struct {
	mu    sync.Mutex
	calls map[string]*call[T]
}

type call[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Do returns the value of fn for key and whether the result was shared with
// another caller.
func (g *Group[T]) Do(key string, fn func() (T, error)) (T, error, bool) {
	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[string]*call[T])
	}

	if c, ok := g.calls[key]; ok {
		g.mu.Unlock()
		<-c.done
		return c.val, c.err, true
	}

	c := &call[T]{done: make(chan struct{})}
	g.calls[key] = c
	g.mu.Unlock()

	returned := false
	defer func() {
		if !returned {
			c.err = ErrCallPanicked
		}
		g.mu.Lock()
		delete(g.calls, key)
		g.mu.Unlock()
		close(c.done)
	}()

	c.val, c.err = fn()
	returned = true
	return c.val, c.err, false
}
