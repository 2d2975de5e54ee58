package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker_BasicTransitions(t *testing.T) {
	b := NewCircuitBreaker(CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 2,
		OpenTimeout:      5 * time.Second,
		HalfOpenMaxReq:   1,
	})

	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	if err := b.Allow(); err != nil {
		t.Fatalf("expected allow in closed state: %v", err)
	}

	b.RecordFailure()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after first failure, got %s", state)
	}

	b.RecordFailure()
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after threshold failures, got %s", state)
	}

	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected circuit open error, got %v", err)
	}

	now = now.Add(6 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected half-open probe to pass, got %v", err)
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected second half-open probe to be rejected, got %v", err)
	}

	b.RecordSuccess()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after successful half-open probe, got %s", state)
	}
}

func TestCircuitBreaker_ExecuteIgnoresNonFailures(t *testing.T) {
	b := NewCircuitBreaker(CircuitBreakerConfig{Enabled: true, FailureThreshold: 1})
	errNotCounted := errors.New("not found")

	err := b.Execute(func() error { return errNotCounted }, func(err error) bool {
		return !errors.Is(err, errNotCounted)
	})
	if !errors.Is(err, errNotCounted) {
		t.Fatalf("expected passthrough error, got %v", err)
	}
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed breaker, got %s", state)
	}

	_ = b.Execute(func() error { return errors.New("boom") }, nil)
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open breaker after counted failure, got %s", state)
	}
}

func TestCircuitBreaker_DisabledAlwaysAllows(t *testing.T) {
	b := NewCircuitBreaker(CircuitBreakerConfig{Enabled: false, FailureThreshold: 1})

	for i := 0; i < 5; i++ {
		b.RecordFailure()
	}
	if err := b.Allow(); err != nil {
		t.Fatalf("expected disabled breaker to allow, got %v", err)
	}
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed state, got %s", state)
	}
}

func TestCircuitBreakerConfig_WithDefaultsAndValidate(t *testing.T) {
	cfg := CircuitBreakerConfig{Enabled: false}.WithDefaults()
	if cfg.Enabled {
		t.Fatalf("expected Enabled to be preserved")
	}
	if cfg != (CircuitBreakerConfig{Enabled: false, FailureThreshold: 5, OpenTimeout: 15 * time.Second, HalfOpenMaxReq: 2}) {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate defaults: %v", err)
	}
	if err := (CircuitBreakerConfig{FailureThreshold: 1, OpenTimeout: 0, HalfOpenMaxReq: 1}).Validate(); err == nil {
		t.Fatalf("expected error for zero open timeout")
	}
}
