package resilience

import (
	"fmt"
	"time"
)

// CircuitBreakerConfig tunes a CircuitBreaker. HalfOpenMaxReq is both the
// number of probes admitted while half-open and the number of successes
// needed to close again.
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenMaxReq   int
}

func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 5,
		OpenTimeout:      15 * time.Second,
		HalfOpenMaxReq:   2,
	}
}

// WithDefaults replaces unset numeric fields. Enabled is kept as is.
func (c CircuitBreakerConfig) WithDefaults() CircuitBreakerConfig {
	def := DefaultCircuitBreakerConfig()
	if c.FailureThreshold < 1 {
		c.FailureThreshold = def.FailureThreshold
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = def.OpenTimeout
	}
	if c.HalfOpenMaxReq < 1 {
		c.HalfOpenMaxReq = def.HalfOpenMaxReq
	}
	return c
}

func (c CircuitBreakerConfig) Validate() error {
	switch {
	case c.FailureThreshold < 1:
		return fmt.Errorf("failure threshold must be >= 1, got %d", c.FailureThreshold)
	case c.OpenTimeout <= 0:
		return fmt.Errorf("open timeout must be > 0, got %s", c.OpenTimeout)
	case c.HalfOpenMaxReq < 1:
		return fmt.Errorf("half-open probes must be >= 1, got %d", c.HalfOpenMaxReq)
	}
	return nil
}
