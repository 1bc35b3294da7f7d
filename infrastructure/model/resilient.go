package model

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
)

// ResilientProvider wraps a Provider with retry, circuit breaker, and
// bulkhead patterns. Retry and backoff live here, at the generation
// port, never inside the search algorithms.
type ResilientProvider struct {
	inner    Provider
	bulkhead bulkhead.Bulkhead[Response]
	breaker  circuitbreaker.CircuitBreaker[Response]
	retry    retry.Retry[Response]
}

// ResilienceConfig configures the resilient wrapper.
type ResilienceConfig struct {
	// MaxConcurrent limits in-flight generation calls.
	MaxConcurrent int

	// BreakerThreshold is the consecutive-failure count before the
	// circuit opens.
	BreakerThreshold int

	// BreakerTimeout is how long the circuit stays open.
	BreakerTimeout time.Duration

	// RetryMaxAttempts is the maximum number of attempts per call.
	RetryMaxAttempts int

	// RetryInitialDelay is the delay before the first retry.
	RetryInitialDelay time.Duration

	// RetryBackoffMultiplier is the exponential backoff multiplier.
	RetryBackoffMultiplier float64
}

// DefaultResilienceConfig returns sensible defaults for hosted LLM APIs.
func DefaultResilienceConfig() ResilienceConfig {
	return ResilienceConfig{
		MaxConcurrent:          8,
		BreakerThreshold:       5,
		BreakerTimeout:         30 * time.Second,
		RetryMaxAttempts:       3,
		RetryInitialDelay:      500 * time.Millisecond,
		RetryBackoffMultiplier: 2.0,
	}
}

// NewResilientProvider wraps inner with the given resilience config.
func NewResilientProvider(inner Provider, config ResilienceConfig) *ResilientProvider {
	maxConcurrent := config.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	threshold := config.BreakerThreshold
	if threshold <= 0 {
		threshold = 5
	}

	return &ResilientProvider{
		inner: inner,
		bulkhead: bulkhead.New[Response](bulkhead.Config{
			MaxConcurrent: maxConcurrent,
		}),
		breaker: circuitbreaker.New[Response](circuitbreaker.Config{
			MaxRequests: uint32(maxConcurrent), // #nosec G115 -- bounds checked above
			Interval:    config.BreakerTimeout,
			Timeout:     config.BreakerTimeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(threshold) // #nosec G115 -- bounds checked above
			},
		}),
		retry: retry.New[Response](retry.Config{
			MaxAttempts:   config.RetryMaxAttempts,
			InitialDelay:  config.RetryInitialDelay,
			BackoffPolicy: retry.BackoffExponential,
			Multiplier:    config.RetryBackoffMultiplier,
		}),
	}
}

// Name returns the wrapped provider's name.
func (p *ResilientProvider) Name() string {
	return p.inner.Name()
}

// Generate runs the wrapped call with bulkhead, circuit breaker, and
// retry applied, in that order.
func (p *ResilientProvider) Generate(ctx context.Context, req Request) (Response, error) {
	return p.bulkhead.Execute(ctx, func(ctx context.Context) (Response, error) {
		return p.breaker.Execute(ctx, func(ctx context.Context) (Response, error) {
			return p.retry.Do(ctx, func(ctx context.Context) (Response, error) {
				return p.inner.Generate(ctx, req)
			})
		})
	})
}
