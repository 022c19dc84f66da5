// Package resilience guards calls to remote model backends with a circuit
// breaker and an optional bounded retry.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Verdict tells the executor what a failed call means.
type Verdict struct {
	Retry bool
	Trip  bool // counts against the breaker
}

type Classifier func(err error) Verdict

// Executor runs model calls under a Policy. One breaker is kept per backend
// name so a dead QA endpoint does not block an unrelated one.
type Executor struct {
	policy Policy
	logger *slog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[struct{}]
}

func NewExecutor(policy Policy, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		policy:   policy.normalize(),
		logger:   logger,
		breakers: make(map[string]*gobreaker.CircuitBreaker[struct{}]),
	}
}

// Do runs call under the breaker named backend.
func (e *Executor) Do(ctx context.Context, backend string, call func(context.Context) error, classify Classifier) error {
	if call == nil {
		return errors.New("resilience: nil call")
	}
	if backend == "" {
		backend = "default"
	}
	if classify == nil {
		classify = tripOnAnyError
	}

	if !e.policy.BreakerEnabled {
		return e.attempt(ctx, backend, call, classify)
	}
	_, err := e.breaker(backend, classify).Execute(func() (struct{}, error) {
		return struct{}{}, e.attempt(ctx, backend, call, classify)
	})
	return err
}

func (e *Executor) attempt(ctx context.Context, backend string, call func(context.Context) error, classify Classifier) error {
	backoff := e.policy.InitialBackoff

	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := call(ctx)
		if err == nil {
			return nil
		}
		if n >= e.policy.Attempts || !classify(err).Retry {
			return err
		}

		e.logger.Warn("model call failed, retrying",
			"backend", backend,
			"attempt", n,
			"max_attempts", e.policy.Attempts,
			"backoff_ms", backoff.Milliseconds(),
			"error", err,
		)
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}

		backoff = time.Duration(float64(backoff) * e.policy.Multiplier)
		if backoff > e.policy.MaxBackoff {
			backoff = e.policy.MaxBackoff
		}
	}
}

func (e *Executor) breaker(backend string, classify Classifier) *gobreaker.CircuitBreaker[struct{}] {
	e.mu.Lock()
	defer e.mu.Unlock()

	if cb, ok := e.breakers[backend]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        backend,
		MaxRequests: e.policy.BreakerProbeCalls,
		Timeout:     e.policy.BreakerOpenFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			if c.Requests < e.policy.BreakerMinRequests {
				return false
			}
			return float64(c.TotalFailures)/float64(c.Requests) >= e.policy.BreakerFailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !classify(err).Trip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			e.logger.Warn("model breaker state changed", "backend", name, "from", from.String(), "to", to.String())
		},
	})
	e.breakers[backend] = cb
	return cb
}

// IsOpen reports whether err was produced by a breaker refusing the call.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func tripOnAnyError(error) Verdict {
	return Verdict{Trip: true}
}
