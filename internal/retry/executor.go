package retry

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/vvka-141/usaccidents/pkg/usaccidents"
)

// Executor orchestrates retry attempts with backoff and error classification.
//
// Execute is safe for concurrent use. WithOnRetry and WithClock return copies
// and leave the receiver unchanged.
type Executor struct {
	classifier usaccidents.ErrorClassifier
	strategy   usaccidents.BackoffStrategy
	clock      clockwork.Clock
	onRetry    func(attempt int, err error, delay time.Duration)
}

// NewExecutor creates a new retry executor.
// Panics if classifier or strategy is nil.
func NewExecutor(classifier usaccidents.ErrorClassifier, strategy usaccidents.BackoffStrategy) *Executor {
	if classifier == nil {
		panic("classifier cannot be nil")
	}
	if strategy == nil {
		panic("strategy cannot be nil")
	}
	return &Executor{
		classifier: classifier,
		strategy:   strategy,
		clock:      clockwork.NewRealClock(),
	}
}

// WithOnRetry returns a copy that calls callback before each backoff wait.
func (e *Executor) WithOnRetry(callback func(attempt int, err error, delay time.Duration)) *Executor {
	clone := *e
	clone.onRetry = callback
	return &clone
}

// WithClock returns a copy that waits on the given clock.
func (e *Executor) WithClock(clock clockwork.Clock) *Executor {
	clone := *e
	clone.clock = clock
	return &clone
}

// Execute runs the operation, retrying transient failures until the strategy
// is exhausted. Returns the error of the last attempt.
func (e *Executor) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	lastErr := operation(ctx)
	if lastErr == nil || !e.classifier.IsTransient(lastErr) {
		return lastErr
	}

	maxAttempts := e.strategy.MaxAttempts()
	for attempt := 0; maxAttempts < 0 || attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		delay := e.strategy.NextDelay(attempt)
		if e.onRetry != nil {
			e.onRetry(attempt, lastErr, delay)
		}

		timer := e.clock.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.Chan():
		}

		lastErr = operation(ctx)
		if lastErr == nil || !e.classifier.IsTransient(lastErr) {
			return lastErr
		}
	}

	return lastErr
}
