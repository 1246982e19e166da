package usecase

import (
	"context"
	"errors"
	"time"

	"NewsAgent/internal/domain"
	xerrors "NewsAgent/internal/errors"
)

// retryPolicy bounds how often a step's tool call is attempted.
type retryPolicy struct {
	attempts int
	delay    time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
}

// retryPolicy derives attempts = 1 + retry_count and the pause between them
// from the step metadata.
func (o *Orchestrator) retryPolicy(step domain.WorkflowStep) retryPolicy {
	p := retryPolicy{attempts: 1, sleep: o.sleep}
	if step.RetryCount > 0 {
		p.attempts += step.RetryCount
		p.delay = time.Duration(step.RetryDelay) * o.retryUnit
	}
	return p
}

// withRetry repeats fn on retryable errors. Configuration errors and
// context errors stop immediately.
func withRetry[T any](ctx context.Context, p retryPolicy, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	attempts := p.attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if attempt == attempts || !shouldRetry(ctx, err) {
			break
		}
		if p.delay > 0 && p.sleep != nil {
			if serr := p.sleep(ctx, p.delay); serr != nil {
				return zero, serr
			}
		}
	}
	return zero, lastErr
}

func shouldRetry(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return xerrors.RetryableError(err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
