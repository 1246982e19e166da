package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsAgent/internal/domain"
	xerrors "NewsAgent/internal/errors"
)

func recordingPolicy(attempts int, delay time.Duration, sleeps *[]time.Duration) retryPolicy {
	return retryPolicy{
		attempts: attempts,
		delay:    delay,
		sleep: func(_ context.Context, d time.Duration) error {
			*sleeps = append(*sleeps, d)
			return nil
		},
	}
}

func TestWithRetryStopsOnSuccess(t *testing.T) {
	t.Parallel()

	var sleeps []time.Duration
	calls := 0
	out, err := withRetry(context.Background(), recordingPolicy(4, time.Second, &sleeps), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("flaky")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, sleeps)
}

func TestWithRetryReturnsLastError(t *testing.T) {
	t.Parallel()

	var sleeps []time.Duration
	calls := 0
	_, err := withRetry(context.Background(), recordingPolicy(3, 0, &sleeps), func(context.Context) (int, error) {
		calls++
		return 0, errors.New("still down")
	})

	require.EqualError(t, err, "still down")
	assert.Equal(t, 3, calls)
	assert.Empty(t, sleeps)
}

func TestWithRetrySkipsNonRetryableErrors(t *testing.T) {
	t.Parallel()

	cases := map[string]error{
		"configuration": xerrors.New(xerrors.CodeConfiguration, "missing settings"),
		"explicit":      xerrors.New(xerrors.CodeToolInvocation, "bad input", xerrors.WithRetryable(false)),
		"cancelled":     context.Canceled,
	}
	for name, cause := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var sleeps []time.Duration
			calls := 0
			_, err := withRetry(context.Background(), recordingPolicy(5, time.Second, &sleeps), func(context.Context) (int, error) {
				calls++
				return 0, cause
			})
			require.ErrorIs(t, err, cause)
			assert.Equal(t, 1, calls)
			assert.Empty(t, sleeps)
		})
	}
}

func TestWithRetryStopsWhenContextEnds(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	policy := retryPolicy{attempts: 3, delay: time.Hour, sleep: sleepContext}
	calls := 0
	_, err := withRetry(ctx, policy, func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, errors.New("flaky")
	})

	require.EqualError(t, err, "flaky")
	assert.Equal(t, 1, calls)
}

func TestWithRetryReturnsInterruptedSleep(t *testing.T) {
	t.Parallel()

	policy := retryPolicy{
		attempts: 3,
		delay:    time.Second,
		sleep: func(context.Context, time.Duration) error {
			return context.DeadlineExceeded
		},
	}
	_, err := withRetry(context.Background(), policy, func(context.Context) (int, error) {
		return 0, errors.New("flaky")
	})

	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSleepContextHonoursCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	require.NoError(t, sleepContext(context.Background(), time.Millisecond))
}

func TestRetryPolicyFromStep(t *testing.T) {
	t.Parallel()

	o := NewOrchestrator(OrchestratorDeps{RetryDelayUnit: time.Millisecond})

	plain := o.retryPolicy(domain.WorkflowStep{Step: 3})
	assert.Equal(t, 1, plain.attempts)
	assert.Zero(t, plain.delay)

	critical := o.retryPolicy(domain.WorkflowStep{Step: 1, RetryCount: 3, RetryDelay: 5})
	assert.Equal(t, 4, critical.attempts)
	assert.Equal(t, 5*time.Millisecond, critical.delay)
}
