package shared

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// DelayFunc returns the wait after the given failed attempt (1-indexed)
type DelayFunc func(attempt int) time.Duration

// RetryPolicy describes how many times an operation is attempted and how long to wait in between
type RetryPolicy struct {
	Operation   string
	MaxAttempts int
	Delay       DelayFunc
	Sleep       SleepFunc
}

// RetryExhaustedError is returned once every attempt of a policy has failed
type RetryExhaustedError struct {
	Operation string
	Attempts  int
	Err       error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Operation, e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Err
}

// ExponentialDelay waits base, 2*base, 4*base, ... after attempts 1, 2, 3, ...
func ExponentialDelay(base time.Duration) DelayFunc {
	return func(attempt int) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		return base * time.Duration(1<<uint(attempt-1))
	}
}

// LinearDelay waits step, 2*step, 3*step, ... after attempts 1, 2, 3, ...
func LinearDelay(step time.Duration) DelayFunc {
	return func(attempt int) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		return step * time.Duration(attempt)
	}
}

// TimerSleep blocks on a timer and gives up early when ctx is cancelled
func TimerSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retry runs operation until it succeeds or the policy runs out of attempts.
// No wait follows the final attempt.
func Retry[T any](ctx context.Context, policy RetryPolicy, operation func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T

	maxAttempts := policy.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	sleep := policy.Sleep
	if sleep == nil {
		sleep = TimerSleep
	}

	logger := logrus.WithFields(logrus.Fields{
		"component": "Retry",
		"operation": policy.Operation,
	})

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := operation(ctx, attempt)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == maxAttempts {
			break
		}

		var delay time.Duration
		if policy.Delay != nil {
			delay = policy.Delay(attempt)
		}

		logger.WithFields(logrus.Fields{
			"attempt":      attempt,
			"max_attempts": maxAttempts,
			"delay":        delay,
		}).WithError(err).Warn("Attempt failed, retrying after backoff")

		if err := sleep(ctx, delay); err != nil {
			return zero, fmt.Errorf("%s aborted after attempt %d: %w", policy.Operation, attempt, err)
		}
	}

	logger.WithFields(logrus.Fields{
		"total_attempts": maxAttempts,
		"final_error":    lastErr,
	}).Error("Operation failed after all retry attempts")

	return zero, &RetryExhaustedError{
		Operation: policy.Operation,
		Attempts:  maxAttempts,
		Err:       lastErr,
	}
}
