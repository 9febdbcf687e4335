package board

import (
	"errors"
	"fmt"
)

// AttemptBounded calls fn until it succeeds or maxAttempts calls have failed.
// It returns the value, the number of attempts used and, on exhaustion, the
// last failure wrapped with ErrBoundExceeded. Configuration errors are never
// retried.
func AttemptBounded[T any](maxAttempts int, fn func(attempt int) (T, error)) (T, int, error) {
	var zero T
	if maxAttempts < 1 {
		return zero, 0, fmt.Errorf("%w: max attempts %d", ErrConfiguration, maxAttempts)
	}

	var last error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		v, err := fn(attempt)
		if err == nil {
			return v, attempt, nil
		}
		if errors.Is(err, ErrConfiguration) {
			return zero, attempt, err
		}
		last = err
	}
	return zero, maxAttempts, fmt.Errorf("%w after %d attempts: %w", ErrBoundExceeded, maxAttempts, last)
}
