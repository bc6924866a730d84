// shared/docstore/retry.go
package docstore

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultMaxAttempts is used when a backend is configured with a non-positive attempt count.
const DefaultMaxAttempts = 3

const baseBackoff = 10 * time.Millisecond

// Retry runs fn until it succeeds, returns a non-retryable error, or
// maxAttempts is reached. Exhaustion is reported as ErrConflict.
func Retry(ctx context.Context, maxAttempts int, retryable func(error) bool, fn func() error) error {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	backoff := baseBackoff
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn()
		if err == nil || !retryable(err) {
			return err
		}
		if attempt == maxAttempts {
			break
		}
		log.Warn("Retrying transaction", "attempt", attempt, "max_attempts", maxAttempts, "err", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrConflict, maxAttempts, err)
}
