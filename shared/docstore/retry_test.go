package docstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errBusy = errors.New("busy")

func isBusy(err error) bool { return errors.Is(err, errBusy) }

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, isBusy, func() error {
		calls++
		if calls < 3 {
			return errBusy
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_ExhaustionIsConflict(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 2, isBusy, func() error {
		calls++
		return errBusy
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 2, calls)
}

func TestRetry_NonRetryableReturnsImmediately(t *testing.T) {
	other := errors.New("bad input")
	calls := 0
	err := Retry(context.Background(), 5, isBusy, func() error {
		calls++
		return other
	})
	assert.ErrorIs(t, err, other)
	assert.Equal(t, 1, calls)
}

func TestRetry_DefaultAttempts(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 0, isBusy, func() error {
		calls++
		return errBusy
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, DefaultMaxAttempts, calls)
}

func TestMatches(t *testing.T) {
	raw, err := EncodeRaw(map[string]any{"group": "1", "count": 3})
	assert.NoError(t, err)

	ok, err := Matches(raw, Eq("group", "1"))
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = Matches(raw, Eq("group", "2"))
	assert.NoError(t, err)
	assert.False(t, ok)

	ok, err = Matches(raw, Eq("missing", "1"))
	assert.NoError(t, err)
	assert.False(t, ok)

	ok, err = Matches(raw, nil)
	assert.NoError(t, err)
	assert.True(t, ok)
}
