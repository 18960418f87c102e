package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryFixed_Success(t *testing.T) {
	calls := 0
	operation := func() error {
		calls++
		return nil
	}

	attempts, err := RetryFixed(context.Background(), operation, 3, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
}

func TestRetryFixed_EventualSuccess(t *testing.T) {
	calls := 0
	operation := func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}

	attempts, err := RetryFixed(context.Background(), operation, 5, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryFixed_AllAttemptsFail(t *testing.T) {
	wantErr := errors.New("persistent failure")
	calls := 0
	operation := func() error {
		calls++
		return wantErr
	}

	attempts, err := RetryFixed(context.Background(), operation, 3, time.Millisecond)
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, calls)
}

func TestRetryFixed_FixedDelay(t *testing.T) {
	var timestamps []time.Time
	operation := func() error {
		timestamps = append(timestamps, time.Now())
		return errors.New("always fails")
	}

	_, err := RetryFixed(context.Background(), operation, 3, 20*time.Millisecond)
	require.Error(t, err)
	require.Len(t, timestamps, 3)

	// Delay stays fixed, it must not grow between attempts.
	first := timestamps[1].Sub(timestamps[0])
	second := timestamps[2].Sub(timestamps[1])
	assert.GreaterOrEqual(t, first, 20*time.Millisecond)
	assert.Less(t, second, 2*first+10*time.Millisecond)
}

func TestRetryFixed_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	operation := func() error { return errors.New("never reached") }

	_, err := RetryFixed(ctx, operation, 10, time.Millisecond)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryFixed_ContextTimeoutDuringDelay(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Millisecond)
	defer cancel()

	operation := func() error { return errors.New("transient") }

	_, err := RetryFixed(ctx, operation, 10, 50*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetryFixed_InvalidMaxAttempts(t *testing.T) {
	operation := func() error { return nil }

	_, err := RetryFixed(context.Background(), operation, 0, time.Millisecond)
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)

	_, err = RetryFixed(context.Background(), operation, -1, time.Millisecond)
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
}
