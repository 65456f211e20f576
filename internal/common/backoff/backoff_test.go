package backoff

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRefused = errors.New("dial tcp 127.0.0.1:5432: connection refused")

func fastPolicy(attempts int) Policy {
	return Policy{Attempts: attempts, Delay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestDo(t *testing.T) {
	errDenied := errors.New("permission denied")
	tests := []struct {
		name      string
		attempts  int
		failures  int
		failWith  error
		fatal     func(error) bool
		wantErr   error
		wantCalls int
	}{
		{name: "first call succeeds", attempts: 3, wantCalls: 1},
		{name: "succeeds after transient failures", attempts: 3, failures: 2, failWith: errRefused, wantCalls: 3},
		{name: "budget spent", attempts: 3, failures: 10, failWith: errRefused, wantErr: errRefused, wantCalls: 3},
		{name: "zero attempts still calls once", attempts: 0, failures: 10, failWith: errRefused, wantErr: errRefused, wantCalls: 1},
		{
			name: "fatal error stops at once", attempts: 5, failures: 10, failWith: errDenied,
			fatal:   func(err error) bool { return errors.Is(err, errDenied) },
			wantErr: errDenied, wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := fastPolicy(tt.attempts)
			p.IsFatal = tt.fatal

			calls := 0
			err := Do(context.Background(), p, func(context.Context) error {
				calls++
				if calls <= tt.failures {
					return tt.failWith
				}
				return nil
			})

			if tt.wantErr == nil {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Same(t, tt.wantErr, err)
			}
			assert.Equal(t, tt.wantCalls, calls)
		})
	}
}

func TestDo_NotifiesEachFailedAttempt(t *testing.T) {
	var seen []int
	p := fastPolicy(3)
	p.Notify = func(err error, attempt int) {
		assert.Equal(t, errRefused, err)
		seen = append(seen, attempt)
	}

	err := Do(context.Background(), p, func(context.Context) error { return errRefused })
	require.Error(t, err)
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestDo_PassesContextToOperation(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "worker-manager")

	err := Do(ctx, fastPolicy(1), func(got context.Context) error {
		assert.Equal(t, "worker-manager", got.Value(key{}))
		return nil
	})
	require.NoError(t, err)
}

// ==========================
// Cancellation Tests
// ==========================

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	slow := Policy{Attempts: 5, Delay: time.Second, MaxDelay: time.Second}
	err := Do(ctx, slow, func(context.Context) error {
		calls++
		return errRefused
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, 1, calls)
}
