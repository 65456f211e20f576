// Package backoff retries start-up and broker calls with doubling delays.
package backoff

import (
	"context"
	"fmt"
	"time"

	"github.com/juju/clock"
	"github.com/juju/retry"
)

const minDelay = time.Millisecond

// Policy bounds one retried operation.
type Policy struct {
	// Attempts is the total number of calls, the first one included.
	Attempts int
	Delay    time.Duration
	MaxDelay time.Duration

	// IsFatal stops retrying at once when it reports true.
	IsFatal func(error) bool
	// Notify runs after every failed attempt that will be retried or that
	// exhausted the budget.
	Notify func(err error, attempt int)

	Clock clock.Clock
}

// Do calls op until it succeeds, fails fatally, runs out of attempts or ctx
// ends. It returns op's last error, wrapped with ctx.Err() when ctx ended
// the retries.
func Do(ctx context.Context, p Policy, op func(context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.Delay
	if delay < minDelay {
		delay = minDelay
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.WallClock
	}

	err := retry.Call(retry.CallArgs{
		Func:         func() error { return op(ctx) },
		IsFatalError: p.IsFatal,
		NotifyFunc:   p.Notify,
		Attempts:     attempts,
		Delay:        delay,
		MaxDelay:     p.MaxDelay,
		BackoffFunc:  retry.DoubleDelay,
		Clock:        clk,
		Stop:         ctx.Done(),
	})
	switch {
	case err == nil:
		return nil
	case retry.IsRetryStopped(err):
		return fmt.Errorf("%w: %v", ctx.Err(), retry.LastError(err))
	case retry.IsAttemptsExceeded(err), retry.IsDurationExceeded(err):
		return retry.LastError(err)
	}
	return err
}
