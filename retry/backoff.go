// Package retry implements the exponential-backoff-with-jitter policy of
// spec §4.7/§7 for outbound calls (state refresh, remote-signer RPCs,
// downstream submission): start at 100ms, factor 2, cap 1s, up to a
// caller-supplied attempt count. Grounded on
// original_source/bolt-sidecar/src/common.rs::retry_with_backoff.
package retry

import (
	"context"
	"math/rand"
	"time"
)

const (
	startDelay = 100 * time.Millisecond
	factor     = 2
	maxDelay   = 1 * time.Second
)

// Do calls fn up to maxAttempts times, sleeping between attempts according
// to the exponential-backoff-with-jitter schedule, stopping early on
// success or on ctx cancellation. It returns the last error if every
// attempt fails.
func Do(ctx context.Context, maxAttempts int, fn func(ctx context.Context) error) error {
	var err error
	delay := startDelay

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}

		if attempt == maxAttempts-1 {
			break
		}

		jittered := jitter(delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(jittered):
		}

		delay *= factor
		if delay > maxDelay {
			delay = maxDelay
		}
	}
	return err
}

// jitter returns a duration uniformly distributed in [d/2, d], mirroring
// tokio-retry's full-jitter strategy used by the source.
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	half := d / 2
	return half + time.Duration(rand.Int63n(int64(d-half)+1))
}
