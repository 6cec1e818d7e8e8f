package relay

import (
	"context"
	"errors"

	"github.com/bolt-protocol/bolt-sidecar/constraints"
)

// FanOut submits a signed constraint set to every configured relay
// concurrently, satisfying constraints.Sink the same way a single
// Client does (spec §9 allows more than one relay_urls entry).
type FanOut []*Client

// Submit forwards signed to every relay in f, waiting for all of them
// and joining any failures. A partial failure does not block the relays
// that did accept the submission.
func (f FanOut) Submit(ctx context.Context, signed *constraints.Signed) error {
	errs := make([]error, len(f))
	done := make(chan int, len(f))
	for i, c := range f {
		go func(i int, c *Client) {
			errs[i] = c.Submit(ctx, signed)
			done <- i
		}(i, c)
	}
	for range f {
		<-done
	}
	return errors.Join(errs...)
}
