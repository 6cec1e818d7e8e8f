// Package relay forwards signed constraint sets to the downstream PBS
// relay (spec §2 "downstream PBS relay transport", §6 ConstraintSink).
// Grounded on signerclient.Client's JSON-over-HTTP post idiom and package
// retry's exponential-backoff policy, since the submission path is the
// one outbound call in the sidecar that the teacher's own error-handling
// idiom (miner/preconf_checker.go) treats as worth retrying rather than
// failing the request outright: by the time a constraint set is signed,
// the sidecar has already committed to it, so a transient relay outage
// should not be surfaced to the proposer as a request failure.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bolt-protocol/bolt-sidecar/constraints"
	"github.com/bolt-protocol/bolt-sidecar/internal/xlog"
	"github.com/bolt-protocol/bolt-sidecar/retry"
)

const (
	submitPath     = "/relay/v1/builder/constraints"
	requestTimeout = 2 * time.Second
	maxAttempts    = 3
)

// Client submits SignedConstraints to a single relay endpoint, satisfying
// constraints.Sink.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client posting to baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// Submit forwards signed downstream, retrying transient failures (spec
// §4.4 "the engine forwards the signed constraint set to the configured
// downstream sink").
func (c *Client) Submit(ctx context.Context, signed *constraints.Signed) error {
	body, err := json.Marshal(signed)
	if err != nil {
		return fmt.Errorf("relay: encode signed constraints: %w", err)
	}

	err = retry.Do(ctx, maxAttempts, func(ctx context.Context) error {
		return c.post(ctx, body)
	})
	if err != nil {
		xlog.Error("relay submission failed", "url", c.baseURL, "err", err)
		return fmt.Errorf("relay: submit: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+submitPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("relay: build request: %w", err)
	}
	req.Header.Set("content-type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("relay: %s: %w", submitPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("relay: %s: unexpected status %d", submitPath, resp.StatusCode)
	}
	return nil
}
