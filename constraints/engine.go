package constraints

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bolt-protocol/bolt-sidecar/internal/xlog"
	"github.com/bolt-protocol/bolt-sidecar/metrics"
	"github.com/bolt-protocol/bolt-sidecar/primitives"
	"github.com/bolt-protocol/bolt-sidecar/signing"
)

// ErrTopOfBlockAlreadyClaimed is returned when a second top-of-block
// bundle is submitted for a slot that already has one (spec §3
// invariant: "Only 1 top-of-block bundle is valid" per slot).
var ErrTopOfBlockAlreadyClaimed = errors.New("constraints: top-of-block bundle already claimed for this slot")

// Signer produces a BLS signature over a commit-boost signing root; the
// engine is agnostic to whether the secret is local, keystore-backed, or
// remote (spec §4.5's three sources all satisfy this).
type Signer interface {
	Sign(ctx context.Context, signingRoot [32]byte) (*signing.Signature, error)
	PublicKey() [48]byte
}

// Sink forwards a signed constraint set downstream (spec §2 "downstream
// PBS relay transport").
type Sink interface {
	Submit(ctx context.Context, signed *Signed) error
}

// Engine builds, signs, and forwards ConstraintsMessages for validated
// inclusion requests (spec §4.4).
type Engine struct {
	signer Signer
	sink   Sink
	domain func() signing.Domain

	mu          sync.Mutex
	topOfBlock  map[uint64]bool
}

// New returns an Engine. domain is called per-signing to fetch the
// current chain fork's signing domain (spec §3 "Signing root"),
// reflecting that the fork version is process-wide configuration (spec
// §9 "Global configuration").
func New(signer Signer, sink Sink, domain func() signing.Domain) *Engine {
	return &Engine{
		signer:     signer,
		sink:       sink,
		domain:     domain,
		topOfBlock: make(map[uint64]bool),
	}
}

// Build constructs, signs, and forwards a ConstraintsMessage for the
// given slot and transactions (spec §4.4). If top is true and a
// top-of-block bundle was already admitted for this slot,
// ErrTopOfBlockAlreadyClaimed is returned and nothing is forwarded.
func (e *Engine) Build(ctx context.Context, slot uint64, top bool, txs []*primitives.Transaction) (*Signed, error) {
	if top {
		e.mu.Lock()
		if e.topOfBlock[slot] {
			e.mu.Unlock()
			return nil, ErrTopOfBlockAlreadyClaimed
		}
		e.topOfBlock[slot] = true
		e.mu.Unlock()
	}

	msg := &Message{
		Pubkey:       e.signer.PublicKey(),
		Slot:         slot,
		Top:          top,
		Transactions: txs,
	}

	start := time.Now()
	digest := msg.BLSDigest()
	signingRoot := signing.ComputeSigningRoot(digest, e.domain())

	sig, err := e.signer.Sign(ctx, signingRoot)
	metrics.ObserveConstraintsSignCost(start)
	if err != nil {
		if top {
			e.mu.Lock()
			delete(e.topOfBlock, slot)
			e.mu.Unlock()
		}
		return nil, fmt.Errorf("constraints: sign: %w", err)
	}

	signed := &Signed{Message: msg, Signature: *sig}

	submitStart := time.Now()
	err = e.sink.Submit(ctx, signed)
	metrics.ObserveDownstreamSubmitCost(submitStart)
	if err != nil {
		if top {
			e.mu.Lock()
			delete(e.topOfBlock, slot)
			e.mu.Unlock()
		}
		xlog.Warn("downstream submit failed, commitment rejected", "slot", slot, "err", err)
		return nil, fmt.Errorf("constraints: submit: %w", err)
	}

	return signed, nil
}

// ResetSlot clears the top-of-block claim for a slot, e.g. on head
// change once the slot has passed.
func (e *Engine) ResetSlot(slot uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.topOfBlock, slot)
}
