package rpc

import (
	"context"

	"github.com/bolt-protocol/bolt-sidecar/signing"
	"github.com/bolt-protocol/bolt-sidecar/workerpool"
)

// DutyLookup resolves the validator pubkey proposing at slot, e.g. backed
// by the beacon node's proposer-duties endpoint.
type DutyLookup func(slot uint64) ([48]byte, error)

// slotSigner adapts a single signing.SecretKey to constraints.Signer,
// offloading the actual BLS operation to a shared workerpool (spec §5:
// "CPU-bound signing work is offloaded to a bounded worker pool so that
// a single BLS signature cannot stall the event loop"). One slotSigner
// backs one constraints.Engine, one engine per delegatee key the
// process holds (spec §4.5); Server.Engines then picks the engine whose
// key is on duty for a given slot.
type slotSigner struct {
	pool *workerpool.Pool
	sk   *signing.SecretKey
}

// NewSlotSigner returns a constraints.Signer for sk, offloading BLS
// signing onto pool.
func NewSlotSigner(pool *workerpool.Pool, sk *signing.SecretKey) *slotSigner {
	return &slotSigner{pool: pool, sk: sk}
}

func (s *slotSigner) PublicKey() [48]byte {
	var pub [48]byte
	copy(pub[:], s.sk.PublicKey().Bytes())
	return pub
}

func (s *slotSigner) Sign(ctx context.Context, signingRoot [32]byte) (*signing.Signature, error) {
	v, err := workerpool.Submit(s.pool, ctx, func(ctx context.Context) (any, error) {
		return s.sk.Sign(signingRoot[:]), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*signing.Signature), nil
}
