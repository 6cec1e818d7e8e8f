// Package chain models the sidecar's external collaborators (spec §6)
// as Go interfaces: the beacon node's head feed and the execution layer's
// account-state reads (the downstream relay sink lives in package
// constraints, see below). Concrete implementations (chain/beacon.go,
// chain/execution.go, chain/duties.go) are thin transport adapters; callers elsewhere in the module depend only on these
// interfaces, mirroring the teacher's own use of ethclient.Client as an
// injected collaborator in miner/preconf_checker.go.
package chain

import (
	"context"

	"github.com/bolt-protocol/bolt-sidecar/primitives"
)

// Head describes a newly observed beacon chain head (spec §3 "Lifecycle").
type Head struct {
	Slot        uint64
	BlockHash   primitives.Hash
	ForkVersion [4]byte
}

// HeadSource delivers beacon head updates (spec §2 "upstream consensus
// beacon node").
type HeadSource interface {
	// Subscribe streams heads until ctx is canceled or an unrecoverable
	// transport error occurs.
	Subscribe(ctx context.Context) (<-chan Head, error)
}

// StateProvider reads execution-layer account state (spec §2 "execution-
// layer state provider").
type StateProvider interface {
	AccountState(ctx context.Context, addr primitives.Address) (primitives.AccountState, error)
}

// The constraint sink (spec §2 "downstream PBS relay transport") is
// defined as constraints.Sink, next to the *Signed type it forwards — there is
// no reason for a caller to depend on package chain just to submit a
// constraint set.
