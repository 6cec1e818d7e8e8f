package rpc

import (
	"sync"

	"github.com/bolt-protocol/bolt-sidecar/primitives"
)

// activeSlotWindow bounds how many trailing slots a fingerprint is
// remembered for duplicate detection (spec §4.7 "within the active slot
// window"); the spec leaves the window's exact width unspecified, so it
// is fixed here to the current slot plus one trailing slot, wide enough
// to catch a retry that straddles a slot boundary without growing memory
// unboundedly.
const activeSlotWindow = 1

type fingerprint struct {
	sender primitives.Address
	nonce  uint64
	slot   uint64
}

// dedupTracker remembers admitted request fingerprints within the active
// slot window, keyed both by the (sender, nonce, slot) tuple and by raw
// transaction hash (spec §3 "A request is keyed for deduplication by the
// tuple (sender, nonce, slot) and by its raw transaction hash").
//
// Fingerprints are marked as soon as a request clears authentication,
// before validation runs, per spec §4.7's retry policy: "Validation
// errors fail the request but may mutate dedup state (so retries are
// cheap)" — a failed retry of the same request short-circuits on the
// dedup check rather than repeating a validation pass that will fail
// again.
type dedupTracker struct {
	mu      sync.Mutex
	byKey   map[fingerprint]struct{}
	byHash  map[primitives.Hash]struct{}
	slots   map[uint64]map[fingerprint]primitives.Hash
}

func newDedupTracker() *dedupTracker {
	return &dedupTracker{
		byKey:  make(map[fingerprint]struct{}),
		byHash: make(map[primitives.Hash]struct{}),
		slots:  make(map[uint64]map[fingerprint]primitives.Hash),
	}
}

// CheckAndMark reports whether (sender, nonce, slot) or txHash has
// already been admitted; if not, it marks both as seen.
func (d *dedupTracker) CheckAndMark(slot uint64, sender primitives.Address, nonce uint64, txHash primitives.Hash) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := fingerprint{sender: sender, nonce: nonce, slot: slot}
	if _, ok := d.byKey[key]; ok {
		return false
	}
	if _, ok := d.byHash[txHash]; ok {
		return false
	}

	d.byKey[key] = struct{}{}
	d.byHash[txHash] = struct{}{}
	if d.slots[slot] == nil {
		d.slots[slot] = make(map[fingerprint]primitives.Hash)
	}
	d.slots[slot][key] = txHash
	return true
}

// Release undoes a prior CheckAndMark for (sender, nonce, slot) / txHash.
// It is used when a request step after admission fails in a way that
// means the transaction never actually reached a relay (e.g. the
// constraint engine's sign or submit step), so the same nonce can be
// retried (spec §7); it must not be called for a validation failure,
// where the dedup mark is intentionally kept to make a retry of the
// same failing request cheap.
func (d *dedupTracker) Release(slot uint64, sender primitives.Address, nonce uint64, txHash primitives.Hash) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := fingerprint{sender: sender, nonce: nonce, slot: slot}
	delete(d.byKey, key)
	delete(d.byHash, txHash)
	if entries := d.slots[slot]; entries != nil {
		delete(entries, key)
	}
}

// Advance drops fingerprints for slots outside the active window around
// currentSlot, bounding the tracker's memory to live chain state.
func (d *dedupTracker) Advance(currentSlot uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for slot, entries := range d.slots {
		if slot+activeSlotWindow >= currentSlot {
			continue
		}
		for key, hash := range entries {
			delete(d.byKey, key)
			delete(d.byHash, hash)
		}
		delete(d.slots, slot)
	}
}
