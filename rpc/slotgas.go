package rpc

import "sync"

// activeGasSlotWindow mirrors activeSlotWindow: a slot's preconfirmed
// gas total is retained for the current slot plus one trailing slot,
// then pruned.
const activeGasSlotWindow = 1

// slotGasTracker holds the shared, request-spanning preconfirmed gas
// total for each slot (spec §3 "preconfirmed_gas[slot] < block_gas_limit
// at all times", spec §8 "sum of tx.gas_limit over all admitted
// requests for a slot never exceeds block_gas_limit"). It is a single
// *Server-scoped instance, not a per-request variable: two concurrent
// bolt_requestInclusion calls targeting the same slot must observe each
// other's already-admitted gas, the same way dedupTracker's marks are
// shared across calls.
type slotGasTracker struct {
	mu  sync.Mutex
	gas map[uint64]uint64
}

func newSlotGasTracker() *slotGasTracker {
	return &slotGasTracker{gas: make(map[uint64]uint64)}
}

// Get returns the gas already committed for slot.
func (t *slotGasTracker) Get(slot uint64) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gas[slot]
}

// Add credits slot with additionalGas once a request admitting it has
// committed in full (the constraint engine successfully built, signed,
// and forwarded it).
func (t *slotGasTracker) Add(slot uint64, additionalGas uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gas[slot] += additionalGas
}

// Advance drops totals for slots outside the active window around
// currentSlot, bounding the tracker's memory to live chain state.
func (t *slotGasTracker) Advance(currentSlot uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for slot := range t.gas {
		if slot+activeGasSlotWindow >= currentSlot {
			continue
		}
		delete(t.gas, slot)
	}
}
