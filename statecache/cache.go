// Package statecache implements the per-address account-state cache of
// spec §3/§5: a single-writer-many-reader structure keyed by address,
// refreshed on first touch and on head change, with speculative updates
// for admitted preconfirmations and working-set eviction. Grounded on the
// teacher's preconfChecker mutex-guarded-struct idiom
// (miner/preconf_checker.go: one sync.RWMutex guarding cached state,
// "two step lock to reduce lock time" pattern for the expensive refresh
// path), generalized from one struct to a per-key cache.
package statecache

import (
	"context"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/bolt-protocol/bolt-sidecar/metrics"
	"github.com/bolt-protocol/bolt-sidecar/primitives"
)

// Loader fetches the authoritative account state for an address as of
// the latest observed head (the execution-layer StateProvider, spec §6).
type Loader func(ctx context.Context, addr primitives.Address) (primitives.AccountState, error)

type entry struct {
	mu      sync.Mutex
	state   primitives.AccountState
	loaded  bool
}

// Cache is the account-state cache. The zero value is not usable; use
// New.
type Cache struct {
	load Loader

	mu         sync.RWMutex
	entries    map[primitives.Address]*entry
	workingSet mapset.Set[primitives.Address]
}

// New returns a Cache that refreshes misses via load.
func New(load Loader) *Cache {
	return &Cache{
		load:       load,
		entries:    make(map[primitives.Address]*entry),
		workingSet: mapset.NewSet[primitives.Address](),
	}
}

func (c *Cache) entryFor(addr primitives.Address) *entry {
	c.mu.RLock()
	e, ok := c.entries[addr]
	c.mu.RUnlock()
	if ok {
		return e
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[addr]; ok {
		return e
	}
	e = &entry{}
	c.entries[addr] = e
	metrics.AccountCacheSizeGauge.Update(int64(len(c.entries)))
	return e
}

// Get returns the cached state for addr, loading it on first touch. The
// address is marked as part of the current working set.
func (c *Cache) Get(ctx context.Context, addr primitives.Address) (primitives.AccountState, error) {
	c.workingSet.Add(addr)

	e := c.entryFor(addr)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.loaded {
		metrics.AccountCacheHitMeter.Mark(1)
		return e.state.Clone(), nil
	}

	metrics.AccountCacheMissMeter.Mark(1)
	state, err := c.load(ctx, addr)
	if err != nil {
		return primitives.AccountState{}, err
	}
	e.state = state
	e.loaded = true
	return e.state.Clone(), nil
}

// SpeculativeUpdate overwrites the cached state for addr after admitting
// a preconfirmed transaction (spec §3 "local speculative update"). The
// caller is expected to hold the admission critical section for addr
// (spec §5 "the validator holds the sender's state entry exclusively
// across the validate-then-update critical section"); SpeculativeUpdate
// itself only guards the single assignment.
func (c *Cache) SpeculativeUpdate(addr primitives.Address, state primitives.AccountState) {
	e := c.entryFor(addr)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = state
	e.loaded = true
}

// WithLock runs fn while holding addr's per-entry lock, giving the
// validator an atomic read-check-write critical section (spec §5). fn
// receives the current state (loading it first if necessary) and
// returns the state to store; if fn returns an error, no update is made
// (rollback semantics, spec §7 "any failure downstream ... triggers a
// rollback").
func (c *Cache) WithLock(ctx context.Context, addr primitives.Address, fn func(primitives.AccountState) (primitives.AccountState, error)) error {
	c.workingSet.Add(addr)

	e := c.entryFor(addr)
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.loaded {
		metrics.AccountCacheMissMeter.Mark(1)
		state, err := c.load(ctx, addr)
		if err != nil {
			return err
		}
		e.state = state
		e.loaded = true
	} else {
		metrics.AccountCacheHitMeter.Mark(1)
	}

	next, err := fn(e.state.Clone())
	if err != nil {
		return err
	}
	e.state = next
	return nil
}

// Lease holds addr's entry lock across a multi-step admission sequence
// (spec §7 "any failure downstream of the speculative state-cache
// update triggers a rollback"): unlike WithLock, which commits or
// rejects a single closure's result immediately, a Lease lets a caller
// stage several updates to the same address and only commit (or
// discard) them together once the whole sequence either succeeds or
// fails. The zero value is not usable; use Acquire.
type Lease struct {
	e     *entry
	state primitives.AccountState
}

// Acquire locks addr's entry for the duration of the returned Lease,
// loading it first if necessary. The caller must call exactly one of
// Commit or Release to unlock it.
func (c *Cache) Acquire(ctx context.Context, addr primitives.Address) (*Lease, error) {
	c.workingSet.Add(addr)

	e := c.entryFor(addr)
	e.mu.Lock()

	if !e.loaded {
		metrics.AccountCacheMissMeter.Mark(1)
		state, err := c.load(ctx, addr)
		if err != nil {
			e.mu.Unlock()
			return nil, err
		}
		e.state = state
		e.loaded = true
	} else {
		metrics.AccountCacheHitMeter.Mark(1)
	}

	return &Lease{e: e, state: e.state.Clone()}, nil
}

// State returns the lease's working state, reflecting any earlier
// Update made within the same lease.
func (l *Lease) State() primitives.AccountState {
	return l.state
}

// Update replaces the lease's working state. The change is not visible
// to other callers of the cache until Commit.
func (l *Lease) Update(state primitives.AccountState) {
	l.state = state
}

// Commit writes the lease's working state back to the cache and
// releases the lock.
func (l *Lease) Commit() {
	l.e.state = l.state
	l.e.mu.Unlock()
}

// Release discards the lease's working state and releases the lock,
// leaving the cache exactly as it was before Acquire (spec §7
// rollback).
func (l *Lease) Release() {
	l.e.mu.Unlock()
}

// InvalidateAll discards every cached entry in one bulk transition (spec
// §3 "Head changes invalidate the entire cache in one bulk transition").
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[primitives.Address]*entry)
	metrics.AccountCacheSizeGauge.Update(0)
}

// EvictOutsideWorkingSet drops every cached entry whose address is not a
// member of keep, then resets the working set to keep (spec §3
// "evicted when they fall out of the working set").
func (c *Cache) EvictOutsideWorkingSet(keep mapset.Set[primitives.Address]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for addr := range c.entries {
		if !keep.Contains(addr) {
			delete(c.entries, addr)
		}
	}
	c.workingSet = keep.Clone()
	metrics.AccountCacheSizeGauge.Update(int64(len(c.entries)))
}

// WorkingSet returns a snapshot of addresses touched since the cache was
// created or last evicted.
func (c *Cache) WorkingSet() mapset.Set[primitives.Address] {
	return c.workingSet.Clone()
}
