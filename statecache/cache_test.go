package statecache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/goleak"

	"github.com/bolt-protocol/bolt-sidecar/primitives"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func addr(b byte) primitives.Address {
	var a primitives.Address
	a[19] = b
	return a
}

func TestGetLoadsOnFirstTouch(t *testing.T) {
	var loads atomic.Int32
	c := New(func(ctx context.Context, a primitives.Address) (primitives.AccountState, error) {
		loads.Add(1)
		return primitives.AccountState{TransactionCount: 5}, nil
	})

	a := addr(1)
	state, err := c.Get(context.Background(), a)
	if err != nil {
		t.Fatal(err)
	}
	if state.TransactionCount != 5 {
		t.Fatalf("expected loaded state, got %+v", state)
	}

	if _, err := c.Get(context.Background(), a); err != nil {
		t.Fatal(err)
	}
	if loads.Load() != 1 {
		t.Fatalf("expected exactly one load, got %d", loads.Load())
	}
}

func TestSpeculativeUpdateIsVisible(t *testing.T) {
	c := New(func(ctx context.Context, a primitives.Address) (primitives.AccountState, error) {
		return primitives.AccountState{TransactionCount: 0}, nil
	})

	a := addr(2)
	if _, err := c.Get(context.Background(), a); err != nil {
		t.Fatal(err)
	}
	c.SpeculativeUpdate(a, primitives.AccountState{TransactionCount: 1})

	state, err := c.Get(context.Background(), a)
	if err != nil {
		t.Fatal(err)
	}
	if state.TransactionCount != 1 {
		t.Fatalf("expected speculative update to be visible, got %+v", state)
	}
}

func TestWithLockRollsBackOnError(t *testing.T) {
	c := New(func(ctx context.Context, a primitives.Address) (primitives.AccountState, error) {
		return primitives.AccountState{TransactionCount: 3}, nil
	})

	a := addr(3)
	wantErr := errors.New("downstream failure")
	err := c.WithLock(context.Background(), a, func(s primitives.AccountState) (primitives.AccountState, error) {
		s.TransactionCount = 99
		return s, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}

	state, err := c.Get(context.Background(), a)
	if err != nil {
		t.Fatal(err)
	}
	if state.TransactionCount != 3 {
		t.Fatalf("expected rollback to original state, got %+v", state)
	}
}

func TestLeaseCommitPersistsAcrossMultipleUpdates(t *testing.T) {
	c := New(func(ctx context.Context, a primitives.Address) (primitives.AccountState, error) {
		return primitives.AccountState{TransactionCount: 5}, nil
	})

	a := addr(7)
	lease, err := c.Acquire(context.Background(), a)
	if err != nil {
		t.Fatal(err)
	}
	s := lease.State()
	s.TransactionCount++
	lease.Update(s)
	s = lease.State()
	s.TransactionCount++
	lease.Update(s)
	lease.Commit()

	state, err := c.Get(context.Background(), a)
	if err != nil {
		t.Fatal(err)
	}
	if state.TransactionCount != 7 {
		t.Fatalf("expected both staged updates to commit, got %+v", state)
	}
}

func TestLeaseReleaseDiscardsStagedUpdates(t *testing.T) {
	c := New(func(ctx context.Context, a primitives.Address) (primitives.AccountState, error) {
		return primitives.AccountState{TransactionCount: 3}, nil
	})

	a := addr(8)
	lease, err := c.Acquire(context.Background(), a)
	if err != nil {
		t.Fatal(err)
	}
	s := lease.State()
	s.TransactionCount = 99
	lease.Update(s)
	lease.Release()

	state, err := c.Get(context.Background(), a)
	if err != nil {
		t.Fatal(err)
	}
	if state.TransactionCount != 3 {
		t.Fatalf("expected release to discard staged update, got %+v", state)
	}
}

func TestLeaseOverDistinctAddressesDoesNotDeadlock(t *testing.T) {
	c := New(func(ctx context.Context, a primitives.Address) (primitives.AccountState, error) {
		return primitives.AccountState{}, nil
	})

	a1, a2 := addr(9), addr(10)
	l1, err := c.Acquire(context.Background(), a1)
	if err != nil {
		t.Fatal(err)
	}
	l2, err := c.Acquire(context.Background(), a2)
	if err != nil {
		t.Fatal(err)
	}
	l1.Commit()
	l2.Commit()
}

func TestInvalidateAllForcesReload(t *testing.T) {
	var loads atomic.Int32
	c := New(func(ctx context.Context, a primitives.Address) (primitives.AccountState, error) {
		loads.Add(1)
		return primitives.AccountState{TransactionCount: uint64(loads.Load())}, nil
	})

	a := addr(4)
	s1, _ := c.Get(context.Background(), a)
	c.InvalidateAll()
	s2, _ := c.Get(context.Background(), a)

	if s1.TransactionCount == s2.TransactionCount {
		t.Fatal("expected a fresh load after InvalidateAll")
	}
	if loads.Load() != 2 {
		t.Fatalf("expected 2 loads, got %d", loads.Load())
	}
}

func TestEvictOutsideWorkingSet(t *testing.T) {
	c := New(func(ctx context.Context, a primitives.Address) (primitives.AccountState, error) {
		return primitives.AccountState{}, nil
	})

	a1, a2 := addr(5), addr(6)
	c.Get(context.Background(), a1)
	c.Get(context.Background(), a2)

	c.EvictOutsideWorkingSet(mapset.NewSet(a1))

	c.mu.RLock()
	_, has1 := c.entries[a1]
	_, has2 := c.entries[a2]
	c.mu.RUnlock()

	if !has1 {
		t.Fatal("expected a1 to survive eviction")
	}
	if has2 {
		t.Fatal("expected a2 to be evicted")
	}
}

func TestConcurrentAccessIsSafe(t *testing.T) {
	c := New(func(ctx context.Context, a primitives.Address) (primitives.AccountState, error) {
		return primitives.AccountState{}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a := addr(byte(i % 5))
			_ = c.WithLock(context.Background(), a, func(s primitives.AccountState) (primitives.AccountState, error) {
				s.TransactionCount++
				return s, nil
			})
		}(i)
	}
	wg.Wait()
}
