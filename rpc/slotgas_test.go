package rpc

import "testing"

func TestSlotGasTrackerAccumulatesAcrossAdds(t *testing.T) {
	g := newSlotGasTracker()

	g.Add(10, 21_000)
	g.Add(10, 50_000)

	if got := g.Get(10); got != 71_000 {
		t.Fatalf("expected 71000, got %d", got)
	}
}

func TestSlotGasTrackerIsolatesSlots(t *testing.T) {
	g := newSlotGasTracker()

	g.Add(10, 21_000)
	g.Add(11, 1_000)

	if got := g.Get(10); got != 21_000 {
		t.Fatalf("expected slot 10 at 21000, got %d", got)
	}
	if got := g.Get(11); got != 1_000 {
		t.Fatalf("expected slot 11 at 1000, got %d", got)
	}
}

func TestSlotGasTrackerAdvancePrunesOldSlots(t *testing.T) {
	g := newSlotGasTracker()
	g.Add(10, 21_000)

	g.Advance(10 + activeGasSlotWindow + 1)

	if got := g.Get(10); got != 0 {
		t.Fatalf("expected pruned slot to reset to 0, got %d", got)
	}
}

func TestSlotGasTrackerAdvanceKeepsSlotsInsideWindow(t *testing.T) {
	g := newSlotGasTracker()
	g.Add(10, 21_000)

	g.Advance(10 + activeGasSlotWindow)

	if got := g.Get(10); got != 21_000 {
		t.Fatalf("expected slot inside active window to survive, got %d", got)
	}
}
