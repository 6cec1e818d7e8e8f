// Package metrics reproduces the call-site shape of the teacher's own
// metrics package (github.com/ethereum/go-ethereum/metrics, used in
// preconf/metrics.go as metrics.NewRegisteredGauge/Meter/Timer) without
// being able to import it — this module is the renamed fork that would
// define it, and no standalone metrics library (e.g. rcrowley/go-metrics)
// appears in the teacher's go.mod, since that package ships inside the
// geth tree itself rather than as an external module. See DESIGN.md for
// the stdlib justification.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Gauge holds a single signed integer value, matching
// metrics.Gauge.Update/Inc/Dec.
type Gauge struct {
	value atomic.Int64
}

func (g *Gauge) Update(v int64) { g.value.Store(v) }
func (g *Gauge) Inc(delta int64) { g.value.Add(delta) }
func (g *Gauge) Dec(delta int64) { g.value.Add(-delta) }
func (g *Gauge) Snapshot() int64 { return g.value.Load() }

// Meter tracks an event count, matching metrics.Meter.Mark/Count.
type Meter struct {
	count atomic.Int64
}

func (m *Meter) Mark(n int64) { m.count.Add(n) }
func (m *Meter) Count() int64 { return m.count.Load() }

// Timer tracks a running count and total duration of timed events,
// matching metrics.Timer.Update/Count/Mean.
type Timer struct {
	mu    sync.Mutex
	count int64
	total time.Duration
}

func (t *Timer) Update(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count++
	t.total += d
}

func (t *Timer) UpdateSince(start time.Time) { t.Update(time.Since(start)) }

func (t *Timer) Count() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

func (t *Timer) Mean() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.count == 0 {
		return 0
	}
	return t.total / time.Duration(t.count)
}

var (
	registryMu sync.Mutex
	gauges     = map[string]*Gauge{}
	meters     = map[string]*Meter{}
	timers     = map[string]*Timer{}
)

// NewRegisteredGauge returns the process-wide Gauge for name, creating it
// on first use. The second argument mirrors the teacher's registry
// parameter (always nil at call sites in the retrieved pack); it is
// accepted and ignored for call-site compatibility.
func NewRegisteredGauge(name string, _ any) *Gauge {
	registryMu.Lock()
	defer registryMu.Unlock()
	if g, ok := gauges[name]; ok {
		return g
	}
	g := &Gauge{}
	gauges[name] = g
	return g
}

// NewRegisteredMeter returns the process-wide Meter for name.
func NewRegisteredMeter(name string, _ any) *Meter {
	registryMu.Lock()
	defer registryMu.Unlock()
	if m, ok := meters[name]; ok {
		return m
	}
	m := &Meter{}
	meters[name] = m
	return m
}

// NewRegisteredTimer returns the process-wide Timer for name.
func NewRegisteredTimer(name string, _ any) *Timer {
	registryMu.Lock()
	defer registryMu.Unlock()
	if t, ok := timers[name]; ok {
		return t
	}
	t := &Timer{}
	timers[name] = t
	return t
}
