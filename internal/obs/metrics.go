package obs

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/robinmaple/trading-automation-sub002/internal/bus"
)

// Metrics collects lightweight counters and latency stats for the
// trading loop. All methods are safe on a nil receiver so wiring stays
// optional.
type Metrics struct {
	eventCounts [5]uint64 // indexed by bus.Kind

	mu          sync.Mutex
	skipReasons map[string]uint64

	ordersPlaced   uint64
	ordersReplaced uint64

	executionLatency LatencyStats
	reconcileLatency LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	EventCounts      map[bus.Kind]uint64
	SkipReasons      map[string]uint64
	OrdersPlaced     uint64
	OrdersReplaced   uint64
	ExecutionLatency LatencySnapshot
	ReconcileLatency LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{skipReasons: make(map[string]uint64)}
}

// Attach counts every event passing the bus.
func (m *Metrics) Attach(events *bus.Bus) bool {
	if m == nil {
		return false
	}
	_, ok := events.SubscribeAll(func(e bus.Event) {
		m.ObserveEvent(e.Kind())
	})
	return ok
}

// ObserveEvent bumps the per-kind event counter.
func (m *Metrics) ObserveEvent(kind bus.Kind) {
	if m == nil {
		return
	}
	idx := int(kind)
	if idx >= 0 && idx < len(m.eventCounts) {
		atomic.AddUint64(&m.eventCounts[idx], 1)
	}
}

// IncSkipReason counts one rejected execution candidate by reason.
func (m *Metrics) IncSkipReason(reason string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.skipReasons[reason]++
	m.mu.Unlock()
}

// IncOrdersPlaced counts one submitted bracket.
func (m *Metrics) IncOrdersPlaced() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.ordersPlaced, 1)
}

// IncOrdersReplaced counts one replacement submission.
func (m *Metrics) IncOrdersReplaced() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.ordersReplaced, 1)
}

// ObserveExecution measures one coordinator batch.
func (m *Metrics) ObserveExecution(d time.Duration) {
	if m == nil {
		return
	}
	m.executionLatency.Observe(d)
}

// ObserveReconcile measures one reconciliation cycle.
func (m *Metrics) ObserveReconcile(d time.Duration) {
	if m == nil {
		return
	}
	m.reconcileLatency.Observe(d)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	eventCounts := make(map[bus.Kind]uint64)
	for i := range m.eventCounts {
		if v := atomic.LoadUint64(&m.eventCounts[i]); v > 0 {
			eventCounts[bus.Kind(i)] = v
		}
	}
	skipReasons := make(map[string]uint64)
	m.mu.Lock()
	for reason, v := range m.skipReasons {
		skipReasons[reason] = v
	}
	m.mu.Unlock()
	return Snapshot{
		EventCounts:      eventCounts,
		SkipReasons:      skipReasons,
		OrdersPlaced:     atomic.LoadUint64(&m.ordersPlaced),
		OrdersReplaced:   atomic.LoadUint64(&m.ordersReplaced),
		ExecutionLatency: m.executionLatency.Snapshot(),
		ReconcileLatency: m.reconcileLatency.Snapshot(),
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	min := atomic.LoadUint64(&l.min)
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(min),
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}
