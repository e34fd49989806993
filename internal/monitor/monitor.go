package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/yanun0323/logs"

	"github.com/robinmaple/trading-automation-sub002/internal/bus"
	"github.com/robinmaple/trading-automation-sub002/internal/eligibility"
	"github.com/robinmaple/trading-automation-sub002/internal/execution"
	"github.com/robinmaple/trading-automation-sub002/internal/model"
	"github.com/robinmaple/trading-automation-sub002/internal/model/enum"
	"github.com/robinmaple/trading-automation-sub002/internal/obs"
	"github.com/robinmaple/trading-automation-sub002/internal/prioritize"
	"github.com/robinmaple/trading-automation-sub002/internal/state"
)

const (
	DefaultInterval = 10 * time.Second

	// dirtyBuffer bounds symbols queued by price updates between passes.
	dirtyBuffer = 256

	// DefaultCoreDays is the hybrid-order lifetime when the plan row
	// does not set one.
	DefaultCoreDays = 5
)

// Canceller is the slice of the broker gateway the expiry sweep needs.
type Canceller interface {
	CancelOrder(orderID int64) error
}

// Calendar supplies session boundaries for day-order expiry.
type Calendar interface {
	SessionEnd(at time.Time) time.Time
}

// Config tunes the monitor loop.
type Config struct {
	Interval     time.Duration
	TotalCapital float64
	MarketRegime string
	CoreDays     int
}

// Monitor drives the execution pipeline: a fixed-interval full pass
// over the plan, symbol-scoped passes triggered by price updates, and
// an expiry sweep for DAY and HYBRID orders.
type Monitor struct {
	mu   sync.Mutex
	plan []model.PlannedOrder

	eligibility *eligibility.Service
	engine      *prioritize.Engine
	coordinator *execution.Coordinator
	table       *state.Table
	canceller   Canceller
	calendar    Calendar
	metrics     *obs.Metrics
	batches     *obs.BatchIDGenerator

	cfg   Config
	dirty chan string
	clock func() time.Time
}

func New(
	eligibilitySvc *eligibility.Service,
	engine *prioritize.Engine,
	coordinator *execution.Coordinator,
	table *state.Table,
	canceller Canceller,
	calendar Calendar,
	metrics *obs.Metrics,
	cfg Config,
) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.CoreDays <= 0 {
		cfg.CoreDays = DefaultCoreDays
	}
	return &Monitor{
		eligibility: eligibilitySvc,
		engine:      engine,
		coordinator: coordinator,
		table:       table,
		canceller:   canceller,
		calendar:    calendar,
		metrics:     metrics,
		batches:     obs.NewBatchIDGenerator(0),
		cfg:         cfg,
		dirty:       make(chan string, dirtyBuffer),
		clock:       time.Now,
	}
}

// WithClock overrides time for tests.
func (m *Monitor) WithClock(now func() time.Time) *Monitor {
	m.clock = now
	return m
}

// SetPlan swaps the planned-order set. Safe while the loop runs.
func (m *Monitor) SetPlan(plan []model.PlannedOrder) {
	copied := make([]model.PlannedOrder, len(plan))
	copy(copied, plan)

	m.mu.Lock()
	m.plan = copied
	m.mu.Unlock()
}

func (m *Monitor) planSnapshot() []model.PlannedOrder {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.plan
}

// Attach queues symbol-scoped passes off price updates. The handler
// only enqueues, keeping the bus fan-out fast.
func (m *Monitor) Attach(events *bus.Bus) bool {
	_, ok := events.Subscribe(bus.KindPriceUpdate, func(e bus.Event) {
		update, isPrice := e.(bus.PriceUpdate)
		if !isPrice {
			return
		}
		select {
		case m.dirty <- update.Symbol:
		default:
			// queue full: the next periodic pass covers it
		}
	})
	return ok
}

// Run blocks until ctx ends, alternating between reactive symbol
// passes and the periodic full pass.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case symbol := <-m.dirty:
			m.runPass(m.drainDirty(symbol))
		case <-ticker.C:
			m.sweepExpired()
			m.runPass(nil)
		}
	}
}

// drainDirty collects every queued symbol so one burst of ticks turns
// into one pass.
func (m *Monitor) drainDirty(first string) map[string]struct{} {
	symbols := map[string]struct{}{first: {}}
	for {
		select {
		case symbol := <-m.dirty:
			symbols[symbol] = struct{}{}
		default:
			return symbols
		}
	}
}

// runPass walks eligibility, prioritization and execution once.
// A nil symbol set means the full plan.
func (m *Monitor) runPass(symbols map[string]struct{}) {
	plan := m.planSnapshot()
	if len(plan) == 0 {
		return
	}

	var candidates []model.Candidate
	if symbols == nil {
		candidates = m.eligibility.FindExecutableOrders(plan)
	} else {
		candidates = m.eligibility.FindExecutableForSymbols(plan, symbols)
	}
	if len(candidates) == 0 {
		return
	}

	batch := m.batches.Next()
	started := m.clock()

	scored := m.engine.Prioritize(candidates, m.cfg.TotalCapital, m.cfg.MarketRegime)
	summary := m.coordinator.ExecutePrioritized(scored, m.cfg.TotalCapital)

	m.metrics.ObserveExecution(m.clock().Sub(started))
	for _, outcome := range summary.Outcomes {
		if outcome.Executed {
			m.metrics.IncOrdersPlaced()
			continue
		}
		m.metrics.IncSkipReason(outcome.Reason)
	}
	logs.Infof("pass %d: %d candidates, %d placed, %d skipped",
		batch, len(candidates), summary.Executed, summary.Skipped)
}

// sweepExpired cancels working DAY orders past session end and HYBRID
// orders past their core-days window.
func (m *Monitor) sweepExpired() {
	now := m.clock()

	m.table.IterWorking(func(order model.ActiveOrder) {
		// The deadline comes from the session governing submission;
		// resolving it against now would always land in the future.
		var sessionEnd time.Time
		if m.calendar != nil {
			sessionEnd = m.calendar.SessionEnd(order.SubmittedAt)
		}
		if order.Planned.Strategy == enum.PositionStrategyDay && sessionEnd.IsZero() {
			return
		}
		expiresAt, ok := order.Planned.ExpiresAt(order.SubmittedAt, sessionEnd, m.cfg.CoreDays)
		if !ok || now.Before(expiresAt) {
			return
		}

		cancelled := true
		for _, id := range order.OrderIDs {
			if err := m.canceller.CancelOrder(id); err != nil {
				logs.Errorf("expire cancel order %d, err: %+v", id, err)
				cancelled = false
			}
		}
		if !cancelled {
			return
		}
		if _, _, err := m.table.UpdateStatus(order.ParentID(), enum.OrderStatusExpired, now); err != nil {
			logs.Errorf("expire order %d, err: %+v", order.ParentID(), err)
			return
		}
		logs.Infof("order %d on %s expired", order.ParentID(), order.Planned.Symbol)
	})
}
