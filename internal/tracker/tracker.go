package tracker

import (
	"sync"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"github.com/robinmaple/trading-automation-sub002/internal/bus"
	"github.com/robinmaple/trading-automation-sub002/internal/feed"
	"github.com/robinmaple/trading-automation-sub002/internal/model"
	"github.com/robinmaple/trading-automation-sub002/internal/model/enum"
	"github.com/robinmaple/trading-automation-sub002/pkg/exception"
)

// Transport is the outbound market-data request surface of the broker.
type Transport interface {
	RequestMarketData(reqID int64, contract feed.ContractSpec, granularity enum.DataGranularity) error
	RequestSnapshot(reqID int64, contract feed.ContractSpec) error
}

// Config holds the price-change significance thresholds.
type Config struct {
	MinAbsoluteChange float64
	MinPercentChange  float64
}

// Tracker owns per-symbol subscription state and the latest snapshot,
// publishing significant changes to the bus.
//
// Execution symbols bypass the significance filter entirely: live
// trading correctness is never blocked by a display-oriented throttle.
// Monitored-but-not-execution symbols pass only on threshold.
type Tracker struct {
	cfg       Config
	transport Transport
	policy    *GranularityPolicy
	events    *bus.Bus

	mu            sync.Mutex
	nextReqID     int64
	reqToSymbol   map[int64]string
	subscriptions map[string]int64
	snapshots     map[string]*model.PriceSnapshot
	monitored     map[string]struct{}
	execution     map[string]struct{}
}

// New creates a tracker bound to a transport and event bus.
func New(cfg Config, transport Transport, policy *GranularityPolicy, events *bus.Bus) *Tracker {
	return &Tracker{
		cfg:           cfg,
		transport:     transport,
		policy:        policy,
		events:        events,
		nextReqID:     1,
		reqToSymbol:   make(map[int64]string),
		subscriptions: make(map[string]int64),
		snapshots:     make(map[string]*model.PriceSnapshot),
		monitored:     make(map[string]struct{}),
		execution:     make(map[string]struct{}),
	}
}

// Subscribe requests streaming data for a symbol. Re-subscribing an
// already-subscribed symbol is a no-op. Failures are classified and
// retried with degraded granularity or a one-shot snapshot; the caller
// only ever sees a boolean.
func (t *Tracker) Subscribe(symbol string, contract feed.ContractSpec) bool {
	t.mu.Lock()
	if _, ok := t.subscriptions[symbol]; ok {
		t.mu.Unlock()
		return true
	}
	reqID := t.nextReqID
	t.nextReqID++
	t.reqToSymbol[reqID] = symbol
	t.subscriptions[symbol] = reqID
	t.monitored[symbol] = struct{}{}
	t.mu.Unlock()

	if ok := t.requestData(reqID, symbol, contract); !ok {
		t.mu.Lock()
		delete(t.reqToSymbol, reqID)
		delete(t.subscriptions, symbol)
		t.mu.Unlock()
		return false
	}
	return true
}

func (t *Tracker) requestData(reqID int64, symbol string, contract feed.ContractSpec) bool {
	granularity := enum.DataGranularityRealTime
	if t.policy != nil {
		granularity = t.policy.For(symbol, time.Now())
	}

	err := t.transport.RequestMarketData(reqID, contract, granularity)
	if err == nil {
		return true
	}
	if t.policy != nil {
		t.policy.RecordError(symbol)
	}

	if errors.Is(err, exception.ErrFeedSubscribeDenied) {
		// Permission problem: coarser data is usually still allowed.
		retryErr := t.transport.RequestMarketData(reqID, contract, granularity.Degrade())
		if retryErr == nil {
			logs.Warnf("market data degraded for %s after permission error", symbol)
			return true
		}
		err = retryErr
	}

	// Generic failure: fall back to a one-shot snapshot so at least
	// one price materializes.
	if snapErr := t.transport.RequestSnapshot(reqID, contract); snapErr == nil {
		logs.Warnf("streaming subscription failed for %s, using snapshot mode, err: %+v", symbol, err)
		return true
	}

	logs.Errorf("subscription failed for %s, err: %+v", symbol, err)
	return false
}

// MarkExecutionSymbol flags a symbol whose price events must never be
// filtered. Execution symbols are always monitored too.
func (t *Tracker) MarkExecutionSymbol(symbol string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.execution[symbol] = struct{}{}
	t.monitored[symbol] = struct{}{}
}

// Monitor adds a symbol to the threshold-filtered set.
func (t *Tracker) Monitor(symbol string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.monitored[symbol] = struct{}{}
}

// CurrentPrice returns a copy of the symbol's latest snapshot.
func (t *Tracker) CurrentPrice(symbol string) (model.PriceSnapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap, ok := t.snapshots[symbol]
	if !ok {
		return model.PriceSnapshot{}, false
	}
	return snap.Clone(), true
}

// SubscriptionID returns the request id assigned to a symbol, for tests
// and reconciliation against broker callbacks.
func (t *Tracker) SubscriptionID(symbol string) (int64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id, ok := t.subscriptions[symbol]
	return id, ok
}

// OnTick is the broker callback entry point. Unknown request ids and
// non-tradable tick kinds are ignored.
func (t *Tracker) OnTick(reqID int64, kind enum.TickKind, price float64) {
	if !kind.IsTradable() || price <= 0 {
		return
	}

	t.mu.Lock()
	symbol, ok := t.reqToSymbol[reqID]
	if !ok {
		t.mu.Unlock()
		return
	}

	snap, ok := t.snapshots[symbol]
	if !ok {
		snap = &model.PriceSnapshot{Symbol: symbol}
		t.snapshots[symbol] = snap
	}

	previous := snap.Price
	now := time.Now()
	snap.Price = price
	snap.Timestamp = now
	snap.TickKind = kind
	snap.UpdatesCount++
	snap.PushHistory(model.PricePoint{Price: price, Timestamp: now})

	_, isExecution := t.execution[symbol]
	_, isMonitored := t.monitored[symbol]
	publish := t.shouldPublish(previous, price, isExecution, isMonitored)
	t.mu.Unlock()

	if !publish || t.events == nil {
		return
	}
	// Fan-out happens outside the tracker lock so handlers may read
	// prices back without deadlocking.
	t.events.Publish(bus.PriceUpdate{
		Symbol:          symbol,
		Price:           price,
		PreviousPrice:   previous,
		TickKind:        kind,
		Timestamp:       now,
		ExecutionSymbol: isExecution,
	})
}

func (t *Tracker) shouldPublish(previous, price float64, isExecution, isMonitored bool) bool {
	if previous <= 0 {
		// First real price for the symbol.
		return true
	}
	if isExecution {
		return true
	}
	if !isMonitored {
		return false
	}
	if t.cfg.MinAbsoluteChange <= 0 && t.cfg.MinPercentChange <= 0 {
		// No thresholds configured means no filter at all.
		return true
	}

	delta := price - previous
	if delta < 0 {
		delta = -delta
	}
	if t.cfg.MinAbsoluteChange > 0 && delta >= t.cfg.MinAbsoluteChange {
		return true
	}
	if t.cfg.MinPercentChange > 0 && delta/previous*100 >= t.cfg.MinPercentChange {
		return true
	}
	return false
}
