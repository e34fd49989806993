package broker

import (
	"sync/atomic"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"github.com/robinmaple/trading-automation-sub002/internal/bus"
	"github.com/robinmaple/trading-automation-sub002/internal/model/enum"
	"github.com/robinmaple/trading-automation-sub002/internal/state"
	"github.com/robinmaple/trading-automation-sub002/pkg/exception"
)

// TickSink consumes tick-price callbacks. The price tracker implements it.
type TickSink interface {
	OnTick(reqID int64, kind enum.TickKind, price float64)
}

// StatusStore persists order-status transitions keyed by parent id.
type StatusStore interface {
	UpdateOrderStatus(parentID int64, status enum.OrderStatus, at time.Time) error
}

// Callbacks routes asynchronous broker events into the tracker, the
// state table, persistence and the event bus.
type Callbacks struct {
	ticks  TickSink
	table  *state.Table
	store  StatusStore
	events *bus.Bus
	clock  func() time.Time

	nextValidID atomic.Int64
}

func NewCallbacks(ticks TickSink, table *state.Table, store StatusStore, events *bus.Bus) *Callbacks {
	return &Callbacks{
		ticks:  ticks,
		table:  table,
		store:  store,
		events: events,
		clock:  time.Now,
	}
}

func (c *Callbacks) WithClock(clock func() time.Time) *Callbacks {
	c.clock = clock
	return c
}

// NextValidID reports the last id the broker advertised, zero if none.
func (c *Callbacks) NextValidID() int64 {
	return c.nextValidID.Load()
}

func (c *Callbacks) OnNextValidID(orderID int64) {
	c.nextValidID.Store(orderID)
}

func (c *Callbacks) OnTickPrice(reqID int64, kind enum.TickKind, price float64) {
	if c.ticks != nil {
		c.ticks.OnTick(reqID, kind, price)
	}
}

// OnOrderStatus applies a status callback to the state table and, when
// the transition sticks, persists it and publishes the change. Unknown
// ids belong to externally placed orders and are ignored.
func (c *Callbacks) OnOrderStatus(orderID int64, rawStatus string, filled, remaining, avgFillPrice float64) {
	status := state.ParseBrokerStatus(rawStatus)
	now := c.clock()
	order, changed, err := c.table.UpdateStatus(orderID, status, now)
	if err != nil {
		if !errors.Is(err, exception.ErrOrderNotFound) && !errors.Is(err, exception.ErrOrderTerminal) {
			logs.Errorf("broker callbacks, update status, err: %+v", err)
		}
		return
	}
	if !changed {
		return
	}

	if c.store != nil && len(order.OrderIDs) > 0 {
		if err := c.store.UpdateOrderStatus(order.OrderIDs[0], status, now); err != nil {
			logs.Errorf("broker callbacks, persist status, err: %+v", err)
		}
	}

	if c.events != nil {
		c.events.Publish(bus.OrderStatus{
			OrderID:   orderID,
			Status:    status,
			RawStatus: rawStatus,
			Filled:    filled,
			Remaining: remaining,
			AvgPrice:  avgFillPrice,
			Timestamp: now,
		})
	}
}

func (c *Callbacks) OnError(reqID int64, code int, message string) {
	// Codes in the 2100 range are connectivity notices, not failures.
	if code >= 2100 && code < 2200 {
		logs.Infof("broker notice %d (req %d): %s", code, reqID, message)
		return
	}
	logs.Warnf("broker error %d (req %d): %s", code, reqID, message)
}
