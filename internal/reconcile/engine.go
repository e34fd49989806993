package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/yanun0323/logs"

	"github.com/robinmaple/trading-automation-sub002/internal/broker"
	"github.com/robinmaple/trading-automation-sub002/internal/bus"
	"github.com/robinmaple/trading-automation-sub002/internal/model"
	"github.com/robinmaple/trading-automation-sub002/internal/state"
	"github.com/robinmaple/trading-automation-sub002/pkg/exception"
)

// Discrepancy classes.
const (
	ClassStatusMismatch  = "statusMismatch"
	ClassMissingInternal = "missingInternal"
	ClassMissingExternal = "missingExternal"
)

const (
	DefaultPollInterval = 30 * time.Second
	maxBackoff          = 300 * time.Second
	defaultBackoffStep  = 60 * time.Second
	maxConsecutiveFails = 5
)

// BrokerView is the broker state surface the reconciler polls.
type BrokerView interface {
	OpenOrders(ctx context.Context) ([]broker.OpenOrder, error)
	Positions(ctx context.Context) ([]model.Position, error)
}

// PositionSource is the internal record of open positions.
type PositionSource interface {
	OpenPositions() ([]model.Position, error)
}

// Handler receives classified discrepancies. The engine observes and
// reports; corrective action against broker state is deliberately out
// of its hands.
type Handler func(bus.Discrepancy)

// Engine periodically cross-checks internal order and position state
// against what the broker reports.
type Engine struct {
	view     BrokerView
	table    *state.Table
	internal PositionSource
	events   *bus.Bus
	handler  Handler
	interval time.Duration
	step     time.Duration
}

// NewEngine wires a reconciler. interval <= 0 falls back to the
// default poll interval.
func NewEngine(view BrokerView, table *state.Table, internal PositionSource, events *bus.Bus, handler Handler, interval time.Duration) *Engine {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Engine{
		view:     view,
		table:    table,
		internal: internal,
		events:   events,
		handler:  handler,
		interval: interval,
		step:     defaultBackoffStep,
	}
}

// Run loops until the context ends or the engine gives up. Each cycle
// failure backs off linearly; after five consecutive failures the
// engine stops itself rather than spinning against a broken
// connection.
func (e *Engine) Run(ctx context.Context) error {
	consecutive := 0
	for {
		if err := e.cycle(ctx); err != nil {
			consecutive++
			logs.Errorf("reconcile cycle failed (%d consecutive), err: %+v", consecutive, err)
			if consecutive >= maxConsecutiveFails {
				return exception.ErrReconcilerStopped
			}
			if err := sleep(ctx, e.backoff(consecutive)); err != nil {
				return err
			}
			continue
		}
		consecutive = 0
		if err := sleep(ctx, e.interval); err != nil {
			return err
		}
	}
}

// cycle runs one reconciliation pass. Panics are captured as errors so
// one bad payload never kills the loop accounting.
func (e *Engine) cycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reconcile panic: %v", r)
		}
	}()

	brokerOrders, err := e.view.OpenOrders(ctx)
	if err != nil {
		return err
	}
	brokerPositions, err := e.view.Positions(ctx)
	if err != nil {
		return err
	}

	e.diffOrders(brokerOrders)
	if e.internal != nil {
		internalPositions, err := e.internal.OpenPositions()
		if err != nil {
			return err
		}
		e.diffPositions(internalPositions, brokerPositions)
	}
	return nil
}

func (e *Engine) diffOrders(brokerOrders []broker.OpenOrder) {
	byID := make(map[int64]broker.OpenOrder, len(brokerOrders))
	for _, o := range brokerOrders {
		byID[o.OrderID] = o
	}

	seen := make(map[int64]struct{})
	e.table.IterWorking(func(order model.ActiveOrder) {
		matched := false
		for _, id := range order.OrderIDs {
			remote, ok := byID[id]
			if !ok {
				continue
			}
			matched = true
			seen[id] = struct{}{}
			remoteStatus := state.ParseBrokerStatus(remote.RawStatus)
			if remoteStatus != order.Status {
				e.report(bus.Discrepancy{
					Class:   ClassStatusMismatch,
					Symbol:  order.Planned.Symbol,
					OrderID: id,
					Detail:  fmt.Sprintf("internal %s vs broker %s", order.Status, remote.RawStatus),
				})
			}
		}
		if !matched {
			e.report(bus.Discrepancy{
				Class:   ClassMissingExternal,
				Symbol:  order.Planned.Symbol,
				OrderID: order.ParentID(),
				Detail:  "tracked order not reported by broker",
			})
		}
	})

	for id, remote := range byID {
		if _, ok := seen[id]; ok {
			continue
		}
		if _, ok := e.table.Find(id); ok {
			continue
		}
		e.report(bus.Discrepancy{
			Class:   ClassMissingInternal,
			Symbol:  remote.Symbol,
			OrderID: id,
			Detail:  "broker order not tracked internally",
		})
	}
}

func (e *Engine) diffPositions(internal, remote []model.Position) {
	remoteBySymbol := make(map[string]model.Position, len(remote))
	for _, p := range remote {
		remoteBySymbol[p.Symbol] = p
	}

	for _, p := range internal {
		r, ok := remoteBySymbol[p.Symbol]
		if !ok {
			e.report(bus.Discrepancy{
				Class:  ClassMissingExternal,
				Symbol: p.Symbol,
				Detail: "internal position not reported by broker",
			})
			continue
		}
		delete(remoteBySymbol, p.Symbol)
		if r.Quantity != p.Quantity {
			e.report(bus.Discrepancy{
				Class:  ClassStatusMismatch,
				Symbol: p.Symbol,
				Detail: fmt.Sprintf("internal qty %.2f vs broker qty %.2f", p.Quantity, r.Quantity),
			})
		}
	}
	for symbol := range remoteBySymbol {
		e.report(bus.Discrepancy{
			Class:  ClassMissingInternal,
			Symbol: symbol,
			Detail: "broker position not tracked internally",
		})
	}
}

func (e *Engine) report(d bus.Discrepancy) {
	d.Timestamp = time.Now()
	logs.Warnf("reconcile discrepancy %s: %s %s", d.Class, d.Symbol, d.Detail)
	if e.events != nil {
		e.events.Publish(d)
	}
	if e.handler != nil {
		e.handler(d)
	}
}

func (e *Engine) backoff(consecutive int) time.Duration {
	d := time.Duration(consecutive) * e.step
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
