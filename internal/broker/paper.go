package broker

import (
	"context"
	"sync"
	"time"

	"github.com/robinmaple/trading-automation-sub002/internal/bracket"
	"github.com/robinmaple/trading-automation-sub002/internal/feed"
	"github.com/robinmaple/trading-automation-sub002/internal/model"
	"github.com/robinmaple/trading-automation-sub002/internal/model/enum"
	"github.com/robinmaple/trading-automation-sub002/pkg/exception"
)

// PaperGateway simulates a broker in memory for dry runs, replay and
// tests. Brackets are acknowledged immediately; fills are driven
// explicitly through Fill.
type PaperGateway struct {
	mu        sync.Mutex
	connected bool
	nextID    int64
	capital   float64

	orders    map[int64]*paperOrder
	positions map[string]model.Position
	handler   CallbackHandler
}

type paperOrder struct {
	contract feed.ContractSpec
	ticket   bracket.Ticket
	status   string
	parentID int64
}

// NewPaperGateway creates a simulated broker with the given capital.
func NewPaperGateway(capital float64) *PaperGateway {
	return &PaperGateway{
		nextID:    1,
		capital:   capital,
		orders:    make(map[int64]*paperOrder),
		positions: make(map[string]model.Position),
	}
}

// BindHandler attaches the callback adapter that receives simulated
// order-status events.
func (g *PaperGateway) BindHandler(handler CallbackHandler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.handler = handler
}

func (g *PaperGateway) Connect(context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.connected = true
	return nil
}

func (g *PaperGateway) IsConnected() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connected
}

func (g *PaperGateway) PlaceBracketOrder(contract feed.ContractSpec, b bracket.Bracket) ([]int64, error) {
	g.mu.Lock()
	if !g.connected {
		g.mu.Unlock()
		return nil, exception.ErrBrokerNotConnected
	}

	parentID := g.nextID
	ids := make([]int64, 0, model.BracketOrderIDCount)
	for _, ticket := range []bracket.Ticket{b.Parent, b.TakeProfit, b.StopLoss} {
		id := g.nextID
		g.nextID++
		g.orders[id] = &paperOrder{
			contract: contract,
			ticket:   ticket,
			status:   "Submitted",
			parentID: parentID,
		}
		ids = append(ids, id)
	}
	handler := g.handler
	g.mu.Unlock()

	if handler != nil {
		for _, id := range ids {
			handler.OnOrderStatus(id, "Submitted", 0, 0, 0)
		}
	}
	return ids, nil
}

func (g *PaperGateway) CancelOrder(orderID int64) error {
	g.mu.Lock()
	order, ok := g.orders[orderID]
	if !ok {
		g.mu.Unlock()
		return exception.ErrOrderNotFound
	}
	order.status = "Cancelled"
	handler := g.handler
	g.mu.Unlock()

	if handler != nil {
		handler.OnOrderStatus(orderID, "Cancelled", 0, 0, 0)
	}
	return nil
}

func (g *PaperGateway) OpenOrders(context.Context) ([]OpenOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]OpenOrder, 0, len(g.orders))
	for id, order := range g.orders {
		if order.status != "Submitted" {
			continue
		}
		out = append(out, OpenOrder{
			OrderID:   id,
			Symbol:    order.contract.Symbol,
			RawStatus: order.status,
			Remaining: order.ticket.Quantity,
		})
	}
	return out, nil
}

func (g *PaperGateway) Positions(context.Context) ([]model.Position, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]model.Position, 0, len(g.positions))
	for _, p := range g.positions {
		out = append(out, p)
	}
	return out, nil
}

func (g *PaperGateway) AccountValue(context.Context) (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.capital, nil
}

// Fill simulates a complete fill of the parent order, opening the
// corresponding position and cancelling sibling exits is left to the
// bracket logic at the real broker; here only the status fires.
func (g *PaperGateway) Fill(orderID int64) {
	g.mu.Lock()
	order, ok := g.orders[orderID]
	if !ok {
		g.mu.Unlock()
		return
	}
	order.status = "Filled"
	qty := order.ticket.Quantity
	if order.ticket.Action != enum.ActionBuy {
		qty = -qty
	}
	pos := g.positions[order.contract.Symbol]
	pos.Symbol = order.contract.Symbol
	pos.Quantity += qty
	pos.AvgCost = order.ticket.LimitPrice
	if pos.OpenedAt.IsZero() {
		pos.OpenedAt = time.Now()
	}
	g.positions[order.contract.Symbol] = pos
	handler := g.handler
	price := order.ticket.LimitPrice
	filled := order.ticket.Quantity
	g.mu.Unlock()

	if handler != nil {
		handler.OnOrderStatus(orderID, "Filled", filled, 0, price)
	}
}
