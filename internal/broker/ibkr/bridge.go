package ibkr

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/pkg/ws"

	"github.com/robinmaple/trading-automation-sub002/internal/bracket"
	"github.com/robinmaple/trading-automation-sub002/internal/broker"
	"github.com/robinmaple/trading-automation-sub002/internal/feed"
	"github.com/robinmaple/trading-automation-sub002/internal/model"
	"github.com/robinmaple/trading-automation-sub002/internal/model/enum"
	"github.com/robinmaple/trading-automation-sub002/pkg/exception"
)

// queryTimeout bounds request-response calls so a stalled bridge
// degrades to a fallback instead of hanging a loop.
const queryTimeout = 10 * time.Second

// Bridge talks to the local TWS websocket bridge. It implements both
// the outbound gateway surface and the tracker's market-data transport.
type Bridge struct {
	wss       *ws.WebSocket
	nextReqID int64
	connected atomic.Bool
}

// New binds a bridge client to its endpoint without dialing yet.
func New(ctx context.Context, url string) *Bridge {
	return &Bridge{wss: ws.New(ctx, url)}
}

// Connect starts the websocket session. The context must outlive the
// session, not just the dial.
func (b *Bridge) Connect(ctx context.Context) error {
	if err := b.wss.Start(ctx); err != nil {
		return errors.Wrap(exception.ErrBrokerNotConnected, err.Error())
	}
	b.connected.Store(true)
	return nil
}

// IsConnected reports whether the session has been started.
func (b *Bridge) IsConnected() bool {
	return b.connected.Load()
}

// Close tears down the websocket session.
func (b *Bridge) Close() {
	b.connected.Store(false)
	b.wss.Close()
}

func (b *Bridge) nextID() int64 {
	return atomic.AddInt64(&b.nextReqID, 1)
}

// PlaceBracketOrder submits the three linked tickets in one frame and
// waits for the assigned broker order ids, parent first.
func (b *Bridge) PlaceBracketOrder(contract feed.ContractSpec, group bracket.Bracket) ([]int64, error) {
	id := b.nextID()
	payload := placeBracketRequest{
		request:  request{Type: "placeBracket", ID: id},
		Contract: contractOf(contract),
		Parent:   ticketOf(group.Parent),
		Target:   ticketOf(group.TakeProfit),
		Stop:     ticketOf(group.StopLoss),
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var orderIDs []int64
	err := b.wss.SendAndWait(ctx, ws.Sidecar{
		Sender: func(ctx context.Context, wss *ws.WebSocket) error {
			if err := wss.WriteJSON(payload); err != nil {
				return errors.Wrap(err, "write place bracket").With("payload", payload)
			}
			return nil
		},
		Waiter: func(ctx context.Context, m ws.Message) (bool, error) {
			resp, ok := ws.ReadMessage[placeBracketResponse](m)
			if !ok || resp.ID != id {
				return false, nil
			}
			if resp.Error != "" {
				return false, errors.Wrap(exception.ErrBrokerSubmission, resp.Error)
			}
			if len(resp.OrderIDs) != model.BracketOrderIDCount {
				return false, errors.Wrapf(exception.ErrBrokerSubmission, "bridge returned %d order ids", len(resp.OrderIDs))
			}
			orderIDs = resp.OrderIDs
			return true, nil
		},
	}, false)
	if err != nil {
		return nil, errors.Wrap(err, "place bracket")
	}
	return orderIDs, nil
}

// CancelOrder cancels one broker order and waits for the ack.
func (b *Bridge) CancelOrder(orderID int64) error {
	id := b.nextID()
	payload := cancelOrderRequest{
		request: request{Type: "cancelOrder", ID: id},
		OrderID: orderID,
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	err := b.wss.SendAndWait(ctx, ws.Sidecar{
		Sender: func(ctx context.Context, wss *ws.WebSocket) error {
			if err := wss.WriteJSON(payload); err != nil {
				return errors.Wrap(err, "write cancel order").With("orderId", orderID)
			}
			return nil
		},
		Waiter: func(ctx context.Context, m ws.Message) (bool, error) {
			resp, ok := ws.ReadMessage[ackResponse](m)
			if !ok || resp.ID != id {
				return false, nil
			}
			if !resp.OK {
				return false, errors.Wrap(exception.ErrCancellationFailed, resp.Error)
			}
			return true, nil
		},
	}, false)
	if err != nil {
		return errors.Wrapf(err, "cancel order %d", orderID)
	}
	return nil
}

// RequestMarketData opens a streaming subscription at the given
// granularity. Tick events later arrive tagged with reqID.
func (b *Bridge) RequestMarketData(reqID int64, contract feed.ContractSpec, granularity enum.DataGranularity) error {
	return b.requestData(reqID, contract, granularity, false)
}

// RequestSnapshot asks for a one-shot quote instead of a stream.
func (b *Bridge) RequestSnapshot(reqID int64, contract feed.ContractSpec) error {
	return b.requestData(reqID, contract, enum.DataGranularityDelayedFrozen, true)
}

func (b *Bridge) requestData(reqID int64, contract feed.ContractSpec, granularity enum.DataGranularity, snapshot bool) error {
	id := b.nextID()
	payload := marketDataRequest{
		request:     request{Type: "reqMarketData", ID: id},
		ReqID:       reqID,
		Contract:    contractOf(contract),
		Granularity: granularity.String(),
		Snapshot:    snapshot,
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	err := b.wss.SendAndWait(ctx, ws.Sidecar{
		Sender: func(ctx context.Context, wss *ws.WebSocket) error {
			if err := wss.WriteJSON(payload); err != nil {
				return errors.Wrap(err, "write market data request").With("symbol", contract.Symbol)
			}
			return nil
		},
		Waiter: func(ctx context.Context, m ws.Message) (bool, error) {
			resp, ok := ws.ReadMessage[ackResponse](m)
			if !ok || resp.ID != id {
				return false, nil
			}
			if !resp.OK {
				return false, errors.Wrap(exception.ErrFeedSubscribeDenied, resp.Error)
			}
			return true, nil
		},
	}, !snapshot)
	if err != nil {
		return errors.Wrapf(err, "request market data %s", contract.Symbol)
	}
	return nil
}

// OpenOrders fetches the broker's current open-order view.
func (b *Bridge) OpenOrders(ctx context.Context) ([]broker.OpenOrder, error) {
	id := b.nextID()
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var out []broker.OpenOrder
	err := b.wss.SendAndWait(ctx, ws.Sidecar{
		Sender: func(ctx context.Context, wss *ws.WebSocket) error {
			return wss.WriteJSON(request{Type: "reqOpenOrders", ID: id})
		},
		Waiter: func(ctx context.Context, m ws.Message) (bool, error) {
			resp, ok := ws.ReadMessage[openOrdersResponse](m)
			if !ok || resp.ID != id {
				return false, nil
			}
			if resp.Error != "" {
				return false, errors.New(resp.Error)
			}
			out = make([]broker.OpenOrder, 0, len(resp.Orders))
			for _, o := range resp.Orders {
				out = append(out, broker.OpenOrder{
					OrderID:   o.OrderID,
					Symbol:    o.Symbol,
					RawStatus: o.Status,
					Filled:    o.Filled.InexactFloat64(),
					Remaining: o.Remaining.InexactFloat64(),
				})
			}
			return true, nil
		},
	}, false)
	if err != nil {
		return nil, errors.Wrap(err, "open orders")
	}
	return out, nil
}

// Positions fetches the broker's current positions.
func (b *Bridge) Positions(ctx context.Context) ([]model.Position, error) {
	id := b.nextID()
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var out []model.Position
	err := b.wss.SendAndWait(ctx, ws.Sidecar{
		Sender: func(ctx context.Context, wss *ws.WebSocket) error {
			return wss.WriteJSON(request{Type: "reqPositions", ID: id})
		},
		Waiter: func(ctx context.Context, m ws.Message) (bool, error) {
			resp, ok := ws.ReadMessage[positionsResponse](m)
			if !ok || resp.ID != id {
				return false, nil
			}
			if resp.Error != "" {
				return false, errors.New(resp.Error)
			}
			out = make([]model.Position, 0, len(resp.Positions))
			for _, p := range resp.Positions {
				out = append(out, model.Position{
					Symbol:   p.Symbol,
					Quantity: p.Quantity.InexactFloat64(),
					AvgCost:  p.AvgCost.InexactFloat64(),
				})
			}
			return true, nil
		},
	}, false)
	if err != nil {
		return nil, errors.Wrap(err, "positions")
	}
	return out, nil
}

// AccountValue fetches net liquidation within a bounded wait. Callers
// fall back to their configured capital on error.
func (b *Bridge) AccountValue(ctx context.Context) (float64, error) {
	id := b.nextID()
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var value decimal.Decimal
	err := b.wss.SendAndWait(ctx, ws.Sidecar{
		Sender: func(ctx context.Context, wss *ws.WebSocket) error {
			return wss.WriteJSON(request{Type: "reqAccountValue", ID: id})
		},
		Waiter: func(ctx context.Context, m ws.Message) (bool, error) {
			resp, ok := ws.ReadMessage[accountValueResponse](m)
			if !ok || resp.ID != id {
				return false, nil
			}
			if resp.Error != "" {
				return false, errors.New(resp.Error)
			}
			value = resp.Value
			return true, nil
		},
	}, false)
	if err != nil {
		return 0, errors.Wrap(err, "account value")
	}
	return value.InexactFloat64(), nil
}

func contractOf(c feed.ContractSpec) contractPayload {
	return contractPayload{
		Symbol:       c.Symbol,
		SecurityType: c.SecurityType.String(),
		Exchange:     c.Exchange,
		Currency:     c.Currency,
	}
}

func ticketOf(t bracket.Ticket) ticketPayload {
	return ticketPayload{
		Action:     t.Action.String(),
		OrderType:  t.OrderType.String(),
		LimitPrice: decimal.NewFromFloat(t.LimitPrice),
		StopPrice:  decimal.NewFromFloat(t.StopPrice),
		Quantity:   decimal.NewFromFloat(t.Quantity),
		Transmit:   t.Transmit,
	}
}
