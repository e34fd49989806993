package broker

import (
	"context"

	"github.com/robinmaple/trading-automation-sub002/internal/bracket"
	"github.com/robinmaple/trading-automation-sub002/internal/feed"
	"github.com/robinmaple/trading-automation-sub002/internal/model"
	"github.com/robinmaple/trading-automation-sub002/internal/model/enum"
)

// OpenOrder is the broker's view of one working order.
type OpenOrder struct {
	OrderID   int64
	Symbol    string
	RawStatus string
	Filled    float64
	Remaining float64
}

// Gateway is the outbound broker request API. Calls may block for the
// duration of a network round trip; bounded waits apply where noted.
type Gateway interface {
	Connect(ctx context.Context) error
	IsConnected() bool

	// PlaceBracketOrder submits the three linked tickets and returns
	// their broker order ids, parent first.
	PlaceBracketOrder(contract feed.ContractSpec, b bracket.Bracket) ([]int64, error)
	CancelOrder(orderID int64) error

	OpenOrders(ctx context.Context) ([]OpenOrder, error)
	Positions(ctx context.Context) ([]model.Position, error)

	// AccountValue returns total account capital, falling back to a
	// configured default after a bounded wait.
	AccountValue(ctx context.Context) (float64, error)
}

// CallbackHandler receives the broker's asynchronous events. One
// adapter type implements it, decoupling the outbound request API from
// the inbound event API.
type CallbackHandler interface {
	OnNextValidID(orderID int64)
	OnTickPrice(reqID int64, kind enum.TickKind, price float64)
	OnOrderStatus(orderID int64, rawStatus string, filled, remaining, avgFillPrice float64)
	OnError(reqID int64, code int, message string)
}
