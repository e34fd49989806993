package ibkr

import (
	"context"

	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
	"github.com/yanun0323/pkg/ws"

	"github.com/robinmaple/trading-automation-sub002/internal/broker"
	"github.com/robinmaple/trading-automation-sub002/internal/model/enum"
)

type eventEnvelope struct {
	Type string `json:"type"`
}

// Observe fans the bridge's push frames out to the callback handler
// until the context ends or the process shuts down.
func (b *Bridge) Observe(ctx context.Context, handler broker.CallbackHandler) (unsubscribe func()) {
	ch, cancel := b.wss.Subscribe()

	go func() {
		defer cancel()
		for {
			select {
			case <-sys.Shutdown():
				return
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				dispatch(m, handler)
			}
		}
	}()

	return cancel
}

func dispatch(m ws.Message, handler broker.CallbackHandler) {
	var env eventEnvelope
	if err := m.Unmarshal(&env); err != nil {
		return
	}

	switch env.Type {
	case "tickPrice":
		var e tickEvent
		if err := m.Unmarshal(&e); err != nil {
			logs.Warnf("ibkr: malformed tick frame, err: %+v", err)
			return
		}
		handler.OnTickPrice(e.ReqID, tickKindOf(e.Field), e.Price.InexactFloat64())
	case "orderStatus":
		var e orderStatusEvent
		if err := m.Unmarshal(&e); err != nil {
			logs.Warnf("ibkr: malformed order status frame, err: %+v", err)
			return
		}
		handler.OnOrderStatus(e.OrderID, e.Status, e.Filled.InexactFloat64(), e.Remaining.InexactFloat64(), e.AvgPrice.InexactFloat64())
	case "error":
		var e errorEvent
		if err := m.Unmarshal(&e); err != nil {
			return
		}
		handler.OnError(e.ReqID, e.Code, e.Message)
	case "nextValidId":
		var e nextValidIDEvent
		if err := m.Unmarshal(&e); err != nil {
			return
		}
		handler.OnNextValidID(e.OrderID)
	}
}

func tickKindOf(field string) enum.TickKind {
	switch field {
	case "bid":
		return enum.TickKindBid
	case "ask":
		return enum.TickKindAsk
	case "last":
		return enum.TickKindLast
	default:
		return enum.TickKindOther
	}
}
