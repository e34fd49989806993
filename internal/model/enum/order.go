package enum

import "strings"

// Action buy, sell, short sell
type Action uint8

const (
	_action_beg Action = iota
	ActionBuy
	ActionSell
	ActionShortSell
	_action_end
)

func (a Action) IsAvailable() bool {
	return a > _action_beg && a < _action_end
}

func (a Action) String() string {
	switch a {
	case ActionBuy:
		return "BUY"
	case ActionSell:
		return "SELL"
	case ActionShortSell:
		return "SSHORT"
	default:
		return "UNKNOWN"
	}
}

// IsExit reports whether the action closes exposure instead of opening it.
func (a Action) IsExit() bool {
	return a == ActionSell
}

// Reverse returns the action that closes a position opened by this action.
func (a Action) Reverse() Action {
	switch a {
	case ActionBuy:
		return ActionSell
	case ActionSell, ActionShortSell:
		return ActionBuy
	default:
		return a
	}
}

func ParseAction(s string) (Action, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return ActionBuy, true
	case "SELL":
		return ActionSell, true
	case "SSHORT", "SHORT":
		return ActionShortSell, true
	default:
		return _action_beg, false
	}
}

// OrderType limit, market, stop, stop limit, trailing
type OrderType uint8

const (
	_order_type_beg OrderType = iota
	OrderTypeLimit
	OrderTypeMarket
	OrderTypeStop
	OrderTypeStopLimit
	OrderTypeTrailing
	_order_type_end
)

func (t OrderType) IsAvailable() bool {
	return t > _order_type_beg && t < _order_type_end
}

func (t OrderType) String() string {
	switch t {
	case OrderTypeLimit:
		return "LMT"
	case OrderTypeMarket:
		return "MKT"
	case OrderTypeStop:
		return "STP"
	case OrderTypeStopLimit:
		return "STP LMT"
	case OrderTypeTrailing:
		return "TRAIL"
	default:
		return "UNKNOWN"
	}
}

func ParseOrderType(s string) (OrderType, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LMT", "LIMIT":
		return OrderTypeLimit, true
	case "MKT", "MARKET":
		return OrderTypeMarket, true
	case "STP", "STOP":
		return OrderTypeStop, true
	case "STP LMT", "STP_LMT":
		return OrderTypeStopLimit, true
	case "TRAIL":
		return OrderTypeTrailing, true
	default:
		return _order_type_beg, false
	}
}

// OrderStatus lifecycle of a tracked order
type OrderStatus uint8

const (
	_order_status_beg OrderStatus = iota
	OrderStatusPending
	OrderStatusLive
	OrderStatusLiveWorking
	OrderStatusFilled
	OrderStatusCancelled
	OrderStatusExpired
	OrderStatusLiquidated
	OrderStatusLiquidatedExternally
	OrderStatusReplaced
	_order_status_end
)

func (s OrderStatus) IsAvailable() bool {
	return s > _order_status_beg && s < _order_status_end
}

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusPending:
		return "PENDING"
	case OrderStatusLive:
		return "LIVE"
	case OrderStatusLiveWorking:
		return "LIVE_WORKING"
	case OrderStatusFilled:
		return "FILLED"
	case OrderStatusCancelled:
		return "CANCELLED"
	case OrderStatusExpired:
		return "EXPIRED"
	case OrderStatusLiquidated:
		return "LIQUIDATED"
	case OrderStatusLiquidatedExternally:
		return "LIQUIDATED_EXTERNALLY"
	case OrderStatusReplaced:
		return "REPLACED"
	default:
		return "UNKNOWN"
	}
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PENDING":
		return OrderStatusPending, true
	case "LIVE":
		return OrderStatusLive, true
	case "LIVE_WORKING":
		return OrderStatusLiveWorking, true
	case "FILLED":
		return OrderStatusFilled, true
	case "CANCELLED":
		return OrderStatusCancelled, true
	case "EXPIRED":
		return OrderStatusExpired, true
	case "LIQUIDATED":
		return OrderStatusLiquidated, true
	case "LIQUIDATED_EXTERNALLY":
		return OrderStatusLiquidatedExternally, true
	case "REPLACED":
		return OrderStatusReplaced, true
	default:
		return _order_status_beg, false
	}
}

// IsTerminal reports whether no further transitions are possible.
// FILLED still transitions to LIQUIDATED, so it is not terminal here.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusCancelled, OrderStatusExpired, OrderStatusLiquidated,
		OrderStatusLiquidatedExternally, OrderStatusReplaced:
		return true
	default:
		return false
	}
}

// IsWorking reports whether the order still occupies capital or broker slots.
func (s OrderStatus) IsWorking() bool {
	switch s {
	case OrderStatusPending, OrderStatusLive, OrderStatusLiveWorking:
		return true
	default:
		return false
	}
}
