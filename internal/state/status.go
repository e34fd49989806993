package state

import (
	"strings"

	"github.com/robinmaple/trading-automation-sub002/internal/model/enum"
)

// ParseBrokerStatus maps a broker-reported status string onto the
// internal lifecycle. Brokers evolve their vocabulary, so any unknown
// non-terminal string is treated as still working rather than crashing.
func ParseBrokerStatus(raw string) enum.OrderStatus {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "PENDING", "PENDINGSUBMIT", "PRESUBMITTED", "APIPENDING":
		return enum.OrderStatusPending
	case "LIVE", "SUBMITTED":
		return enum.OrderStatusLive
	case "LIVE_WORKING", "WORKING":
		return enum.OrderStatusLiveWorking
	case "FILLED":
		return enum.OrderStatusFilled
	case "CANCELLED", "CANCELED", "APICANCELLED", "PENDINGCANCEL":
		return enum.OrderStatusCancelled
	case "EXPIRED", "INACTIVE":
		return enum.OrderStatusExpired
	case "LIQUIDATED":
		return enum.OrderStatusLiquidated
	case "LIQUIDATED_EXTERNALLY":
		return enum.OrderStatusLiquidatedExternally
	case "REPLACED":
		return enum.OrderStatusReplaced
	default:
		return enum.OrderStatusLiveWorking
	}
}

// allowedTransition reports whether moving from one status to another
// respects the lifecycle. Broker callbacks may jump forward over
// intermediate states; they never resurrect a terminal order.
func allowedTransition(from, to enum.OrderStatus) bool {
	if from == to {
		return false
	}
	if from.IsTerminal() {
		return false
	}
	if to == enum.OrderStatusReplaced {
		return true
	}

	switch from {
	case enum.OrderStatusFilled:
		return to == enum.OrderStatusLiquidated || to == enum.OrderStatusLiquidatedExternally
	case enum.OrderStatusPending:
		return to != enum.OrderStatusLiquidated && to != enum.OrderStatusLiquidatedExternally
	case enum.OrderStatusLive:
		return to != enum.OrderStatusPending && to != enum.OrderStatusLiquidated && to != enum.OrderStatusLiquidatedExternally
	case enum.OrderStatusLiveWorking:
		switch to {
		case enum.OrderStatusFilled, enum.OrderStatusCancelled, enum.OrderStatusExpired:
			return true
		default:
			return false
		}
	default:
		return false
	}
}
