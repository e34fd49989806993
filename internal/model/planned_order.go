package model

import (
	"fmt"
	"time"

	"github.com/yanun0323/errors"

	"github.com/robinmaple/trading-automation-sub002/internal/model/enum"
	"github.com/robinmaple/trading-automation-sub002/pkg/exception"
)

// MaxRiskPerTrade caps the fraction of capital a single order may risk.
const MaxRiskPerTrade = 0.02

// PlannedOrder is an immutable trade intent. It is created by an order
// source, validated once, and superseded rather than mutated.
type PlannedOrder struct {
	Symbol       string
	SecurityType enum.SecurityType
	Exchange     string
	Currency     string
	Action       enum.Action
	OrderType    enum.OrderType

	// EntryPrice and StopLoss are unset when <= 0.
	EntryPrice float64
	StopLoss   float64

	RiskPerTrade    float64
	RiskRewardRatio float64

	Strategy enum.PositionStrategy
	Priority int

	// TradingSetup tags the pattern this order trades, for bias scoring.
	TradingSetup  string
	Timeframe     string
	CoreTimesDays int
}

// Validate checks the static invariants of a planned order.
func (o PlannedOrder) Validate() error {
	if o.Symbol == "" {
		return errors.Wrap(exception.ErrOrderValidation, "symbol is empty")
	}
	if !o.Action.IsAvailable() {
		return errors.Wrap(exception.ErrOrderValidation, "action is unknown").With("symbol", o.Symbol)
	}
	if !o.SecurityType.IsAvailable() {
		return errors.Wrap(exception.ErrOrderValidation, "security type is unknown").With("symbol", o.Symbol)
	}
	if !o.OrderType.IsAvailable() {
		return errors.Wrap(exception.ErrOrderValidation, "order type is unknown").With("symbol", o.Symbol)
	}
	if o.RiskPerTrade <= 0 || o.RiskPerTrade > MaxRiskPerTrade {
		return errors.Wrapf(exception.ErrOrderValidation, "risk per trade %.4f outside (0, %.2f]", o.RiskPerTrade, MaxRiskPerTrade).
			With("symbol", o.Symbol)
	}
	if o.EntryPrice > 0 && o.StopLoss > 0 {
		if err := checkProtectiveStop(o.Action, o.EntryPrice, o.StopLoss); err != nil {
			return err
		}
	}
	return nil
}

func checkProtectiveStop(action enum.Action, entry, stop float64) error {
	switch action {
	case enum.ActionBuy:
		if stop >= entry {
			return errors.Wrapf(exception.ErrOrderValidation, "buy stop loss %.4f not below entry %.4f", stop, entry)
		}
	case enum.ActionSell, enum.ActionShortSell:
		if stop <= entry {
			return errors.Wrapf(exception.ErrOrderValidation, "sell stop loss %.4f not above entry %.4f", stop, entry)
		}
	}
	return nil
}

// HasEntry reports whether the order carries a concrete entry price.
func (o PlannedOrder) HasEntry() bool {
	return o.EntryPrice > 0
}

// HasStop reports whether the order carries a concrete stop loss.
func (o PlannedOrder) HasStop() bool {
	return o.StopLoss > 0
}

// IdentityKey is the duplicate-detection key of an execution attempt.
type IdentityKey string

// Identity derives the order's duplicate-detection key.
func (o PlannedOrder) Identity() IdentityKey {
	return IdentityKey(fmt.Sprintf("%s|%s|%.4f|%.4f", o.Symbol, o.Action, o.EntryPrice, o.StopLoss))
}

// ExpiresAt resolves the expiration of a position opened by this order.
// DAY closes at session end, CORE never expires, HYBRID after a fixed window.
func (o PlannedOrder) ExpiresAt(openedAt time.Time, sessionEnd time.Time, defaultCoreDays int) (time.Time, bool) {
	switch o.Strategy {
	case enum.PositionStrategyDay:
		return sessionEnd, true
	case enum.PositionStrategyHybrid:
		days := o.CoreTimesDays
		if days <= 0 {
			days = defaultCoreDays
		}
		return openedAt.AddDate(0, 0, days), true
	default:
		return time.Time{}, false
	}
}
