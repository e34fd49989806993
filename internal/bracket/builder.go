package bracket

import (
	"math"

	"github.com/yanun0323/errors"

	"github.com/robinmaple/trading-automation-sub002/internal/model"
	"github.com/robinmaple/trading-automation-sub002/internal/model/enum"
	"github.com/robinmaple/trading-automation-sub002/pkg/exception"
)

// MinStopSeparation is the minimum |entry-stop| distance as a fraction
// of the entry price; anything tighter makes the profit target
// degenerate.
const MinStopSeparation = 0.005

const currencyLot = 10_000

// Ticket is one broker order of a bracket group, before ids are
// assigned at submission.
type Ticket struct {
	Action     enum.Action
	OrderType  enum.OrderType
	LimitPrice float64
	StopPrice  float64
	Quantity   float64

	// Transmit marks the order that releases the whole group at the
	// broker. Only the last-submitted exit carries it.
	Transmit bool
}

// Bracket is a fully computed entry with its two protective exits.
type Bracket struct {
	Parent     Ticket
	TakeProfit Ticket
	StopLoss   Ticket

	Quantity          float64
	TakeProfitPrice   float64
	CapitalCommitment float64
}

// ValidateParams performs the static re-validation of bracket source
// parameters, independent of live prices.
func ValidateParams(order model.PlannedOrder) error {
	if order.RiskRewardRatio <= 0 {
		return errors.Wrapf(exception.ErrBracketParams, "risk reward ratio %.2f must be > 0", order.RiskRewardRatio)
	}
	if !order.HasEntry() || !order.HasStop() {
		return errors.Wrap(exception.ErrBracketParams, "entry and stop loss are both required")
	}
	span := math.Abs(order.EntryPrice - order.StopLoss)
	if span == 0 {
		return errors.Wrap(exception.ErrBracketParams, "entry and stop loss are identical")
	}
	if span < order.EntryPrice*MinStopSeparation {
		return errors.Wrapf(exception.ErrBracketParams, "stop distance %.4f under %.2f%% of entry %.4f",
			span, MinStopSeparation*100, order.EntryPrice)
	}
	return nil
}

// Quantity computes the position size from risk parameters.
func Quantity(order model.PlannedOrder, totalCapital float64) (float64, error) {
	if totalCapital <= 0 {
		return 0, errors.Wrap(exception.ErrBracketParams, "total capital must be > 0")
	}
	riskPerUnit := math.Abs(order.EntryPrice-order.StopLoss) * order.SecurityType.UnitMultiplier()
	if riskPerUnit == 0 {
		return 0, errors.Wrap(exception.ErrBracketParams, "risk per unit is zero")
	}

	riskAmount := totalCapital * order.RiskPerTrade
	raw := riskAmount / riskPerUnit
	return roundQuantity(raw, order.SecurityType), nil
}

// roundQuantity applies the instrument-class rounding policy: currency
// pairs trade in 10,000-unit lots with a one-lot floor, everything else
// in whole units with a one-unit floor.
func roundQuantity(raw float64, securityType enum.SecurityType) float64 {
	if securityType == enum.SecurityTypeCash {
		lots := math.Round(raw / currencyLot)
		if lots < 1 {
			lots = 1
		}
		return lots * currencyLot
	}
	units := math.Round(raw)
	if units < 1 {
		units = 1
	}
	return units
}

// TakeProfitPrice derives the profit target from the stop geometry.
func TakeProfitPrice(order model.PlannedOrder) float64 {
	span := math.Abs(order.EntryPrice - order.StopLoss)
	if order.Action == enum.ActionBuy {
		return order.EntryPrice + span*order.RiskRewardRatio
	}
	return order.EntryPrice - span*order.RiskRewardRatio
}

// EstimateCapital returns the commitment a bracket would make without
// building the full ticket set. It backs the prioritization engine's
// capital estimator.
func EstimateCapital(order model.PlannedOrder, totalCapital float64) (float64, error) {
	if err := ValidateParams(order); err != nil {
		return 0, err
	}
	qty, err := Quantity(order, totalCapital)
	if err != nil {
		return 0, err
	}
	return qty * order.EntryPrice * order.SecurityType.UnitMultiplier(), nil
}

// Build computes the three linked tickets of a bracket order.
// The entry and first exit stay held; the last exit transmits the group
// so the broker treats all three as one atomic bracket.
func Build(order model.PlannedOrder, totalCapital float64) (Bracket, error) {
	if err := ValidateParams(order); err != nil {
		return Bracket{}, err
	}
	qty, err := Quantity(order, totalCapital)
	if err != nil {
		return Bracket{}, err
	}

	target := TakeProfitPrice(order)
	exit := order.Action.Reverse()

	return Bracket{
		Parent: Ticket{
			Action:     order.Action,
			OrderType:  order.OrderType,
			LimitPrice: order.EntryPrice,
			Quantity:   qty,
			Transmit:   false,
		},
		TakeProfit: Ticket{
			Action:     exit,
			OrderType:  enum.OrderTypeLimit,
			LimitPrice: target,
			Quantity:   qty,
			Transmit:   false,
		},
		StopLoss: Ticket{
			Action:    exit,
			OrderType: enum.OrderTypeStop,
			StopPrice: order.StopLoss,
			Quantity:  qty,
			Transmit:  true,
		},
		Quantity:          qty,
		TakeProfitPrice:   target,
		CapitalCommitment: qty * order.EntryPrice * order.SecurityType.UnitMultiplier(),
	}, nil
}
