package bracket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robinmaple/trading-automation-sub002/internal/model"
	"github.com/robinmaple/trading-automation-sub002/internal/model/enum"
	"github.com/robinmaple/trading-automation-sub002/pkg/exception"
)

func plannedBuy(entry, stop, rr float64) model.PlannedOrder {
	return model.PlannedOrder{
		Symbol:          "AAPL",
		SecurityType:    enum.SecurityTypeStock,
		Action:          enum.ActionBuy,
		OrderType:       enum.OrderTypeLimit,
		EntryPrice:      entry,
		StopLoss:        stop,
		RiskPerTrade:    0.01,
		RiskRewardRatio: rr,
	}
}

func TestValidateParamsRejectsBadGeometry(t *testing.T) {
	bad := plannedBuy(100, 95, 0)
	assert.ErrorIs(t, ValidateParams(bad), exception.ErrBracketParams)

	identical := plannedBuy(100, 100, 2)
	assert.ErrorIs(t, ValidateParams(identical), exception.ErrBracketParams)

	tight := plannedBuy(100, 99.8, 2)
	assert.ErrorIs(t, ValidateParams(tight), exception.ErrBracketParams)

	assert.NoError(t, ValidateParams(plannedBuy(100, 95, 2)))
}

func TestTakeProfitDirection(t *testing.T) {
	buy := plannedBuy(100, 95, 2)
	assert.InDelta(t, 110, TakeProfitPrice(buy), 1e-9)

	sell := plannedBuy(100, 105, 2)
	sell.Action = enum.ActionSell
	assert.InDelta(t, 90, TakeProfitPrice(sell), 1e-9)
}

func TestQuantityRoundsCurrencyToLots(t *testing.T) {
	order := plannedBuy(1.10, 1.05, 2)
	order.Symbol = "EUR.USD"
	order.SecurityType = enum.SecurityTypeCash
	order.RiskPerTrade = 0.00715

	// 715 risk budget over a 0.05 stop span is 14,300 raw units,
	// which lands on one 10,000-unit lot.
	qty, err := Quantity(order, 100_000)
	require.NoError(t, err)
	assert.InDelta(t, 10_000, qty, 1e-9)
}

func TestQuantityFloorsStockToOneShare(t *testing.T) {
	order := plannedBuy(100, 95, 2)
	order.RiskPerTrade = 0.002

	// 2 risk budget over a 5 stop span is 0.4 raw shares.
	qty, err := Quantity(order, 1_000)
	require.NoError(t, err)
	assert.InDelta(t, 1, qty, 1e-9)
}

func TestBuildLinksBracketTickets(t *testing.T) {
	order := plannedBuy(100, 95, 2)

	built, err := Build(order, 100_000)
	require.NoError(t, err)

	assert.Equal(t, enum.ActionBuy, built.Parent.Action)
	assert.InDelta(t, 100, built.Parent.LimitPrice, 1e-9)
	assert.False(t, built.Parent.Transmit)

	assert.Equal(t, enum.ActionSell, built.TakeProfit.Action)
	assert.Equal(t, enum.OrderTypeLimit, built.TakeProfit.OrderType)
	assert.InDelta(t, 110, built.TakeProfit.LimitPrice, 1e-9)
	assert.False(t, built.TakeProfit.Transmit)

	assert.Equal(t, enum.ActionSell, built.StopLoss.Action)
	assert.Equal(t, enum.OrderTypeStop, built.StopLoss.OrderType)
	assert.InDelta(t, 95, built.StopLoss.StopPrice, 1e-9)
	assert.True(t, built.StopLoss.Transmit)

	// 1,000 risk budget over a 5 span is 200 shares at 100 each.
	assert.InDelta(t, 200, built.Quantity, 1e-9)
	assert.InDelta(t, 20_000, built.CapitalCommitment, 1e-9)
}

func TestEstimateCapitalMatchesBuild(t *testing.T) {
	order := plannedBuy(100, 95, 2)

	estimated, err := EstimateCapital(order, 100_000)
	require.NoError(t, err)

	built, err := Build(order, 100_000)
	require.NoError(t, err)
	assert.InDelta(t, built.CapitalCommitment, estimated, 1e-9)
}
