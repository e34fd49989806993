package eligibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robinmaple/trading-automation-sub002/internal/model"
	"github.com/robinmaple/trading-automation-sub002/internal/model/enum"
)

type fixedPrices map[string]float64

func (p fixedPrices) CurrentPrice(symbol string) (model.PriceSnapshot, bool) {
	price, ok := p[symbol]
	if !ok {
		return model.PriceSnapshot{}, false
	}
	return model.PriceSnapshot{Symbol: symbol, Price: price}, true
}

type fixedCounter int

func (c fixedCounter) WorkingCount() int { return int(c) }

func plannedAt(symbol string, entry float64) model.PlannedOrder {
	return model.PlannedOrder{
		Symbol:       symbol,
		SecurityType: enum.SecurityTypeStock,
		Action:       enum.ActionBuy,
		EntryPrice:   entry,
		StopLoss:     entry * 0.95,
		RiskPerTrade: 0.01,
	}
}

func TestFindExecutableOrdersFiltersByProbability(t *testing.T) {
	prices := fixedPrices{"NEAR": 100.0, "FAR": 100.0}
	svc := NewService(NewFillProbability(0.7), prices, fixedCounter(0), 5)

	plan := []model.PlannedOrder{
		plannedAt("NEAR", 100.05), // at the market, high probability
		plannedAt("FAR", 120),     // 20% away, effectively zero
		plannedAt("NOPRICE", 100), // no snapshot yet
	}

	candidates := svc.FindExecutableOrders(plan)
	require.Len(t, candidates, 1)
	assert.Equal(t, "NEAR", candidates[0].Order.Symbol)
	assert.GreaterOrEqual(t, candidates[0].FillProbability, 0.7)
}

func TestFindExecutableOrdersRespectsCapacity(t *testing.T) {
	prices := fixedPrices{"NEAR": 100.0}
	svc := NewService(NewFillProbability(0.7), prices, fixedCounter(5), 5)

	candidates := svc.FindExecutableOrders([]model.PlannedOrder{plannedAt("NEAR", 100.05)})
	assert.Empty(t, candidates)
}

func TestFindExecutableForSymbolsScopesThePass(t *testing.T) {
	prices := fixedPrices{"AAPL": 100.0, "MSFT": 300.0}
	svc := NewService(NewFillProbability(0.7), prices, fixedCounter(0), 5)

	plan := []model.PlannedOrder{
		plannedAt("AAPL", 100.05),
		plannedAt("MSFT", 300.10),
	}

	candidates := svc.FindExecutableForSymbols(plan, map[string]struct{}{"MSFT": {}})
	require.Len(t, candidates, 1)
	assert.Equal(t, "MSFT", candidates[0].Order.Symbol)

	assert.Empty(t, svc.FindExecutableForSymbols(plan, nil))
}

func TestEstimateRewardsProximityAndCalm(t *testing.T) {
	near := Estimate(100, 100.1, nil)
	far := Estimate(100, 105, nil)
	assert.Greater(t, near, far)

	calm := []model.PricePoint{{Price: 100}, {Price: 100.01}, {Price: 99.99}}
	choppy := []model.PricePoint{{Price: 95}, {Price: 105}, {Price: 92}}
	assert.Greater(t, Estimate(100, 100.1, calm), Estimate(100, 100.1, choppy))

	assert.Zero(t, Estimate(0, 100, nil))
	assert.Zero(t, Estimate(100, 0, nil))
}
