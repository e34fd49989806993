package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/robinmaple/trading-automation-sub002/internal/model/enum"
	"github.com/robinmaple/trading-automation-sub002/pkg/exception"
)

func validOrder() PlannedOrder {
	return PlannedOrder{
		Symbol:          "AAPL",
		SecurityType:    enum.SecurityTypeStock,
		Action:          enum.ActionBuy,
		OrderType:       enum.OrderTypeLimit,
		EntryPrice:      100,
		StopLoss:        95,
		RiskPerTrade:    0.01,
		RiskRewardRatio: 2,
	}
}

func TestValidateRejectsBadOrders(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*PlannedOrder)
	}{
		{"empty symbol", func(o *PlannedOrder) { o.Symbol = "" }},
		{"unknown action", func(o *PlannedOrder) { o.Action = 0 }},
		{"risk too high", func(o *PlannedOrder) { o.RiskPerTrade = 0.05 }},
		{"risk zero", func(o *PlannedOrder) { o.RiskPerTrade = 0 }},
		{"buy stop above entry", func(o *PlannedOrder) { o.StopLoss = 105 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := validOrder()
			tc.mutate(&order)
			assert.ErrorIs(t, order.Validate(), exception.ErrOrderValidation)
		})
	}

	assert.NoError(t, validOrder().Validate())

	short := validOrder()
	short.Action = enum.ActionShortSell
	short.StopLoss = 105
	assert.NoError(t, short.Validate())
}

func TestIdentityDistinguishesPriceLevels(t *testing.T) {
	a := validOrder()
	b := validOrder()
	assert.Equal(t, a.Identity(), b.Identity())

	b.EntryPrice = 99
	assert.NotEqual(t, a.Identity(), b.Identity())
}

func TestExpiresAtPerStrategy(t *testing.T) {
	opened := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	sessionEnd := time.Date(2026, 3, 2, 21, 0, 0, 0, time.UTC)

	day := validOrder()
	day.Strategy = enum.PositionStrategyDay
	at, ok := day.ExpiresAt(opened, sessionEnd, 5)
	assert.True(t, ok)
	assert.Equal(t, sessionEnd, at)

	core := validOrder()
	core.Strategy = enum.PositionStrategyCore
	_, ok = core.ExpiresAt(opened, sessionEnd, 5)
	assert.False(t, ok)

	hybrid := validOrder()
	hybrid.Strategy = enum.PositionStrategyHybrid
	at, ok = hybrid.ExpiresAt(opened, sessionEnd, 5)
	assert.True(t, ok)
	assert.Equal(t, opened.AddDate(0, 0, 5), at)

	hybrid.CoreTimesDays = 2
	at, _ = hybrid.ExpiresAt(opened, sessionEnd, 5)
	assert.Equal(t, opened.AddDate(0, 0, 2), at)
}
