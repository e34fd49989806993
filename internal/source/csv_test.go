package source

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robinmaple/trading-automation-sub002/internal/model/enum"
)

func TestParsePlanRows(t *testing.T) {
	plan := strings.Join([]string{
		"symbol,sec_type,action,entry_price,stop_loss,risk_reward,strategy,priority,setup,timeframe",
		"aapl,STK,BUY,185.50,182.00,3,DAY,5,breakout,15min",
		"EUR.USD,CASH,SELL,1.0850,1.0900,,CORE,,,",
		",STK,BUY,10,9,,,,,",           // empty symbol
		"TSLA,STK,HOLD,250,245,,,,,",   // bad action
		"MSFT,STK,BUY,abc,400,,,,,",    // bad price
		"GOOG,STK,BUY,100,105,,,,,",    // stop above entry on a BUY
		"NVDA,STK,BUY,\"1,085.50\",\"1,050.00\",,,,,",
	}, "\n")

	csv := NewCSV("unused", StandardDefaults())
	orders, bad, err := csv.parse(strings.NewReader(plan))
	require.NoError(t, err)

	require.Len(t, orders, 3)
	assert.Len(t, bad, 4)

	aapl := orders[0]
	assert.Equal(t, "AAPL", aapl.Symbol)
	assert.Equal(t, enum.ActionBuy, aapl.Action)
	assert.Equal(t, 185.50, aapl.EntryPrice)
	assert.Equal(t, 182.00, aapl.StopLoss)
	assert.Equal(t, 3.0, aapl.RiskRewardRatio)
	assert.Equal(t, 5, aapl.Priority)
	assert.Equal(t, "breakout", aapl.TradingSetup)

	eur := orders[1]
	assert.Equal(t, enum.SecurityTypeCash, eur.SecurityType)
	assert.Equal(t, enum.PositionStrategyCore, eur.Strategy)
	// blank optional columns fall back to defaults
	assert.Equal(t, StandardDefaults().RiskRewardRatio, eur.RiskRewardRatio)
	assert.Equal(t, StandardDefaults().Priority, eur.Priority)

	nvda := orders[2]
	assert.Equal(t, 1085.50, nvda.EntryPrice)
	assert.Equal(t, 1050.00, nvda.StopLoss)
}

func TestParseRejectsMissingRequiredColumns(t *testing.T) {
	csv := NewCSV("unused", StandardDefaults())
	_, _, err := csv.parse(strings.NewReader("symbol,action\nAAPL,BUY"))
	assert.Error(t, err)
}

func TestRowErrorsCarryLineNumbers(t *testing.T) {
	plan := "symbol,action,entry_price,stop_loss\nAAPL,BUY,100,95\nBAD,???,1,2\n"
	csv := NewCSV("unused", StandardDefaults())
	orders, bad, err := csv.parse(strings.NewReader(plan))
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Len(t, bad, 1)
	assert.Equal(t, 3, bad[0].Line)
}
