package ibkr

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/robinmaple/trading-automation-sub002/internal/bracket"
	"github.com/robinmaple/trading-automation-sub002/internal/feed"
	"github.com/robinmaple/trading-automation-sub002/internal/model/enum"
)

func TestTickKindMapping(t *testing.T) {
	assert.Equal(t, enum.TickKindBid, tickKindOf("bid"))
	assert.Equal(t, enum.TickKindAsk, tickKindOf("ask"))
	assert.Equal(t, enum.TickKindLast, tickKindOf("last"))
	assert.Equal(t, enum.TickKindOther, tickKindOf("halted"))
}

func TestContractPayloadConversion(t *testing.T) {
	payload := contractOf(feed.ContractSpec{
		Symbol:       "EUR.USD",
		SecurityType: enum.SecurityTypeCash,
		Exchange:     "IDEALPRO",
		Currency:     "USD",
	})

	assert.Equal(t, "EUR.USD", payload.Symbol)
	assert.Equal(t, "CASH", payload.SecurityType)
	assert.Equal(t, "IDEALPRO", payload.Exchange)
	assert.Equal(t, "USD", payload.Currency)
}

func TestTicketPayloadConversion(t *testing.T) {
	payload := ticketOf(bracket.Ticket{
		Action:     enum.ActionSell,
		OrderType:  enum.OrderTypeLimit,
		LimitPrice: 110.5,
		Quantity:   40,
		Transmit:   true,
	})

	assert.Equal(t, "SELL", payload.Action)
	assert.Equal(t, "LMT", payload.OrderType)
	assert.Equal(t, "110.5", payload.LimitPrice.String())
	assert.Equal(t, "40", payload.Quantity.String())
	assert.True(t, payload.Transmit)
}
