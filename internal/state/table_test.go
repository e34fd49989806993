package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robinmaple/trading-automation-sub002/internal/model"
	"github.com/robinmaple/trading-automation-sub002/internal/model/enum"
	"github.com/robinmaple/trading-automation-sub002/pkg/exception"
)

func trackedOrder(t *testing.T, table *Table, symbol string, parentID int64) *model.ActiveOrder {
	t.Helper()
	planned := model.PlannedOrder{
		Symbol:       symbol,
		SecurityType: enum.SecurityTypeStock,
		Action:       enum.ActionBuy,
		EntryPrice:   100,
		StopLoss:     95,
		RiskPerTrade: 0.01,
	}
	order := model.NewActiveOrder(planned, []int64{parentID, parentID + 1, parentID + 2}, 10_000, 0.8, time.Now())
	require.NoError(t, table.Insert(order))
	return order
}

func TestInsertRejectsDuplicates(t *testing.T) {
	table := NewTable()
	order := trackedOrder(t, table, "AAPL", 100)

	assert.ErrorIs(t, table.Insert(order), exception.ErrOrderDuplicate)
	assert.ErrorIs(t, table.Insert(nil), exception.ErrOrderValidation)
	assert.Equal(t, 1, table.WorkingCount())
}

func TestUpdateStatusResolvesChildIDs(t *testing.T) {
	table := NewTable()
	trackedOrder(t, table, "AAPL", 100)

	// Status for the stop-loss leg lands on the whole bracket.
	order, changed, err := table.UpdateStatus(102, enum.OrderStatusLive, time.Now())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, int64(100), order.ParentID())

	found, ok := table.Find(101)
	require.True(t, ok)
	assert.Equal(t, enum.OrderStatusLive, found.Status)
}

func TestUpdateStatusLifecycleGuards(t *testing.T) {
	table := NewTable()
	trackedOrder(t, table, "AAPL", 100)
	now := time.Now()

	_, _, err := table.UpdateStatus(999, enum.OrderStatusLive, now)
	assert.ErrorIs(t, err, exception.ErrOrderNotFound)

	// Repeating the current status is a no-op, not an error.
	_, changed, err := table.UpdateStatus(100, enum.OrderStatusPending, now)
	require.NoError(t, err)
	assert.False(t, changed)

	_, changed, err = table.UpdateStatus(100, enum.OrderStatusCancelled, now)
	require.NoError(t, err)
	assert.True(t, changed)

	// Terminal orders never resurrect.
	_, _, err = table.UpdateStatus(100, enum.OrderStatusLive, now)
	assert.ErrorIs(t, err, exception.ErrOrderTerminal)
	assert.Equal(t, 0, table.WorkingCount())
}

func TestFilledOrdersLeaveWorkingView(t *testing.T) {
	table := NewTable()
	order := trackedOrder(t, table, "AAPL", 100)

	_, changed, err := table.UpdateStatus(100, enum.OrderStatusFilled, time.Now())
	require.NoError(t, err)
	assert.True(t, changed)

	// A fill drops out of the working view; duplicate prevention moves
	// to the open-position check from here on.
	assert.Equal(t, 0, table.WorkingCount())
	_, ok := table.FindByIdentity(order.Planned.Identity())
	assert.False(t, ok)
}

func TestRemoveDropsAllIndexes(t *testing.T) {
	table := NewTable()
	trackedOrder(t, table, "AAPL", 100)

	table.Remove(100)
	_, ok := table.Find(101)
	assert.False(t, ok)
	assert.Equal(t, 0, table.WorkingCount())
}

func TestIterWorkingSkipsSettledOrders(t *testing.T) {
	table := NewTable()
	trackedOrder(t, table, "AAPL", 100)
	trackedOrder(t, table, "MSFT", 200)

	_, _, err := table.UpdateStatus(100, enum.OrderStatusCancelled, time.Now())
	require.NoError(t, err)

	var symbols []string
	table.IterWorking(func(order model.ActiveOrder) {
		symbols = append(symbols, order.Planned.Symbol)
	})
	assert.Equal(t, []string{"MSFT"}, symbols)
}

func TestParseBrokerStatus(t *testing.T) {
	assert.Equal(t, enum.OrderStatusPending, ParseBrokerStatus("PreSubmitted"))
	assert.Equal(t, enum.OrderStatusLive, ParseBrokerStatus("Submitted"))
	assert.Equal(t, enum.OrderStatusFilled, ParseBrokerStatus("Filled"))
	assert.Equal(t, enum.OrderStatusCancelled, ParseBrokerStatus("ApiCancelled"))
	assert.Equal(t, enum.OrderStatusExpired, ParseBrokerStatus("Inactive"))

	// Unknown vocabulary is treated as still working.
	assert.Equal(t, enum.OrderStatusLiveWorking, ParseBrokerStatus("SomethingNew"))
}
