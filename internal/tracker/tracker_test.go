package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robinmaple/trading-automation-sub002/internal/bus"
	"github.com/robinmaple/trading-automation-sub002/internal/feed"
	"github.com/robinmaple/trading-automation-sub002/internal/model/enum"
	"github.com/robinmaple/trading-automation-sub002/pkg/exception"
)

type fakeTransport struct {
	streamErrs   []error // popped per RequestMarketData call
	snapshotErr  error
	streamCalls  int
	snapCalls    int
	granularities []enum.DataGranularity
}

func (f *fakeTransport) RequestMarketData(_ int64, _ feed.ContractSpec, granularity enum.DataGranularity) error {
	f.streamCalls++
	f.granularities = append(f.granularities, granularity)
	if len(f.streamErrs) == 0 {
		return nil
	}
	err := f.streamErrs[0]
	f.streamErrs = f.streamErrs[1:]
	return err
}

func (f *fakeTransport) RequestSnapshot(_ int64, _ feed.ContractSpec) error {
	f.snapCalls++
	return f.snapshotErr
}

func stockContract(symbol string) feed.ContractSpec {
	return feed.ContractSpec{
		Symbol:       symbol,
		SecurityType: enum.SecurityTypeStock,
		Exchange:     "SMART",
		Currency:     "USD",
	}
}

func TestSubscribeIsIdempotent(t *testing.T) {
	transport := &fakeTransport{}
	track := New(Config{}, transport, nil, nil)

	require.True(t, track.Subscribe("AAPL", stockContract("AAPL")))
	id, ok := track.SubscriptionID("AAPL")
	require.True(t, ok)

	require.True(t, track.Subscribe("AAPL", stockContract("AAPL")))
	again, _ := track.SubscriptionID("AAPL")

	assert.Equal(t, id, again)
	assert.Equal(t, 1, transport.streamCalls)
}

func TestSubscribeDegradesOnPermissionError(t *testing.T) {
	transport := &fakeTransport{streamErrs: []error{exception.ErrFeedSubscribeDenied}}
	track := New(Config{}, transport, nil, nil)

	require.True(t, track.Subscribe("AAPL", stockContract("AAPL")))
	require.Len(t, transport.granularities, 2)
	assert.Equal(t, transport.granularities[0].Degrade(), transport.granularities[1])
	assert.Equal(t, 0, transport.snapCalls)
}

func TestSubscribeFallsBackToSnapshot(t *testing.T) {
	transport := &fakeTransport{streamErrs: []error{exception.ErrFeedDisconnected}}
	track := New(Config{}, transport, nil, nil)

	assert.True(t, track.Subscribe("AAPL", stockContract("AAPL")))
	assert.Equal(t, 1, transport.snapCalls)
}

func TestSubscribeFailureReleasesSymbol(t *testing.T) {
	transport := &fakeTransport{
		streamErrs:  []error{exception.ErrFeedDisconnected, nil},
		snapshotErr: exception.ErrFeedDisconnected,
	}
	track := New(Config{}, transport, nil, nil)

	assert.False(t, track.Subscribe("AAPL", stockContract("AAPL")))
	_, ok := track.SubscriptionID("AAPL")
	assert.False(t, ok)

	// A later retry starts clean instead of hitting the no-op path.
	transport.snapshotErr = nil
	assert.True(t, track.Subscribe("AAPL", stockContract("AAPL")))
}

func collectUpdates(t *testing.T, events *bus.Bus) *[]bus.PriceUpdate {
	t.Helper()
	var updates []bus.PriceUpdate
	_, ok := events.Subscribe(bus.KindPriceUpdate, func(e bus.Event) {
		updates = append(updates, e.(bus.PriceUpdate))
	})
	require.True(t, ok)
	return &updates
}

func TestOnTickThresholdFilter(t *testing.T) {
	events := bus.New(0)
	updates := collectUpdates(t, events)
	transport := &fakeTransport{}
	track := New(Config{MinAbsoluteChange: 0.5}, transport, nil, events)

	require.True(t, track.Subscribe("AAPL", stockContract("AAPL")))
	reqID, _ := track.SubscriptionID("AAPL")

	track.OnTick(reqID, enum.TickKindLast, 100.00) // first price always publishes
	track.OnTick(reqID, enum.TickKindLast, 100.10) // under threshold
	track.OnTick(reqID, enum.TickKindLast, 100.70) // over threshold

	require.Len(t, *updates, 2)
	assert.InDelta(t, 100.00, (*updates)[0].Price, 1e-9)
	assert.InDelta(t, 100.70, (*updates)[1].Price, 1e-9)

	snap, ok := track.CurrentPrice("AAPL")
	require.True(t, ok)
	assert.InDelta(t, 100.70, snap.Price, 1e-9)
	assert.EqualValues(t, 3, snap.UpdatesCount)
}

func TestOnTickUnsetThresholdsPublishEverything(t *testing.T) {
	events := bus.New(0)
	updates := collectUpdates(t, events)
	transport := &fakeTransport{}
	track := New(Config{}, transport, nil, events)

	require.True(t, track.Subscribe("AAPL", stockContract("AAPL")))
	reqID, _ := track.SubscriptionID("AAPL")

	track.OnTick(reqID, enum.TickKindLast, 100.00)
	track.OnTick(reqID, enum.TickKindLast, 100.01)
	track.OnTick(reqID, enum.TickKindLast, 100.02)

	assert.Len(t, *updates, 3)
}

func TestOnTickExecutionSymbolBypassesFilter(t *testing.T) {
	events := bus.New(0)
	updates := collectUpdates(t, events)
	transport := &fakeTransport{}
	track := New(Config{MinAbsoluteChange: 5}, transport, nil, events)

	require.True(t, track.Subscribe("AAPL", stockContract("AAPL")))
	track.MarkExecutionSymbol("AAPL")
	reqID, _ := track.SubscriptionID("AAPL")

	track.OnTick(reqID, enum.TickKindLast, 100.00)
	track.OnTick(reqID, enum.TickKindLast, 100.01)

	require.Len(t, *updates, 2)
	assert.True(t, (*updates)[1].ExecutionSymbol)
	assert.InDelta(t, 100.00, (*updates)[1].PreviousPrice, 1e-9)
}

func TestOnTickIgnoresNoise(t *testing.T) {
	events := bus.New(0)
	updates := collectUpdates(t, events)
	transport := &fakeTransport{}
	track := New(Config{}, transport, nil, events)

	require.True(t, track.Subscribe("AAPL", stockContract("AAPL")))
	reqID, _ := track.SubscriptionID("AAPL")

	track.OnTick(999, enum.TickKindLast, 100)          // unknown request id
	track.OnTick(reqID, enum.TickKindOther, 100)       // non-tradable kind
	track.OnTick(reqID, enum.TickKindLast, -1)         // junk price
	assert.Empty(t, *updates)

	_, ok := track.CurrentPrice("AAPL")
	assert.False(t, ok)
}
