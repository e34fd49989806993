package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robinmaple/trading-automation-sub002/internal/bus"
	"github.com/robinmaple/trading-automation-sub002/internal/model"
	"github.com/robinmaple/trading-automation-sub002/internal/model/enum"
)

type recordingSink struct {
	mu    sync.Mutex
	texts []string
}

func (s *recordingSink) Send(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, text)
	return nil
}

func (s *recordingSink) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}

func TestFormatCoversDeliverableKinds(t *testing.T) {
	text, ok := Format(bus.OrderStatus{OrderID: 7, Status: enum.OrderStatusFilled, Filled: 100})
	require.True(t, ok)
	assert.Contains(t, text, "order 7")
	assert.Contains(t, text, "FILLED")

	summary := model.ExecutionSummary{}
	summary.Record(model.ExecutionOutcome{Symbol: "AAPL", Executed: true, OrderIDs: []int64{1, 2, 3}})
	summary.Record(model.ExecutionOutcome{Symbol: "MSFT", Reason: "open position exists"})
	text, ok = Format(bus.Execution{Summary: summary})
	require.True(t, ok)
	assert.Contains(t, text, "1 placed, 1 skipped")
	assert.Contains(t, text, "MSFT skipped: open position exists")

	_, ok = Format(bus.PriceUpdate{Symbol: "AAPL"})
	assert.False(t, ok)
}

func TestNotifierDrainsBusEvents(t *testing.T) {
	events := bus.New(0)
	sink := &recordingSink{}
	notifier := New(sink)
	require.True(t, notifier.Attach(events))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		notifier.Run(ctx)
		close(done)
	}()

	events.Publish(bus.Discrepancy{Class: "statusMismatch", Symbol: "AAPL", Detail: "drift"})
	events.Publish(bus.PriceUpdate{Symbol: "AAPL", Price: 100}) // not subscribed

	notifier.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("notifier did not drain")
	}

	texts := sink.all()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "statusMismatch")
}
