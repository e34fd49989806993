package feed

import (
	"context"
	"sync"
	"time"

	"github.com/robinmaple/trading-automation-sub002/internal/model"
	"github.com/robinmaple/trading-automation-sub002/internal/model/enum"
)

// MockFeed is a deterministic in-memory feed for tests and dry runs.
type MockFeed struct {
	mu         sync.Mutex
	connected  bool
	subscribed map[string]ContractSpec
	snapshots  map[string]model.PriceSnapshot

	// SubscribeResult forces the next Subscribe results when non-nil.
	SubscribeResult *bool
}

// NewMockFeed creates an empty mock feed.
func NewMockFeed() *MockFeed {
	return &MockFeed{
		subscribed: make(map[string]ContractSpec),
		snapshots:  make(map[string]model.PriceSnapshot),
	}
}

func (f *MockFeed) Connect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = true
	return nil
}

func (f *MockFeed) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *MockFeed) Subscribe(symbol string, contract ContractSpec) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SubscribeResult != nil {
		return *f.SubscribeResult
	}
	f.subscribed[symbol] = contract
	return true
}

func (f *MockFeed) CurrentPrice(symbol string) (model.PriceSnapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap, ok := f.snapshots[symbol]
	if !ok {
		return model.PriceSnapshot{}, false
	}
	return snap.Clone(), true
}

// SetPrice installs the latest price and appends it to the history.
func (f *MockFeed) SetPrice(symbol string, price float64) {
	f.SetPriceAt(symbol, price, time.Now())
}

// SetPriceAt installs a price with an explicit timestamp.
func (f *MockFeed) SetPriceAt(symbol string, price float64, ts time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := f.snapshots[symbol]
	snap.Symbol = symbol
	snap.Price = price
	snap.Timestamp = ts
	snap.TickKind = enum.TickKindLast
	snap.UpdatesCount++
	snap.PushHistory(model.PricePoint{Price: price, Timestamp: ts})
	f.snapshots[symbol] = snap
}

// SetHistory replaces a symbol's history, keeping the last price current.
func (f *MockFeed) SetHistory(symbol string, prices []float64) {
	base := time.Now().Add(-time.Duration(len(prices)) * time.Second)
	for i, p := range prices {
		f.SetPriceAt(symbol, p, base.Add(time.Duration(i)*time.Second))
	}
}

// Subscribed reports whether the symbol has an active subscription.
func (f *MockFeed) Subscribed(symbol string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.subscribed[symbol]
	return ok
}
