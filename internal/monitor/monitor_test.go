package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robinmaple/trading-automation-sub002/internal/bracket"
	"github.com/robinmaple/trading-automation-sub002/internal/bus"
	"github.com/robinmaple/trading-automation-sub002/internal/calendar"
	"github.com/robinmaple/trading-automation-sub002/internal/eligibility"
	"github.com/robinmaple/trading-automation-sub002/internal/execution"
	"github.com/robinmaple/trading-automation-sub002/internal/feed"
	"github.com/robinmaple/trading-automation-sub002/internal/model"
	"github.com/robinmaple/trading-automation-sub002/internal/model/enum"
	"github.com/robinmaple/trading-automation-sub002/internal/obs"
	"github.com/robinmaple/trading-automation-sub002/internal/prioritize"
	"github.com/robinmaple/trading-automation-sub002/internal/state"
)

type stubPrices struct {
	prices map[string]float64
}

func (s *stubPrices) CurrentPrice(symbol string) (model.PriceSnapshot, bool) {
	price, ok := s.prices[symbol]
	if !ok {
		return model.PriceSnapshot{}, false
	}
	return model.PriceSnapshot{Symbol: symbol, Price: price, Timestamp: time.Now()}, true
}

type stubGateway struct {
	nextID    int64
	placed    []bracket.Bracket
	cancelled []int64
}

func (g *stubGateway) PlaceBracketOrder(_ feed.ContractSpec, b bracket.Bracket) ([]int64, error) {
	g.placed = append(g.placed, b)
	g.nextID += 3
	return []int64{g.nextID - 2, g.nextID - 1, g.nextID}, nil
}

func (g *stubGateway) CancelOrder(orderID int64) error {
	g.cancelled = append(g.cancelled, orderID)
	return nil
}

type stubRepo struct {
	saved []model.ActiveOrder
}

func (r *stubRepo) HasOpenPosition(string) (bool, error)            { return false, nil }
func (r *stubRepo) HasWorkingOrder(model.IdentityKey) (bool, error) { return false, nil }

func (r *stubRepo) SaveOrder(order model.ActiveOrder) error {
	r.saved = append(r.saved, order)
	return nil
}

type stubMarker struct {
	symbols []string
}

func (m *stubMarker) MarkExecutionSymbol(symbol string) { m.symbols = append(m.symbols, symbol) }

type fixedCalendar struct {
	end time.Time
}

func (c fixedCalendar) SessionEnd(time.Time) time.Time { return c.end }

func planOrder(symbol string, entry, stop float64) model.PlannedOrder {
	return model.PlannedOrder{
		Symbol:          symbol,
		SecurityType:    enum.SecurityTypeStock,
		Exchange:        "SMART",
		Currency:        "USD",
		Action:          enum.ActionBuy,
		OrderType:       enum.OrderTypeLimit,
		EntryPrice:      entry,
		StopLoss:        stop,
		RiskPerTrade:    0.01,
		RiskRewardRatio: 2,
		Strategy:        enum.PositionStrategyDay,
		Priority:        3,
		Timeframe:       "15min",
	}
}

func newTestMonitor(t *testing.T, prices *stubPrices, gateway *stubGateway) (*Monitor, *state.Table, *stubRepo) {
	t.Helper()

	table := state.NewTable()
	repo := &stubRepo{}
	events := bus.New(0)

	fillProb := eligibility.NewFillProbability(0)
	service := eligibility.NewService(fillProb, prices, table, 5)

	profile := prioritize.BuiltinProfiles()["default"]
	engine := prioritize.NewEngine(profile, nil, nil, prioritize.BiasThresholds{}, bracket.EstimateCapital, prioritize.Limits{
		MaxOpenOrders:         5,
		MaxCapitalUtilization: 0.8,
	})

	guard := execution.NewGuard(0)
	coordinator := execution.NewCoordinator(gateway, guard, table, repo, &stubMarker{}, events)

	m := New(service, engine, coordinator, table, gateway, fixedCalendar{end: time.Now().Add(6 * time.Hour)}, obs.NewMetrics(), Config{
		TotalCapital: 100_000,
	})
	return m, table, repo
}

func TestRunPassExecutesEligibleOrder(t *testing.T) {
	prices := &stubPrices{prices: map[string]float64{"AAPL": 100}}
	gateway := &stubGateway{}
	m, table, repo := newTestMonitor(t, prices, gateway)

	m.SetPlan([]model.PlannedOrder{planOrder("AAPL", 100, 95)})
	m.runPass(nil)

	require.Len(t, gateway.placed, 1)
	assert.Equal(t, 1, table.WorkingCount())
	require.Len(t, repo.saved, 1)
	assert.Equal(t, "AAPL", repo.saved[0].Planned.Symbol)
}

func TestRunPassSkipsFarFromMarketOrders(t *testing.T) {
	// price 20% away from entry: probability collapses below threshold
	prices := &stubPrices{prices: map[string]float64{"AAPL": 120}}
	gateway := &stubGateway{}
	m, table, _ := newTestMonitor(t, prices, gateway)

	m.SetPlan([]model.PlannedOrder{planOrder("AAPL", 100, 95)})
	m.runPass(nil)

	assert.Empty(t, gateway.placed)
	assert.Equal(t, 0, table.WorkingCount())
}

func TestScopedPassOnlyTouchesDirtySymbols(t *testing.T) {
	prices := &stubPrices{prices: map[string]float64{"AAPL": 100, "MSFT": 400}}
	gateway := &stubGateway{}
	m, _, _ := newTestMonitor(t, prices, gateway)

	m.SetPlan([]model.PlannedOrder{
		planOrder("AAPL", 100, 95),
		planOrder("MSFT", 400, 390),
	})
	m.runPass(map[string]struct{}{"MSFT": {}})

	require.Len(t, gateway.placed, 1)
	assert.Equal(t, 1, len(gateway.placed))
}

func TestAttachQueuesPriceUpdateSymbols(t *testing.T) {
	prices := &stubPrices{prices: map[string]float64{}}
	m, _, _ := newTestMonitor(t, prices, &stubGateway{})

	events := bus.New(0)
	require.True(t, m.Attach(events))

	events.Publish(bus.PriceUpdate{Symbol: "AAPL", Price: 100})

	select {
	case symbol := <-m.dirty:
		assert.Equal(t, "AAPL", symbol)
	default:
		t.Fatal("price update did not queue a scoped pass")
	}
}

func TestSweepExpiredUsesSubmissionSession(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	cal, err := calendar.NewUSEquities()
	require.NoError(t, err)

	prices := &stubPrices{prices: map[string]float64{}}
	gateway := &stubGateway{}
	m, table, _ := newTestMonitor(t, prices, gateway)
	m.calendar = cal

	// Submitted mid-session on a Monday.
	submitted := time.Date(2026, 3, 2, 11, 0, 0, 0, loc)
	order := model.NewActiveOrder(planOrder("AAPL", 100, 95), []int64{1, 2, 3}, 10000, 0.9, submitted)
	order.Status = enum.OrderStatusLiveWorking
	require.NoError(t, table.Insert(order))

	// Still working before that session's close.
	m.WithClock(func() time.Time { return time.Date(2026, 3, 2, 15, 0, 0, 0, loc) })
	m.sweepExpired()
	assert.Empty(t, gateway.cancelled)

	// Past Monday's close the order goes, even a day later.
	m.WithClock(func() time.Time { return time.Date(2026, 3, 3, 12, 0, 0, 0, loc) })
	m.sweepExpired()
	assert.ElementsMatch(t, []int64{1, 2, 3}, gateway.cancelled)
	updated, ok := table.Find(1)
	require.True(t, ok)
	assert.Equal(t, enum.OrderStatusExpired, updated.Status)
}

func TestSweepExpiredCancelsDayOrders(t *testing.T) {
	prices := &stubPrices{prices: map[string]float64{}}
	gateway := &stubGateway{}
	m, table, _ := newTestMonitor(t, prices, gateway)

	order := model.NewActiveOrder(planOrder("AAPL", 100, 95), []int64{1, 2, 3}, 10000, 0.9, time.Now().Add(-8*time.Hour))
	order.Status = enum.OrderStatusLiveWorking
	require.NoError(t, table.Insert(order))

	// session already over
	m.calendar = fixedCalendar{end: time.Now().Add(-time.Hour)}
	m.sweepExpired()

	assert.ElementsMatch(t, []int64{1, 2, 3}, gateway.cancelled)
	updated, ok := table.Find(1)
	require.True(t, ok)
	assert.Equal(t, enum.OrderStatusExpired, updated.Status)
}
