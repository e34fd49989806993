package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/yanun0323/logs"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/robinmaple/trading-automation-sub002/internal/bracket"
	"github.com/robinmaple/trading-automation-sub002/internal/broker"
	"github.com/robinmaple/trading-automation-sub002/internal/bus"
	"github.com/robinmaple/trading-automation-sub002/internal/eligibility"
	"github.com/robinmaple/trading-automation-sub002/internal/execution"
	"github.com/robinmaple/trading-automation-sub002/internal/feed"
	"github.com/robinmaple/trading-automation-sub002/internal/model"
	"github.com/robinmaple/trading-automation-sub002/internal/model/enum"
	"github.com/robinmaple/trading-automation-sub002/internal/prioritize"
	"github.com/robinmaple/trading-automation-sub002/internal/source"
	"github.com/robinmaple/trading-automation-sub002/internal/state"
	"github.com/robinmaple/trading-automation-sub002/internal/storage"
	"github.com/robinmaple/trading-automation-sub002/internal/tracker"
	"github.com/robinmaple/trading-automation-sub002/pkg/conn"
)

const (
	defaultCapital   = 100_000
	defaultThreshold = 0.7
	defaultMaxOrders = 5
)

type nopTransport struct{}

func (nopTransport) RequestMarketData(int64, feed.ContractSpec, enum.DataGranularity) error {
	return nil
}

func (nopTransport) RequestSnapshot(int64, feed.ContractSpec) error {
	return nil
}

// Dry-runs the execution pipeline against a recorded tick capture: no
// bridge, no live broker, fills simulated when price crosses the entry.
func main() {
	planPath := flag.String("plan", "plan.csv", "Planned-order CSV")
	ticksPath := flag.String("ticks", "testdata/ticks.jsonl", "Tick capture to drive the run")
	capital := flag.Float64("capital", defaultCapital, "Paper account capital")
	speed := flag.Float64("speed", 0, "Playback speed (1=real-time, 0=no pacing)")
	flag.Parse()

	if err := run(*planPath, *ticksPath, *capital, *speed); err != nil {
		log.Fatalf("paper: %+v", err)
	}
}

func run(planPath, ticksPath string, capital, speed float64) error {
	plan, rowErrs, err := source.NewCSV(planPath, source.StandardDefaults()).Load()
	if err != nil {
		return err
	}
	for _, rowErr := range rowErrs {
		logs.Warnf("plan row %d skipped, err: %+v", rowErr.Line, rowErr.Err)
	}

	client, err := conn.NewSQLite(":memory:", &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return err
	}
	repo := storage.New(client.DB())
	if err := repo.Migrate(); err != nil {
		return err
	}

	events := bus.New(0)
	table := state.NewTable()
	track := tracker.New(tracker.Config{}, nopTransport{}, nil, events)

	gateway := broker.NewPaperGateway(capital)
	gateway.BindHandler(broker.NewCallbacks(track, table, repo, events))

	fillProb := eligibility.NewFillProbability(defaultThreshold)
	eligible := eligibility.NewService(fillProb, track, table, defaultMaxOrders)
	engine := prioritize.NewEngine(prioritize.BuiltinProfiles()["default"], nil, repo, prioritize.BiasThresholds{}, bracket.EstimateCapital, prioritize.Limits{
		MaxOpenOrders:         defaultMaxOrders,
		MaxCapitalUtilization: 0.8,
	})
	guard := execution.NewGuard(0)
	coordinator := execution.NewCoordinator(gateway, guard, table, repo, track, events)

	placed, filled := 0, 0
	events.Subscribe(bus.KindPriceUpdate, func(e bus.Event) {
		update := e.(bus.PriceUpdate)

		// Simulate fills before considering new entries at this price.
		filled += simulateFills(gateway, table, update)

		candidates := eligible.FindExecutableForSymbols(plan, map[string]struct{}{update.Symbol: {}})
		if len(candidates) == 0 {
			return
		}
		scored := engine.Prioritize(candidates, capital, "")
		summary := coordinator.ExecutePrioritized(scored, capital)
		for _, outcome := range summary.Outcomes {
			if outcome.Executed {
				placed++
				logs.Infof("placed %s at %.4f", outcome.Symbol, update.Price)
			}
		}
	})

	for _, order := range plan {
		track.Subscribe(order.Symbol, feed.ContractSpec{
			Symbol:       order.Symbol,
			SecurityType: order.SecurityType,
			Exchange:     order.Exchange,
			Currency:     order.Currency,
		})
		track.MarkExecutionSymbol(order.Symbol)
	}

	replay, err := feed.NewReplay(feed.ReplayConfig{Path: ticksPath, Speed: speed})
	if err != nil {
		return err
	}
	total, err := replay.Run(context.Background(), func(rec feed.TickRecord) error {
		if id, ok := track.SubscriptionID(rec.Symbol); ok {
			track.OnTick(id, rec.TickKind, rec.Price)
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Printf("replayed %d ticks: %d orders placed, %d filled, %d still working\n",
		total, placed, filled, table.WorkingCount())
	return nil
}

// simulateFills marks a working parent filled once the replayed price
// touches its entry.
func simulateFills(gateway *broker.PaperGateway, table *state.Table, update bus.PriceUpdate) int {
	var fills []int64
	table.IterWorking(func(order model.ActiveOrder) {
		if order.Planned.Symbol != update.Symbol || len(order.OrderIDs) == 0 {
			return
		}
		if crossed(order.Planned, update.Price) {
			fills = append(fills, order.OrderIDs[0])
		}
	})
	for _, id := range fills {
		gateway.Fill(id)
	}
	return len(fills)
}

func crossed(planned model.PlannedOrder, price float64) bool {
	if planned.Action == enum.ActionBuy {
		return price <= planned.EntryPrice
	}
	return price >= planned.EntryPrice
}
