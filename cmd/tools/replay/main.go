package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/robinmaple/trading-automation-sub002/internal/bus"
	"github.com/robinmaple/trading-automation-sub002/internal/feed"
	"github.com/robinmaple/trading-automation-sub002/internal/model/enum"
	"github.com/robinmaple/trading-automation-sub002/internal/tracker"
)

// nopTransport satisfies the tracker without a live broker; replayed
// ticks are injected directly into the tick entry point.
type nopTransport struct{}

func (nopTransport) RequestMarketData(int64, feed.ContractSpec, enum.DataGranularity) error {
	return nil
}

func (nopTransport) RequestSnapshot(int64, feed.ContractSpec) error {
	return nil
}

func main() {
	path := flag.String("file", "testdata/ticks.jsonl", "Tick capture to replay")
	speed := flag.Float64("speed", 0, "Playback speed (1=real-time, 0=no pacing)")
	minAbs := flag.Float64("min-abs", 0.01, "Significance filter, absolute change")
	minPct := flag.Float64("min-pct", 0.001, "Significance filter, percent change")
	flag.Parse()

	events := bus.New(0)
	track := tracker.New(tracker.Config{
		MinAbsoluteChange: *minAbs,
		MinPercentChange:  *minPct,
	}, nopTransport{}, nil, events)

	published := 0
	events.Subscribe(bus.KindPriceUpdate, func(e bus.Event) {
		update := e.(bus.PriceUpdate)
		published++
		fmt.Printf("%s  %-10s %12.4f  (prev %.4f)\n",
			update.Timestamp.Format(time.RFC3339), update.Symbol, update.Price, update.PreviousPrice)
	})

	replay, err := feed.NewReplay(feed.ReplayConfig{Path: *path, Speed: *speed})
	if err != nil {
		log.Fatalf("open replay: %+v", err)
	}

	total, err := replay.Run(context.Background(), func(rec feed.TickRecord) error {
		id, ok := track.SubscriptionID(rec.Symbol)
		if !ok {
			track.Subscribe(rec.Symbol, feed.ContractSpec{
				Symbol:       rec.Symbol,
				SecurityType: enum.SecurityTypeStock,
				Exchange:     "SMART",
				Currency:     "USD",
			})
			id, _ = track.SubscriptionID(rec.Symbol)
		}
		track.OnTick(id, rec.TickKind, rec.Price)
		return nil
	})
	if err != nil {
		log.Fatalf("replay: %+v", err)
	}

	fmt.Printf("replayed %d ticks, %d significant updates\n", total, published)
}
