package main

import (
	"context"
	"flag"
	"log"
	"strings"

	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"

	"github.com/robinmaple/trading-automation-sub002/internal/broker"
	"github.com/robinmaple/trading-automation-sub002/internal/broker/ibkr"
	"github.com/robinmaple/trading-automation-sub002/internal/bus"
	"github.com/robinmaple/trading-automation-sub002/internal/feed"
	"github.com/robinmaple/trading-automation-sub002/internal/model/enum"
	"github.com/robinmaple/trading-automation-sub002/internal/state"
	"github.com/robinmaple/trading-automation-sub002/internal/tracker"
)

// Captures live ticks to a JSONL file the replay tool can play back.
func main() {
	bridgeURL := flag.String("bridge", "ws://localhost:8090/ws", "TWS bridge websocket URL")
	symbolsArg := flag.String("symbols", "", "Comma-separated symbols to capture")
	outPath := flag.String("out", "testdata/ticks.jsonl", "Capture file")
	minAbs := flag.Float64("min-abs", 0, "Significance filter, absolute change (0=record every tick)")
	flag.Parse()

	var symbols []string
	for _, s := range strings.Split(*symbolsArg, ",") {
		if s = strings.TrimSpace(s); s != "" {
			symbols = append(symbols, strings.ToUpper(s))
		}
	}
	if len(symbols) == 0 {
		log.Fatal("no symbols given, use -symbols")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recorder, err := feed.NewRecorder(*outPath)
	if err != nil {
		log.Fatalf("open capture file: %+v", err)
	}
	defer recorder.Close()

	events := bus.New(0)
	events.Subscribe(bus.KindPriceUpdate, func(e bus.Event) {
		update := e.(bus.PriceUpdate)
		err := recorder.Append(feed.TickRecord{
			Timestamp: update.Timestamp.UnixNano(),
			Symbol:    update.Symbol,
			TickKind:  update.TickKind,
			Price:     update.Price,
		})
		if err != nil {
			logs.Errorf("append tick, err: %+v", err)
		}
	})

	bridge := ibkr.New(ctx, *bridgeURL)
	if err := bridge.Connect(ctx); err != nil {
		log.Fatalf("connect bridge: %+v", err)
	}
	defer bridge.Close()

	track := tracker.New(tracker.Config{MinAbsoluteChange: *minAbs}, bridge, nil, events)
	stopObserve := bridge.Observe(ctx, broker.NewCallbacks(track, state.NewTable(), nil, nil))
	defer stopObserve()

	for _, symbol := range symbols {
		contract := feed.ContractSpec{
			Symbol:       symbol,
			SecurityType: enum.SecurityTypeStock,
			Exchange:     "SMART",
			Currency:     "USD",
		}
		if strings.Contains(symbol, ".") {
			contract.SecurityType = enum.SecurityTypeCash
			contract.Exchange = "IDEALPRO"
		}
		if !track.Subscribe(symbol, contract) {
			logs.Warnf("subscription failed for %s", symbol)
			continue
		}
		if *minAbs == 0 {
			// Bypass the significance filter so every tick lands in the capture.
			track.MarkExecutionSymbol(symbol)
		}
	}

	logs.Infof("capturing %d symbols to %s", len(symbols), *outPath)
	<-sys.Shutdown()
	logs.Info("capture stopped")
}
