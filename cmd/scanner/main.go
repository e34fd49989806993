package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"github.com/robinmaple/trading-automation-sub002/internal/ops"
	"github.com/robinmaple/trading-automation-sub002/internal/scanner"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config (optional)")
	symbolsArg := flag.String("symbols", "", "Comma-separated watchlist")
	watchlistPath := flag.String("watchlist", "", "File with one symbol per line")
	outPath := flag.String("out", "", "Write proposals as a plan CSV (default: stdout table)")
	flag.Parse()

	cfg := scanner.DefaultConfig()
	if *configPath != "" {
		loaded, err := ops.Load(*configPath)
		if err != nil {
			log.Fatalf("load config: %+v", err)
		}
		cfg = loaded.Scanner
	}

	symbols, err := watchlist(*symbolsArg, *watchlistPath)
	if err != nil {
		log.Fatalf("read watchlist: %+v", err)
	}
	if len(symbols) == 0 {
		log.Fatal("no symbols given, use -symbols or -watchlist")
	}

	proposals := scanner.New(scanner.Yahoo{}, cfg).Scan(symbols)
	logs.Infof("scanned %d symbols, %d proposals", len(symbols), len(proposals))

	if *outPath != "" {
		if err := writePlan(*outPath, proposals); err != nil {
			log.Fatalf("write plan: %+v", err)
		}
		return
	}
	printTable(proposals)
}

func watchlist(symbolsArg, path string) ([]string, error) {
	var symbols []string
	for _, s := range strings.Split(symbolsArg, ",") {
		if s = strings.TrimSpace(s); s != "" {
			symbols = append(symbols, strings.ToUpper(s))
		}
	}
	if path == "" {
		return symbols, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read watchlist file")
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		symbols = append(symbols, strings.ToUpper(line))
	}
	return symbols, nil
}

// writePlan emits rows readable by the plan CSV source.
func writePlan(path string, proposals []scanner.Proposal) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create plan file")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		"symbol", "sec_type", "action", "entry_price", "stop_loss",
		"risk_per_trade", "risk_reward_ratio", "trading_setup", "priority",
	}); err != nil {
		return errors.Wrap(err, "write plan header")
	}

	for _, p := range proposals {
		o := p.Order
		row := []string{
			o.Symbol,
			o.SecurityType.String(),
			o.Action.String(),
			formatPrice(o.EntryPrice),
			formatPrice(o.StopLoss),
			strconv.FormatFloat(o.RiskPerTrade, 'f', -1, 64),
			strconv.FormatFloat(o.RiskRewardRatio, 'f', -1, 64),
			o.TradingSetup,
			strconv.Itoa(o.Priority),
		}
		if err := w.Write(row); err != nil {
			return errors.Wrapf(err, "write plan row %s", o.Symbol)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, "flush plan file")
	}
	return nil
}

func printTable(proposals []scanner.Proposal) {
	fmt.Printf("%-10s %-6s %10s %10s %8s\n", "SYMBOL", "ACTION", "ENTRY", "STOP", "STRENGTH")
	for _, p := range proposals {
		fmt.Printf("%-10s %-6s %10.2f %10.2f %8.2f\n",
			p.Order.Symbol, p.Order.Action, p.Order.EntryPrice, p.Order.StopLoss, p.Strength)
	}
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
