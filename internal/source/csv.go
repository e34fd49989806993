package source

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"github.com/robinmaple/trading-automation-sub002/internal/model"
	"github.com/robinmaple/trading-automation-sub002/internal/model/enum"
)

// Defaults fills optional columns a plan file leaves blank.
type Defaults struct {
	SecurityType    enum.SecurityType
	OrderType       enum.OrderType
	Exchange        string
	Currency        string
	RiskPerTrade    float64
	RiskRewardRatio float64
	Strategy        enum.PositionStrategy
	Priority        int
	Timeframe       string
}

// StandardDefaults mirror the most common plan-file shape: limit
// entries on US stocks with conservative risk.
func StandardDefaults() Defaults {
	return Defaults{
		SecurityType:    enum.SecurityTypeStock,
		OrderType:       enum.OrderTypeLimit,
		Exchange:        "SMART",
		Currency:        "USD",
		RiskPerTrade:    0.005,
		RiskRewardRatio: 2,
		Strategy:        enum.PositionStrategyDay,
		Priority:        3,
		Timeframe:       "15min",
	}
}

// RowError ties one rejected plan row to its line number.
type RowError struct {
	Line int
	Err  error
}

// CSV loads planned orders from a comma-separated plan file. Bad rows
// are collected, not fatal: one malformed line never discards the
// whole plan.
type CSV struct {
	path     string
	defaults Defaults
}

func NewCSV(path string, defaults Defaults) *CSV {
	return &CSV{path: path, defaults: defaults}
}

// Load parses the plan file. Returned orders all pass
// model.PlannedOrder.Validate; per-row failures come back alongside.
func (s *CSV) Load() ([]model.PlannedOrder, []RowError, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "source: open plan %s", s.path)
	}
	defer f.Close()

	return s.parse(f)
}

func (s *CSV) parse(r io.Reader) ([]model.PlannedOrder, []RowError, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, errors.Wrap(err, "source: read plan header")
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[normalizeColumn(name)] = i
	}
	for _, required := range []string{"symbol", "action", "entryprice", "stoploss"} {
		if _, ok := columns[required]; !ok {
			return nil, nil, errors.Errorf("source: plan header missing column %q", required)
		}
	}

	var (
		orders []model.PlannedOrder
		bad    []RowError
		line   = 1
	)
	for {
		line++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			bad = append(bad, RowError{Line: line, Err: err})
			continue
		}

		order, err := s.parseRow(columns, row)
		if err != nil {
			logs.Warnf("plan row %d rejected, err: %+v", line, err)
			bad = append(bad, RowError{Line: line, Err: err})
			continue
		}
		orders = append(orders, order)
	}
	return orders, bad, nil
}

func (s *CSV) parseRow(columns map[string]int, row []string) (model.PlannedOrder, error) {
	cell := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	order := model.PlannedOrder{
		Symbol:          strings.ToUpper(cell("symbol")),
		SecurityType:    s.defaults.SecurityType,
		Exchange:        s.defaults.Exchange,
		Currency:        s.defaults.Currency,
		OrderType:       s.defaults.OrderType,
		RiskPerTrade:    s.defaults.RiskPerTrade,
		RiskRewardRatio: s.defaults.RiskRewardRatio,
		Strategy:        s.defaults.Strategy,
		Priority:        s.defaults.Priority,
		Timeframe:       s.defaults.Timeframe,
	}
	if order.Symbol == "" {
		return model.PlannedOrder{}, errors.New("source: empty symbol")
	}

	action, ok := enum.ParseAction(cell("action"))
	if !ok {
		return model.PlannedOrder{}, errors.Errorf("source: unknown action %q", cell("action"))
	}
	order.Action = action

	if v := cell("securitytype"); v != "" {
		securityType, ok := enum.ParseSecurityType(v)
		if !ok {
			return model.PlannedOrder{}, errors.Errorf("source: unknown security type %q", v)
		}
		order.SecurityType = securityType
	}
	if v := cell("ordertype"); v != "" {
		orderType, ok := enum.ParseOrderType(v)
		if !ok {
			return model.PlannedOrder{}, errors.Errorf("source: unknown order type %q", v)
		}
		order.OrderType = orderType
	}
	if v := cell("strategy"); v != "" {
		strategy, ok := enum.ParsePositionStrategy(v)
		if !ok {
			return model.PlannedOrder{}, errors.Errorf("source: unknown strategy %q", v)
		}
		order.Strategy = strategy
	}
	if v := cell("exchange"); v != "" {
		order.Exchange = strings.ToUpper(v)
	}
	if v := cell("currency"); v != "" {
		order.Currency = strings.ToUpper(v)
	}
	if v := cell("setup"); v != "" {
		order.TradingSetup = v
	}
	if v := cell("timeframe"); v != "" {
		order.Timeframe = v
	}

	var err error
	if order.EntryPrice, err = parsePrice(cell("entryprice")); err != nil {
		return model.PlannedOrder{}, errors.Wrap(err, "source: entry price")
	}
	if order.StopLoss, err = parsePrice(cell("stoploss")); err != nil {
		return model.PlannedOrder{}, errors.Wrap(err, "source: stop loss")
	}

	if v := cell("riskpertrade"); v != "" {
		if order.RiskPerTrade, err = strconv.ParseFloat(v, 64); err != nil {
			return model.PlannedOrder{}, errors.Wrapf(err, "source: risk per trade %q", v)
		}
	}
	if v := cell("riskreward"); v != "" {
		if order.RiskRewardRatio, err = strconv.ParseFloat(v, 64); err != nil {
			return model.PlannedOrder{}, errors.Wrapf(err, "source: risk reward %q", v)
		}
	}
	if v := cell("priority"); v != "" {
		if order.Priority, err = strconv.Atoi(v); err != nil {
			return model.PlannedOrder{}, errors.Wrapf(err, "source: priority %q", v)
		}
	}
	if v := cell("coretimesdays"); v != "" {
		if order.CoreTimesDays, err = strconv.Atoi(v); err != nil {
			return model.PlannedOrder{}, errors.Wrapf(err, "source: core times days %q", v)
		}
	}

	if err := order.Validate(); err != nil {
		return model.PlannedOrder{}, err
	}
	return order, nil
}

// parsePrice goes through decimal so plan files written by
// spreadsheets ("1,085.50", "  0.98500 ") survive the trip.
func parsePrice(raw string) (float64, error) {
	raw = strings.ReplaceAll(raw, ",", "")
	if raw == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

func normalizeColumn(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, "_", "")
	name = strings.ReplaceAll(name, " ", "")
	switch name {
	case "sectype":
		return "securitytype"
	case "entry":
		return "entryprice"
	case "stop", "stopprice":
		return "stoploss"
	case "riskrewardratio", "rr":
		return "riskreward"
	case "tradingsetup":
		return "setup"
	case "risk":
		return "riskpertrade"
	}
	return name
}
