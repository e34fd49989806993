package scanner

import (
	"sort"
	"time"

	"github.com/markcheno/go-quote"
	"github.com/markcheno/go-talib"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"github.com/robinmaple/trading-automation-sub002/internal/model"
	"github.com/robinmaple/trading-automation-sub002/internal/model/enum"
)

const dateFormat = "2006-01-02"

// Fetcher pulls daily candles for one symbol.
type Fetcher interface {
	Daily(symbol string, days int) (quote.Quote, error)
}

// Yahoo fetches daily candles from Yahoo Finance.
type Yahoo struct{}

func (Yahoo) Daily(symbol string, days int) (quote.Quote, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -days)
	q, err := quote.NewQuoteFromYahoo(symbol, start.Format(dateFormat), end.Format(dateFormat), quote.Daily, true)
	if err != nil {
		return quote.Quote{}, errors.Wrapf(err, "scanner: fetch %s", symbol)
	}
	return q, nil
}

// Config tunes the trend screen.
type Config struct {
	FastEMA      int     `json:"fastEma"`
	SlowEMA      int     `json:"slowEma"`
	ATRPeriod    int     `json:"atrPeriod"`
	ATRStopMult  float64 `json:"atrStopMult"`
	LookbackDays int     `json:"lookbackDays"`

	RiskPerTrade    float64 `json:"riskPerTrade"`
	RiskRewardRatio float64 `json:"riskRewardRatio"`
}

func DefaultConfig() Config {
	return Config{
		FastEMA:         9,
		SlowEMA:         21,
		ATRPeriod:       14,
		ATRStopMult:     2,
		LookbackDays:    120,
		RiskPerTrade:    0.005,
		RiskRewardRatio: 2,
	}
}

// Proposal is one screened symbol turned into a draft planned order.
// Strength is the EMA separation in ATR units, used for ranking only.
type Proposal struct {
	Order    model.PlannedOrder
	Strength float64
}

// Scanner screens a watchlist for trend alignment and drafts entries
// with volatility-scaled stops. Output is a starting point for a plan
// file, not something submitted directly.
type Scanner struct {
	fetcher Fetcher
	cfg     Config
}

func New(fetcher Fetcher, cfg Config) *Scanner {
	if cfg.FastEMA <= 0 || cfg.SlowEMA <= cfg.FastEMA {
		cfg = DefaultConfig()
	}
	return &Scanner{fetcher: fetcher, cfg: cfg}
}

// Scan screens every symbol and returns proposals sorted by descending
// strength. Per-symbol failures are logged and skipped.
func (s *Scanner) Scan(symbols []string) []Proposal {
	proposals := make([]Proposal, 0, len(symbols))
	for _, symbol := range symbols {
		q, err := s.fetcher.Daily(symbol, s.cfg.LookbackDays)
		if err != nil {
			logs.Warnf("scan %s failed, err: %+v", symbol, err)
			continue
		}
		proposal, ok := s.evaluate(symbol, q)
		if !ok {
			continue
		}
		proposals = append(proposals, proposal)
	}

	sort.SliceStable(proposals, func(i, j int) bool {
		return proposals[i].Strength > proposals[j].Strength
	})
	return proposals
}

func (s *Scanner) evaluate(symbol string, q quote.Quote) (Proposal, bool) {
	need := s.cfg.SlowEMA
	if s.cfg.ATRPeriod+1 > need {
		need = s.cfg.ATRPeriod + 1
	}
	if len(q.Close) < need {
		return Proposal{}, false
	}

	fast := talib.Ema(q.Close, s.cfg.FastEMA)
	slow := talib.Ema(q.Close, s.cfg.SlowEMA)
	atr := talib.Atr(q.High, q.Low, q.Close, s.cfg.ATRPeriod)

	last := len(q.Close) - 1
	lastATR := atr[last]
	if lastATR <= 0 {
		return Proposal{}, false
	}

	lastClose := q.Close[last]
	separation := fast[last] - slow[last]

	order := model.PlannedOrder{
		Symbol:          symbol,
		SecurityType:    enum.SecurityTypeStock,
		Exchange:        "SMART",
		Currency:        "USD",
		OrderType:       enum.OrderTypeLimit,
		EntryPrice:      lastClose,
		RiskPerTrade:    s.cfg.RiskPerTrade,
		RiskRewardRatio: s.cfg.RiskRewardRatio,
		Strategy:        enum.PositionStrategyDay,
		TradingSetup:    "ema-trend",
		Timeframe:       "1d",
	}

	switch {
	case separation > 0 && fast[last] > fast[last-1]:
		order.Action = enum.ActionBuy
		order.StopLoss = lastClose - s.cfg.ATRStopMult*lastATR
	case separation < 0 && fast[last] < fast[last-1]:
		order.Action = enum.ActionShortSell
		order.StopLoss = lastClose + s.cfg.ATRStopMult*lastATR
	default:
		return Proposal{}, false
	}

	if err := order.Validate(); err != nil {
		logs.Warnf("scan %s produced invalid draft, err: %+v", symbol, err)
		return Proposal{}, false
	}

	strength := separation / lastATR
	if strength < 0 {
		strength = -strength
	}
	return Proposal{Order: order, Strength: strength}, true
}
