package ops

import (
	"encoding/json"
	"os"
	"time"

	"github.com/yanun0323/errors"

	"github.com/robinmaple/trading-automation-sub002/internal/model/enum"
	"github.com/robinmaple/trading-automation-sub002/internal/prioritize"
	"github.com/robinmaple/trading-automation-sub002/internal/scanner"
	"github.com/robinmaple/trading-automation-sub002/internal/source"
	"github.com/robinmaple/trading-automation-sub002/internal/tracker"
	"github.com/robinmaple/trading-automation-sub002/pkg/exception"
)

// FileConfig mirrors the JSON config layout. Every section is typed and
// validated once at load; business code never sees raw maps.
type FileConfig struct {
	Account    AccountConfig                 `json:"account"`
	Plan       PlanConfig                    `json:"plan"`
	Tracker    TrackerConfig                 `json:"tracker"`
	Engine     EngineConfig                  `json:"engine"`
	Profiles   []prioritize.Profile          `json:"profiles"`
	Timeframes map[string]map[string]float64 `json:"timeframes"`
	Execution  ExecutionConfig               `json:"execution"`
	Reconcile  ReconcileConfig               `json:"reconcile"`
	Monitor    MonitorConfig                 `json:"monitor"`
	Storage    StorageConfig                 `json:"storage"`
	Telegram   TelegramConfig                `json:"telegram"`
	Scanner    scanner.Config                `json:"scanner"`
	Profiling  ProfilingConfig               `json:"profiling"`
}

// AccountConfig selects the trading account and its broker bridge.
type AccountConfig struct {
	Kind         string  `json:"kind"` // paper | live
	BridgeURL    string  `json:"bridgeUrl"`
	TotalCapital float64 `json:"totalCapital"`
}

// PlanConfig locates the plan file and its column defaults.
type PlanConfig struct {
	Path     string       `json:"path"`
	Defaults PlanDefaults `json:"defaults"`
}

// PlanDefaults fills optional plan columns, as strings for the file
// layer and parsed into enums at load.
type PlanDefaults struct {
	SecurityType    string  `json:"securityType"`
	OrderType       string  `json:"orderType"`
	Exchange        string  `json:"exchange"`
	Currency        string  `json:"currency"`
	RiskPerTrade    float64 `json:"riskPerTrade"`
	RiskRewardRatio float64 `json:"riskRewardRatio"`
	Strategy        string  `json:"strategy"`
	Priority        int     `json:"priority"`
	Timeframe       string  `json:"timeframe"`
}

// TrackerConfig tunes the price significance filter.
type TrackerConfig struct {
	MinAbsoluteChange float64 `json:"minAbsoluteChange"`
	MinPercentChange  float64 `json:"minPercentChange"`
}

// EngineConfig selects the active profile and the allocation budgets.
type EngineConfig struct {
	Profile               string                    `json:"profile"`
	ExecutionThreshold    float64                   `json:"executionThreshold"`
	MaxOpenOrders         int                       `json:"maxOpenOrders"`
	MaxCapitalUtilization float64                   `json:"maxCapitalUtilization"`
	MarketRegime          string                    `json:"marketRegime"`
	Bias                  prioritize.BiasThresholds `json:"bias"`
}

// ExecutionConfig tunes the duplicate-execution guard.
type ExecutionConfig struct {
	CooldownSeconds int `json:"cooldownSeconds"`
}

// ReconcileConfig tunes the reconciliation loop.
type ReconcileConfig struct {
	PollIntervalSeconds int `json:"pollIntervalSeconds"`
}

// MonitorConfig tunes the periodic execution loop.
type MonitorConfig struct {
	IntervalSeconds int `json:"intervalSeconds"`
}

// StorageConfig selects the database backing order and trade state.
type StorageConfig struct {
	Driver   string `json:"driver"` // postgres | sqlite
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"sslMode"`
	Path     string `json:"path"` // sqlite only
}

// TelegramConfig enables the telegram notification sink when set.
type TelegramConfig struct {
	Token  string `json:"token"`
	ChatID int64  `json:"chatId"`
}

// ProfilingConfig enables continuous profiling when set.
type ProfilingConfig struct {
	ServerAddress string `json:"serverAddress"`
}

// Loaded is the resolved, validated configuration.
type Loaded struct {
	AccountKind  enum.AccountKind
	BridgeURL    string
	TotalCapital float64

	PlanPath     string
	PlanDefaults source.Defaults

	Tracker tracker.Config

	Profile            prioritize.Profile
	Timeframes         *prioritize.TimeframeTable
	Bias               prioritize.BiasThresholds
	Limits             prioritize.Limits
	ExecutionThreshold float64
	MarketRegime       string

	Cooldown          time.Duration
	ReconcileInterval time.Duration
	MonitorInterval   time.Duration

	Storage   StorageConfig
	Telegram  TelegramConfig
	Scanner   scanner.Config
	Pyroscope ProfilingConfig
}

// Load reads, parses and validates the JSON config file.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, errors.Wrapf(err, "ops: read config %s", path)
	}
	return parse(data)
}

func parse(data []byte) (Loaded, error) {
	cfg := FileConfig{
		Account: AccountConfig{Kind: "paper", TotalCapital: 100_000},
		Engine: EngineConfig{
			Profile:               "default",
			MaxOpenOrders:         5,
			MaxCapitalUtilization: 0.8,
			Bias: prioritize.BiasThresholds{
				MinTradesForBias: 20,
				MinWinRate:       0.45,
				MinProfitFactor:  1.1,
			},
		},
		Execution: ExecutionConfig{CooldownSeconds: 5},
		Reconcile: ReconcileConfig{PollIntervalSeconds: 30},
		Monitor:   MonitorConfig{IntervalSeconds: 10},
		Scanner:   scanner.DefaultConfig(),
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, errors.Wrap(err, "ops: parse config")
	}

	accountKind, ok := enum.ParseAccountKind(cfg.Account.Kind)
	if !ok {
		return Loaded{}, errors.Wrapf(exception.ErrConfigInvalid, "account kind %q", cfg.Account.Kind)
	}
	if cfg.Account.TotalCapital <= 0 {
		return Loaded{}, errors.Wrapf(exception.ErrConfigInvalid, "total capital %.2f", cfg.Account.TotalCapital)
	}

	profiles := prioritize.BuiltinProfiles()
	for _, p := range cfg.Profiles {
		profiles[p.Name] = p
	}
	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			return Loaded{}, err
		}
	}
	profile, ok := profiles[cfg.Engine.Profile]
	if !ok {
		return Loaded{}, errors.Wrapf(exception.ErrConfigUnknownProfile, "%q", cfg.Engine.Profile)
	}

	timeframes, err := prioritize.NewTimeframeTable(cfg.Timeframes)
	if err != nil {
		return Loaded{}, err
	}

	if cfg.Engine.MaxOpenOrders <= 0 {
		return Loaded{}, errors.Wrapf(exception.ErrConfigInvalid, "maxOpenOrders %d", cfg.Engine.MaxOpenOrders)
	}
	if cfg.Engine.MaxCapitalUtilization <= 0 || cfg.Engine.MaxCapitalUtilization > 1 {
		return Loaded{}, errors.Wrapf(exception.ErrConfigInvalid, "maxCapitalUtilization %.4f outside (0,1]", cfg.Engine.MaxCapitalUtilization)
	}
	if cfg.Engine.ExecutionThreshold < 0 || cfg.Engine.ExecutionThreshold > 1 {
		return Loaded{}, errors.Wrapf(exception.ErrConfigInvalid, "executionThreshold %.4f outside [0,1]", cfg.Engine.ExecutionThreshold)
	}

	defaults, err := resolvePlanDefaults(cfg.Plan.Defaults)
	if err != nil {
		return Loaded{}, err
	}

	return Loaded{
		AccountKind:  accountKind,
		BridgeURL:    cfg.Account.BridgeURL,
		TotalCapital: cfg.Account.TotalCapital,

		PlanPath:     cfg.Plan.Path,
		PlanDefaults: defaults,

		Tracker: tracker.Config{
			MinAbsoluteChange: cfg.Tracker.MinAbsoluteChange,
			MinPercentChange:  cfg.Tracker.MinPercentChange,
		},

		Profile:    profile,
		Timeframes: timeframes,
		Bias:       cfg.Engine.Bias,
		Limits: prioritize.Limits{
			MaxOpenOrders:         cfg.Engine.MaxOpenOrders,
			MaxCapitalUtilization: cfg.Engine.MaxCapitalUtilization,
		},
		ExecutionThreshold: cfg.Engine.ExecutionThreshold,
		MarketRegime:       cfg.Engine.MarketRegime,

		Cooldown:          time.Duration(cfg.Execution.CooldownSeconds) * time.Second,
		ReconcileInterval: time.Duration(cfg.Reconcile.PollIntervalSeconds) * time.Second,
		MonitorInterval:   time.Duration(cfg.Monitor.IntervalSeconds) * time.Second,

		Storage:   cfg.Storage,
		Telegram:  cfg.Telegram,
		Scanner:   cfg.Scanner,
		Pyroscope: cfg.Profiling,
	}, nil
}

func resolvePlanDefaults(d PlanDefaults) (source.Defaults, error) {
	resolved := source.StandardDefaults()
	if d.SecurityType != "" {
		securityType, ok := enum.ParseSecurityType(d.SecurityType)
		if !ok {
			return source.Defaults{}, errors.Wrapf(exception.ErrConfigInvalid, "default security type %q", d.SecurityType)
		}
		resolved.SecurityType = securityType
	}
	if d.OrderType != "" {
		orderType, ok := enum.ParseOrderType(d.OrderType)
		if !ok {
			return source.Defaults{}, errors.Wrapf(exception.ErrConfigInvalid, "default order type %q", d.OrderType)
		}
		resolved.OrderType = orderType
	}
	if d.Strategy != "" {
		strategy, ok := enum.ParsePositionStrategy(d.Strategy)
		if !ok {
			return source.Defaults{}, errors.Wrapf(exception.ErrConfigInvalid, "default strategy %q", d.Strategy)
		}
		resolved.Strategy = strategy
	}
	if d.Exchange != "" {
		resolved.Exchange = d.Exchange
	}
	if d.Currency != "" {
		resolved.Currency = d.Currency
	}
	if d.RiskPerTrade > 0 {
		resolved.RiskPerTrade = d.RiskPerTrade
	}
	if d.RiskRewardRatio > 0 {
		resolved.RiskRewardRatio = d.RiskRewardRatio
	}
	if d.Priority > 0 {
		resolved.Priority = d.Priority
	}
	if d.Timeframe != "" {
		resolved.Timeframe = d.Timeframe
	}
	return resolved, nil
}
