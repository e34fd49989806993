package main

import (
	"context"
	"flag"
	"log"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/joho/godotenv"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/robinmaple/trading-automation-sub002/internal/bracket"
	"github.com/robinmaple/trading-automation-sub002/internal/broker"
	"github.com/robinmaple/trading-automation-sub002/internal/broker/ibkr"
	"github.com/robinmaple/trading-automation-sub002/internal/bus"
	"github.com/robinmaple/trading-automation-sub002/internal/calendar"
	"github.com/robinmaple/trading-automation-sub002/internal/eligibility"
	"github.com/robinmaple/trading-automation-sub002/internal/execution"
	"github.com/robinmaple/trading-automation-sub002/internal/feed"
	"github.com/robinmaple/trading-automation-sub002/internal/model"
	"github.com/robinmaple/trading-automation-sub002/internal/monitor"
	"github.com/robinmaple/trading-automation-sub002/internal/notify"
	"github.com/robinmaple/trading-automation-sub002/internal/obs"
	"github.com/robinmaple/trading-automation-sub002/internal/ops"
	"github.com/robinmaple/trading-automation-sub002/internal/prioritize"
	"github.com/robinmaple/trading-automation-sub002/internal/reconcile"
	"github.com/robinmaple/trading-automation-sub002/internal/source"
	"github.com/robinmaple/trading-automation-sub002/internal/state"
	"github.com/robinmaple/trading-automation-sub002/internal/storage"
	"github.com/robinmaple/trading-automation-sub002/internal/tracker"
	"github.com/robinmaple/trading-automation-sub002/pkg/conn"
)

const busSubscriberCap = 64

func main() {
	configPath := flag.String("config", "config.json", "Path to JSON config")
	planPath := flag.String("plan", "", "Planned-order CSV (overrides config)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		logs.Info("no .env file, using process environment")
	}

	cfg, err := ops.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %+v", err)
	}
	if *planPath != "" {
		cfg.PlanPath = *planPath
	}

	if err := run(cfg); err != nil {
		log.Fatalf("trader: %+v", err)
	}
}

func run(cfg ops.Loaded) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopProfiler, err := startProfiler(cfg.Pyroscope)
	if err != nil {
		return errors.Wrap(err, "start profiler")
	}
	defer stopProfiler()

	cal, err := calendar.NewUSEquities()
	if err != nil {
		return errors.Wrap(err, "load market calendar")
	}

	db, err := openStorage(cfg.Storage)
	if err != nil {
		return errors.Wrap(err, "open storage")
	}
	repo := storage.New(db)
	if err := repo.Migrate(); err != nil {
		return errors.Wrap(err, "migrate storage")
	}

	events := bus.New(busSubscriberCap)
	metrics := obs.NewMetrics()
	metrics.Attach(events)

	bridge := ibkr.New(ctx, cfg.BridgeURL)
	if err := bridge.Connect(ctx); err != nil {
		return errors.Wrap(err, "connect bridge")
	}
	defer bridge.Close()

	policy := tracker.NewGranularityPolicy(cfg.AccountKind, cal)
	track := tracker.New(cfg.Tracker, bridge, policy, events)

	table := state.NewTable()
	restored, err := repo.WorkingOrders()
	if err != nil {
		return errors.Wrap(err, "restore working orders")
	}
	for i := range restored {
		if err := table.Insert(&restored[i]); err != nil {
			logs.Warnf("restore working order %s, err: %+v", restored[i].Planned.Symbol, err)
		}
	}

	callbacks := broker.NewCallbacks(track, table, repo, events)
	stopObserve := bridge.Observe(ctx, callbacks)
	defer stopObserve()

	capital := cfg.TotalCapital
	if v, err := bridge.AccountValue(ctx); err != nil {
		logs.Warnf("account value unavailable, using configured capital %.2f, err: %+v", capital, err)
	} else if v > 0 {
		capital = v
	}

	plan, rowErrs, err := source.NewCSV(cfg.PlanPath, cfg.PlanDefaults).Load()
	if err != nil {
		return errors.Wrap(err, "load plan")
	}
	for _, rowErr := range rowErrs {
		logs.Warnf("plan row %d skipped, err: %+v", rowErr.Line, rowErr.Err)
	}

	for _, order := range plan {
		track.Subscribe(order.Symbol, contractOf(order))
	}

	fillProb := eligibility.NewFillProbability(cfg.ExecutionThreshold)
	eligible := eligibility.NewService(fillProb, track, table, cfg.Limits.MaxOpenOrders)
	engine := prioritize.NewEngine(cfg.Profile, cfg.Timeframes, repo, cfg.Bias, bracket.EstimateCapital, cfg.Limits)
	guard := execution.NewGuard(cfg.Cooldown)
	coordinator := execution.NewCoordinator(bridge, guard, table, repo, track, events)

	mon := monitor.New(eligible, engine, coordinator, table, bridge, cal, metrics, monitor.Config{
		Interval:     cfg.MonitorInterval,
		TotalCapital: capital,
		MarketRegime: cfg.MarketRegime,
	})
	mon.SetPlan(plan)
	mon.Attach(events)

	reconciler := reconcile.NewEngine(bridge, table, repo, events, nil, cfg.ReconcileInterval)

	notifier, err := buildNotifier(cfg.Telegram)
	if err != nil {
		return errors.Wrap(err, "build notifier")
	}
	notifier.Attach(events)
	defer notifier.Close()

	go notifier.Run(ctx)
	go mon.Run(ctx)
	go func() {
		if err := reconciler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logs.Errorf("reconciler stopped, err: %+v", err)
		}
	}()

	logs.Infof("trader running, account=%s capital=%.2f plan=%d orders", cfg.AccountKind, capital, len(plan))

	select {
	case <-sys.Shutdown():
	case <-ctx.Done():
	}
	logs.Info("trader shutting down")
	return nil
}

func contractOf(order model.PlannedOrder) feed.ContractSpec {
	return feed.ContractSpec{
		Symbol:       order.Symbol,
		SecurityType: order.SecurityType,
		Exchange:     order.Exchange,
		Currency:     order.Currency,
	}
}

func openStorage(cfg ops.StorageConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}

	switch cfg.Driver {
	case "sqlite":
		client, err := conn.NewSQLite(cfg.Path, gormCfg)
		if err != nil {
			return nil, err
		}
		return client.DB(), nil
	default:
		client, err := conn.New(conn.Option{
			Host:     cfg.Host,
			Port:     cfg.Port,
			User:     cfg.User,
			Password: cfg.Password,
			Database: cfg.Database,
			SSLMode:  cfg.SSLMode,
			Config:   gormCfg,
		})
		if err != nil {
			return nil, err
		}
		return client.DB(), nil
	}
}

func buildNotifier(cfg ops.TelegramConfig) (*notify.Notifier, error) {
	sinks := []notify.Sink{notify.Log{}}
	if cfg.Token != "" {
		telegram, err := notify.NewTelegram(cfg.Token, cfg.ChatID)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, telegram)
	}
	return notify.New(sinks...), nil
}

func startProfiler(cfg ops.ProfilingConfig) (stop func(), err error) {
	if cfg.ServerAddress == "" {
		return func() {}, nil
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: "trader",
		ServerAddress:   cfg.ServerAddress,
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
		},
	})
	if err != nil {
		return nil, err
	}
	return func() { _ = profiler.Stop() }, nil
}
