package storage

import (
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/robinmaple/trading-automation-sub002/internal/model"
	"github.com/robinmaple/trading-automation-sub002/internal/model/enum"
	"github.com/robinmaple/trading-automation-sub002/internal/prioritize"
)

var workingStatuses = []string{
	enum.OrderStatusPending.String(),
	enum.OrderStatusLive.String(),
	enum.OrderStatusLiveWorking.String(),
}

// Repository persists orders, positions and closed trades.
type Repository struct {
	db *gorm.DB
}

// New wraps a gorm connection. Call Migrate before first use.
func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates or updates the schema.
func (r *Repository) Migrate() error {
	if err := r.db.AutoMigrate(&OrderRecord{}, &PositionRecord{}, &TradeRecord{}); err != nil {
		return errors.Wrap(err, "storage: migrate")
	}
	return nil
}

// SaveOrder upserts the bracket's tracking row keyed by parent id.
func (r *Repository) SaveOrder(order model.ActiveOrder) error {
	record := recordFromOrder(order)
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "parent_id"}},
		UpdateAll: true,
	}).Create(&record).Error
	if err != nil {
		return errors.Wrapf(err, "storage: save order %d", record.ParentID)
	}
	return nil
}

// UpdateOrderStatus stamps the stored status for a bracket.
func (r *Repository) UpdateOrderStatus(parentID int64, status enum.OrderStatus, at time.Time) error {
	err := r.db.Model(&OrderRecord{}).
		Where("parent_id = ?", parentID).
		Updates(map[string]any{
			"status":     status.String(),
			"updated_at": at,
		}).Error
	if err != nil {
		return errors.Wrapf(err, "storage: update order %d status", parentID)
	}
	return nil
}

// HasWorkingOrder reports whether a non-terminal bracket already exists
// for the given identity key.
func (r *Repository) HasWorkingOrder(identity model.IdentityKey) (bool, error) {
	var count int64
	err := r.db.Model(&OrderRecord{}).
		Where("identity_key = ? AND status IN ?", string(identity), workingStatuses).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "storage: count working orders")
	}
	return count > 0, nil
}

// WorkingOrders returns all brackets not yet in a terminal state.
func (r *Repository) WorkingOrders() ([]model.ActiveOrder, error) {
	var records []OrderRecord
	err := r.db.Where("status IN ?", workingStatuses).Find(&records).Error
	if err != nil {
		return nil, errors.Wrap(err, "storage: list working orders")
	}
	orders := make([]model.ActiveOrder, 0, len(records))
	for _, record := range records {
		orders = append(orders, orderFromRecord(record))
	}
	return orders, nil
}

// HasOpenPosition reports whether any open position exists for symbol.
func (r *Repository) HasOpenPosition(symbol string) (bool, error) {
	var count int64
	err := r.db.Model(&PositionRecord{}).
		Where("symbol = ? AND closed_at IS NULL AND quantity <> 0", symbol).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "storage: count open positions")
	}
	return count > 0, nil
}

// OpenPositions lists every open position.
func (r *Repository) OpenPositions() ([]model.Position, error) {
	var records []PositionRecord
	err := r.db.Where("closed_at IS NULL AND quantity <> 0").Find(&records).Error
	if err != nil {
		return nil, errors.Wrap(err, "storage: list open positions")
	}
	positions := make([]model.Position, 0, len(records))
	for _, record := range records {
		strategy, _ := enum.ParsePositionStrategy(record.Strategy)
		positions = append(positions, model.Position{
			Symbol:   record.Symbol,
			Strategy: strategy,
			Quantity: record.Quantity,
			AvgCost:  record.AvgCost,
			OpenedAt: record.OpenedAt,
		})
	}
	return positions, nil
}

// PositionsByStrategy lists open positions under one holding strategy.
func (r *Repository) PositionsByStrategy(strategy enum.PositionStrategy) ([]model.Position, error) {
	var records []PositionRecord
	err := r.db.Where("closed_at IS NULL AND quantity <> 0 AND strategy = ?", strategy.String()).
		Find(&records).Error
	if err != nil {
		return nil, errors.Wrapf(err, "storage: list %s positions", strategy)
	}
	positions := make([]model.Position, 0, len(records))
	for _, record := range records {
		positions = append(positions, model.Position{
			Symbol:   record.Symbol,
			Strategy: strategy,
			Quantity: record.Quantity,
			AvgCost:  record.AvgCost,
			OpenedAt: record.OpenedAt,
		})
	}
	return positions, nil
}

// OpenPosition records a fill opening or extending a position.
func (r *Repository) OpenPosition(p model.Position) error {
	record := PositionRecord{
		Symbol:   p.Symbol,
		Strategy: p.Strategy.String(),
		Quantity: p.Quantity,
		AvgCost:  p.AvgCost,
		OpenedAt: p.OpenedAt,
	}
	if err := r.db.Create(&record).Error; err != nil {
		return errors.Wrapf(err, "storage: open position %s", p.Symbol)
	}
	return nil
}

// ClosePosition marks every open row for symbol as closed.
func (r *Repository) ClosePosition(symbol string, at time.Time) error {
	err := r.db.Model(&PositionRecord{}).
		Where("symbol = ? AND closed_at IS NULL", symbol).
		Update("closed_at", at).Error
	if err != nil {
		return errors.Wrapf(err, "storage: close position %s", symbol)
	}
	return nil
}

// RecordTrade appends one closed round trip.
func (r *Repository) RecordTrade(trade TradeRecord) error {
	if err := r.db.Create(&trade).Error; err != nil {
		return errors.Wrapf(err, "storage: record trade %s", trade.Symbol)
	}
	return nil
}

type setupAggregate struct {
	Trades int
	Wins   int
	Gains  float64
	Losses float64
}

// SetupStats aggregates closed trades for one setup tag. A query
// failure degrades to "no stats" so scoring falls back to neutral.
func (r *Repository) SetupStats(setup string) (prioritize.SetupStats, bool) {
	var agg setupAggregate
	err := r.db.Model(&TradeRecord{}).
		Select(
			"COUNT(*) AS trades, "+
				"SUM(CASE WHEN profit > 0 THEN 1 ELSE 0 END) AS wins, "+
				"SUM(CASE WHEN profit > 0 THEN profit ELSE 0 END) AS gains, "+
				"SUM(CASE WHEN profit < 0 THEN -profit ELSE 0 END) AS losses",
		).
		Where("trading_setup = ?", setup).
		Scan(&agg).Error
	if err != nil {
		logs.Warnf("setup stats lookup failed for %q, err: %+v", setup, err)
		return prioritize.SetupStats{}, false
	}
	if agg.Trades == 0 {
		return prioritize.SetupStats{}, false
	}

	stats := prioritize.SetupStats{
		Trades:  agg.Trades,
		WinRate: float64(agg.Wins) / float64(agg.Trades),
	}
	if agg.Losses > 0 {
		stats.ProfitFactor = agg.Gains / agg.Losses
	} else if agg.Gains > 0 {
		stats.ProfitFactor = agg.Gains
	}
	return stats, true
}

func recordFromOrder(order model.ActiveOrder) OrderRecord {
	record := OrderRecord{
		ParentID:          order.ParentID(),
		Symbol:            order.Planned.Symbol,
		SecurityType:      order.Planned.SecurityType.String(),
		Exchange:          order.Planned.Exchange,
		Currency:          order.Planned.Currency,
		Action:            order.Planned.Action.String(),
		OrderType:         order.Planned.OrderType.String(),
		EntryPrice:        order.Planned.EntryPrice,
		StopLoss:          order.Planned.StopLoss,
		RiskReward:        order.Planned.RiskRewardRatio,
		Strategy:          order.Planned.Strategy.String(),
		TradingSetup:      order.Planned.TradingSetup,
		Timeframe:         order.Planned.Timeframe,
		IdentityKey:       string(order.Planned.Identity()),
		Status:            order.Status.String(),
		CapitalCommitment: order.CapitalCommitment,
		FillProbability:   order.FillProbability,
		SubmittedAt:       order.SubmittedAt,
		UpdatedAt:         order.UpdatedAt,
	}
	if len(order.OrderIDs) >= model.BracketOrderIDCount {
		record.TakeProfitID = order.OrderIDs[1]
		record.StopLossID = order.OrderIDs[2]
	}
	return record
}

func orderFromRecord(record OrderRecord) model.ActiveOrder {
	securityType, _ := enum.ParseSecurityType(record.SecurityType)
	action, _ := enum.ParseAction(record.Action)
	orderType, _ := enum.ParseOrderType(record.OrderType)
	strategy, _ := enum.ParsePositionStrategy(record.Strategy)
	status, ok := enum.ParseOrderStatus(record.Status)
	if !ok {
		status = enum.OrderStatusLiveWorking
	}

	return model.ActiveOrder{
		Planned: model.PlannedOrder{
			Symbol:          record.Symbol,
			SecurityType:    securityType,
			Exchange:        record.Exchange,
			Currency:        record.Currency,
			Action:          action,
			OrderType:       orderType,
			EntryPrice:      record.EntryPrice,
			StopLoss:        record.StopLoss,
			RiskRewardRatio: record.RiskReward,
			Strategy:        strategy,
			TradingSetup:    record.TradingSetup,
			Timeframe:       record.Timeframe,
		},
		OrderIDs: []int64{record.ParentID, record.TakeProfitID, record.StopLossID},
		Status:   status,

		CapitalCommitment: record.CapitalCommitment,
		FillProbability:   record.FillProbability,
		SubmittedAt:       record.SubmittedAt,
		UpdatedAt:         record.UpdatedAt,
	}
}
