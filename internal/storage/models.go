package storage

import "time"

// OrderRecord is the durable row behind one submitted bracket.
type OrderRecord struct {
	ParentID     int64 `gorm:"primaryKey"`
	TakeProfitID int64
	StopLossID   int64

	Symbol       string `gorm:"index"`
	SecurityType string
	Exchange     string
	Currency     string
	Action       string
	OrderType    string
	EntryPrice   float64
	StopLoss     float64
	RiskReward   float64
	Strategy     string
	TradingSetup string
	Timeframe    string

	IdentityKey string `gorm:"index"`
	Status      string `gorm:"index"`

	CapitalCommitment float64
	FillProbability   float64

	SubmittedAt time.Time
	UpdatedAt   time.Time
}

func (OrderRecord) TableName() string { return "orders" }

// PositionRecord tracks an open or closed position per symbol.
type PositionRecord struct {
	ID       int64  `gorm:"primaryKey;autoIncrement"`
	Symbol   string `gorm:"index"`
	Strategy string
	Quantity float64
	AvgCost  float64
	OpenedAt time.Time
	ClosedAt *time.Time `gorm:"index"`
}

func (PositionRecord) TableName() string { return "positions" }

// TradeRecord is one closed round trip, kept for setup bias scoring.
type TradeRecord struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Symbol       string `gorm:"index"`
	TradingSetup string `gorm:"index"`
	Timeframe    string
	Action       string
	Quantity     float64
	EntryPrice   float64
	ExitPrice    float64
	Profit       float64
	OpenedAt     time.Time
	ClosedAt     time.Time
}

func (TradeRecord) TableName() string { return "trades" }
