package bus

import (
	"time"

	"github.com/robinmaple/trading-automation-sub002/internal/model"
	"github.com/robinmaple/trading-automation-sub002/internal/model/enum"
)

// Kind identifies the event family for subscription routing.
type Kind uint8

const (
	_kind_beg Kind = iota
	KindPriceUpdate
	KindOrderStatus
	KindExecution
	KindDiscrepancy
	_kind_end
)

func (k Kind) IsAvailable() bool {
	return k > _kind_beg && k < _kind_end
}

func (k Kind) String() string {
	switch k {
	case KindPriceUpdate:
		return "price_update"
	case KindOrderStatus:
		return "order_status"
	case KindExecution:
		return "execution"
	case KindDiscrepancy:
		return "discrepancy"
	default:
		return "unknown"
	}
}

// Event is the unit passed through the in-memory bus.
type Event interface {
	Kind() Kind
}

// PriceUpdate fires when a symbol's snapshot changes significantly,
// or unconditionally for execution symbols.
type PriceUpdate struct {
	Symbol        string
	Price         float64
	PreviousPrice float64
	TickKind      enum.TickKind
	Timestamp     time.Time

	// ExecutionSymbol marks updates that bypassed the significance filter.
	ExecutionSymbol bool
}

func (PriceUpdate) Kind() Kind { return KindPriceUpdate }

// OrderStatus fires on broker order-status callbacks.
type OrderStatus struct {
	OrderID   int64
	Status    enum.OrderStatus
	RawStatus string
	Filled    float64
	Remaining float64
	AvgPrice  float64
	Timestamp time.Time
}

func (OrderStatus) Kind() Kind { return KindOrderStatus }

// Execution fires once per coordinator batch.
type Execution struct {
	Summary model.ExecutionSummary
}

func (Execution) Kind() Kind { return KindExecution }

// Discrepancy fires when reconciliation finds internal and broker
// state disagreeing.
type Discrepancy struct {
	Class     string
	Symbol    string
	OrderID   int64
	Detail    string
	Timestamp time.Time
}

func (Discrepancy) Kind() Kind { return KindDiscrepancy }
