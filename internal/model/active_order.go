package model

import (
	"time"

	"github.com/robinmaple/trading-automation-sub002/internal/model/enum"
)

// BracketOrderIDCount is the number of broker order ids a bracket occupies.
const BracketOrderIDCount = 3

// ActiveOrder wraps one planned order with its live execution state.
// All mutation goes through the state table, never through callers.
type ActiveOrder struct {
	Planned  PlannedOrder
	OrderIDs []int64
	Status   enum.OrderStatus

	CapitalCommitment float64
	FillProbability   float64

	SubmittedAt time.Time
	UpdatedAt   time.Time
}

// NewActiveOrder creates the tracking record for a freshly submitted bracket.
func NewActiveOrder(planned PlannedOrder, orderIDs []int64, capital, fillProbability float64, now time.Time) *ActiveOrder {
	ids := make([]int64, len(orderIDs))
	copy(ids, orderIDs)
	return &ActiveOrder{
		Planned:           planned,
		OrderIDs:          ids,
		Status:            enum.OrderStatusPending,
		CapitalCommitment: capital,
		FillProbability:   fillProbability,
		SubmittedAt:       now,
		UpdatedAt:         now,
	}
}

// ParentID returns the bracket's parent order id.
func (o *ActiveOrder) ParentID() int64 {
	if len(o.OrderIDs) == 0 {
		return 0
	}
	return o.OrderIDs[0]
}

// IsWorking reports whether the order still needs tracking.
func (o *ActiveOrder) IsWorking() bool {
	return o.Status.IsWorking()
}

// Owns reports whether the given broker order id belongs to this bracket.
func (o *ActiveOrder) Owns(orderID int64) bool {
	for _, id := range o.OrderIDs {
		if id == orderID {
			return true
		}
	}
	return false
}
