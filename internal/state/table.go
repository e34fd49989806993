package state

import (
	"sync"
	"time"

	"github.com/robinmaple/trading-automation-sub002/internal/model"
	"github.com/robinmaple/trading-automation-sub002/internal/model/enum"
	"github.com/robinmaple/trading-automation-sub002/pkg/exception"
)

// Table is the single serialization point for active-order mutation.
// Broker callbacks, the coordinator and the reconciler all funnel
// through it instead of sharing a raw map.
type Table struct {
	mu      sync.Mutex
	orders  map[int64]*model.ActiveOrder    // keyed by parent order id
	byChild map[int64]int64                 // any bracket id -> parent id
	byIdent map[model.IdentityKey]int64     // identity -> parent id
}

// NewTable creates an empty active-order table.
func NewTable() *Table {
	return &Table{
		orders:  make(map[int64]*model.ActiveOrder),
		byChild: make(map[int64]int64),
		byIdent: make(map[model.IdentityKey]int64),
	}
}

// Insert starts tracking a submitted bracket.
func (t *Table) Insert(order *model.ActiveOrder) error {
	if order == nil || len(order.OrderIDs) == 0 {
		return exception.ErrOrderValidation
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	parent := order.ParentID()
	if _, ok := t.orders[parent]; ok {
		return exception.ErrOrderDuplicate
	}
	t.orders[parent] = order
	for _, id := range order.OrderIDs {
		t.byChild[id] = parent
	}
	t.byIdent[order.Planned.Identity()] = parent
	return nil
}

// UpdateStatus applies a broker status callback addressed to any id of
// a bracket. Unknown ids and no-op transitions report changed=false.
func (t *Table) UpdateStatus(orderID int64, status enum.OrderStatus, now time.Time) (*model.ActiveOrder, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	parent, ok := t.byChild[orderID]
	if !ok {
		return nil, false, exception.ErrOrderNotFound
	}
	order := t.orders[parent]

	if order.Status.IsTerminal() {
		return order, false, exception.ErrOrderTerminal
	}
	if !allowedTransition(order.Status, status) {
		return order, false, nil
	}

	order.Status = status
	order.UpdatedAt = now
	if !order.IsWorking() && status != enum.OrderStatusFilled {
		delete(t.byIdent, order.Planned.Identity())
	}
	return order, true, nil
}

// Remove stops tracking a bracket once it no longer needs attention.
func (t *Table) Remove(parentID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	order, ok := t.orders[parentID]
	if !ok {
		return
	}
	for _, id := range order.OrderIDs {
		delete(t.byChild, id)
	}
	delete(t.byIdent, order.Planned.Identity())
	delete(t.orders, parentID)
}

// IterWorking calls fn for a copy of every still-working order.
func (t *Table) IterWorking(fn func(model.ActiveOrder)) {
	for _, order := range t.workingCopies() {
		fn(order)
	}
}

// WorkingCount returns how many orders are still working.
func (t *Table) WorkingCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, order := range t.orders {
		if order.IsWorking() {
			n++
		}
	}
	return n
}

// FindByIdentity returns a copy of the working order matching an
// identity key, if any.
func (t *Table) FindByIdentity(key model.IdentityKey) (model.ActiveOrder, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	parent, ok := t.byIdent[key]
	if !ok {
		return model.ActiveOrder{}, false
	}
	order := t.orders[parent]
	if !order.IsWorking() {
		return model.ActiveOrder{}, false
	}
	return copyOrder(order), true
}

// Find returns a copy of the order owning the given broker id.
func (t *Table) Find(orderID int64) (model.ActiveOrder, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	parent, ok := t.byChild[orderID]
	if !ok {
		return model.ActiveOrder{}, false
	}
	return copyOrder(t.orders[parent]), true
}

func (t *Table) workingCopies() []model.ActiveOrder {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]model.ActiveOrder, 0, len(t.orders))
	for _, order := range t.orders {
		if order.IsWorking() {
			out = append(out, copyOrder(order))
		}
	}
	return out
}

func copyOrder(order *model.ActiveOrder) model.ActiveOrder {
	out := *order
	out.OrderIDs = make([]int64, len(order.OrderIDs))
	copy(out.OrderIDs, order.OrderIDs)
	return out
}
