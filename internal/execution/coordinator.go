package execution

import (
	"fmt"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"github.com/robinmaple/trading-automation-sub002/internal/bracket"
	"github.com/robinmaple/trading-automation-sub002/internal/bus"
	"github.com/robinmaple/trading-automation-sub002/internal/feed"
	"github.com/robinmaple/trading-automation-sub002/internal/model"
	"github.com/robinmaple/trading-automation-sub002/internal/model/enum"
	"github.com/robinmaple/trading-automation-sub002/internal/state"
	"github.com/robinmaple/trading-automation-sub002/pkg/exception"
)

// Gateway is the narrow broker surface the coordinator needs.
type Gateway interface {
	PlaceBracketOrder(contract feed.ContractSpec, b bracket.Bracket) ([]int64, error)
	CancelOrder(orderID int64) error
}

// Repository is the persistence view consulted by the guard checks.
type Repository interface {
	HasOpenPosition(symbol string) (bool, error)
	HasWorkingOrder(identity model.IdentityKey) (bool, error)
	SaveOrder(order model.ActiveOrder) error
}

// ExecutionMarker retains symbols whose price events must never be
// throttled once an order is live on them.
type ExecutionMarker interface {
	MarkExecutionSymbol(symbol string)
}

// Coordinator turns prioritized candidates into bracket submissions,
// enforcing the duplicate, cooldown, position and persistence guards.
// A single candidate's failure is isolated and reported in the batch
// summary; it never aborts its siblings.
type Coordinator struct {
	gateway Gateway
	guard   *Guard
	table   *state.Table
	repo    Repository
	marker  ExecutionMarker
	events  *bus.Bus
	now     func() time.Time
}

// NewCoordinator wires the execution core.
func NewCoordinator(gateway Gateway, guard *Guard, table *state.Table, repo Repository, marker ExecutionMarker, events *bus.Bus) *Coordinator {
	return &Coordinator{
		gateway: gateway,
		guard:   guard,
		table:   table,
		repo:    repo,
		marker:  marker,
		events:  events,
		now:     time.Now,
	}
}

// WithClock swaps the time source for deterministic tests.
func (c *Coordinator) WithClock(now func() time.Time) *Coordinator {
	if now != nil {
		c.now = now
	}
	return c
}

// ExecutePrioritized walks the ranked candidates in order and submits
// the allocated ones. The summary carries per-symbol reasons; nothing
// is dropped silently.
func (c *Coordinator) ExecutePrioritized(candidates []model.ScoredCandidate, totalCapital float64) model.ExecutionSummary {
	summary := model.ExecutionSummary{StartedAt: c.now()}
	for _, candidate := range candidates {
		summary.Record(c.executeOne(candidate, totalCapital))
	}
	summary.FinishedAt = c.now()

	if c.events != nil {
		c.events.Publish(bus.Execution{Summary: summary})
	}
	return summary
}

func (c *Coordinator) executeOne(candidate model.ScoredCandidate, totalCapital float64) model.ExecutionOutcome {
	order := candidate.Order
	outcome := model.ExecutionOutcome{
		Symbol:   order.Symbol,
		Identity: order.Identity(),
	}

	if !candidate.Allocated {
		outcome.Reason = "not allocated this cycle"
		return outcome
	}

	// Static parameter re-validation, independent of live price.
	if err := bracket.ValidateParams(order); err != nil {
		outcome.Reason = fmt.Sprintf("invalid bracket parameters: %v", err)
		return outcome
	}

	if reason, ok := c.checkGuards(order); !ok {
		outcome.Reason = reason
		return outcome
	}

	if err := c.guard.Acquire(order.Identity()); err != nil {
		// A concurrent trigger won the race between check and acquire.
		outcome.Reason = fmt.Sprintf("guard conflict: %v", err)
		return outcome
	}
	// The attempt now runs to completion; the guard is cleared and the
	// cooldown stamped on every exit path.
	defer c.guard.Release(order.Identity())

	built, err := bracket.Build(order, totalCapital)
	if err != nil {
		outcome.Reason = fmt.Sprintf("bracket computation failed: %v", err)
		return outcome
	}

	ids, err := c.gateway.PlaceBracketOrder(contractOf(order), built)
	if err != nil {
		outcome.Reason = fmt.Sprintf("broker submission failed: %v", err)
		logs.Errorf("bracket submission failed for %s, err: %+v", order.Symbol, err)
		return outcome
	}

	active := model.NewActiveOrder(order, ids, built.CapitalCommitment, candidate.FillProbability, c.now())
	if err := c.table.Insert(active); err != nil {
		logs.Errorf("tracking insert failed for %s, err: %+v", order.Symbol, err)
	}
	if c.repo != nil {
		if err := c.repo.SaveOrder(*active); err != nil {
			logs.Errorf("order persistence failed for %s, err: %+v", order.Symbol, err)
		}
	}
	if c.marker != nil {
		c.marker.MarkExecutionSymbol(order.Symbol)
	}

	outcome.Executed = true
	outcome.OrderIDs = ids
	outcome.Reason = "submitted"
	return outcome
}

// checkGuards applies the pre-acquisition rejections: in-progress,
// cooldown, open position, persisted working duplicate.
func (c *Coordinator) checkGuards(order model.PlannedOrder) (string, bool) {
	identity := order.Identity()

	if c.guard.InProgress(identity) {
		return "execution already in progress", false
	}
	if _, ok := c.table.FindByIdentity(identity); ok {
		return "working order with same identity already tracked", false
	}
	if c.repo != nil {
		if ok, err := c.repo.HasOpenPosition(order.Symbol); err != nil {
			return fmt.Sprintf("position lookup failed: %v", err), false
		} else if ok {
			return "open position already exists", false
		}
		if ok, err := c.repo.HasWorkingOrder(identity); err != nil {
			return fmt.Sprintf("order lookup failed: %v", err), false
		} else if ok {
			return "persisted working order already exists", false
		}
	}
	return "", true
}

// Replace cancels every id of the old bracket, then executes the new
// order through the same pipeline. If any cancellation fails the old
// order is left untouched and the replacement reports failure.
func (c *Coordinator) Replace(old model.ActiveOrder, replacement model.PlannedOrder, fillProbability, totalCapital float64) error {
	for _, id := range old.OrderIDs {
		if err := c.gateway.CancelOrder(id); err != nil {
			return errors.Wrapf(exception.ErrCancellationFailed, "order %d: %v", id, err)
		}
	}

	if _, changed, err := c.table.UpdateStatus(old.ParentID(), enum.OrderStatusReplaced, c.now()); err != nil {
		logs.Warnf("replace status update failed for %s, err: %+v", old.Planned.Symbol, err)
	} else if changed {
		c.table.Remove(old.ParentID())
	}

	summary := c.ExecutePrioritized([]model.ScoredCandidate{{
		Candidate: model.Candidate{
			Order:           replacement,
			FillProbability: fillProbability,
			FoundAt:         c.now(),
		},
		CapitalCommitment: old.CapitalCommitment,
		Allocated:         true,
	}}, totalCapital)

	if summary.Executed != 1 {
		reason := "unknown"
		if len(summary.Outcomes) > 0 {
			reason = summary.Outcomes[0].Reason
		}
		return errors.Wrapf(exception.ErrBrokerSubmission, "replacement not executed: %s", reason)
	}
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
