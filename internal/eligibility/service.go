package eligibility

import (
	"time"

	"github.com/robinmaple/trading-automation-sub002/internal/model"
)

// WorkingOrderCounter exposes how many orders are currently working.
type WorkingOrderCounter interface {
	WorkingCount() int
}

// Service filters the planned-order set down to executable candidates.
// It mutates nothing and may be called concurrently from the price-tick
// handler and the periodic monitor.
type Service struct {
	engine        *FillProbability
	source        PriceSource
	counter       WorkingOrderCounter
	maxOpenOrders int
}

// NewService wires the eligibility filter.
func NewService(engine *FillProbability, source PriceSource, counter WorkingOrderCounter, maxOpenOrders int) *Service {
	return &Service{
		engine:        engine,
		source:        source,
		counter:       counter,
		maxOpenOrders: maxOpenOrders,
	}
}

// FindExecutableOrders returns candidates passing capacity constraints
// and the fill-probability threshold.
func (s *Service) FindExecutableOrders(planned []model.PlannedOrder) []model.Candidate {
	if s.maxOpenOrders > 0 && s.counter != nil && s.counter.WorkingCount() >= s.maxOpenOrders {
		return nil
	}

	now := time.Now()
	candidates := make([]model.Candidate, 0, len(planned))
	for _, order := range planned {
		if !order.HasEntry() {
			continue
		}
		ok, probability := s.engine.ShouldExecute(order, s.source)
		if !ok {
			continue
		}
		candidates = append(candidates, model.Candidate{
			Order:           order,
			FillProbability: probability,
			FoundAt:         now,
		})
	}
	return candidates
}

// FindExecutableForSymbols restricts the pass to an affected symbol set,
// as price-tick triggers do.
func (s *Service) FindExecutableForSymbols(planned []model.PlannedOrder, symbols map[string]struct{}) []model.Candidate {
	if len(symbols) == 0 {
		return nil
	}
	scoped := make([]model.PlannedOrder, 0, len(planned))
	for _, order := range planned {
		if _, ok := symbols[order.Symbol]; ok {
			scoped = append(scoped, order)
		}
	}
	return s.FindExecutableOrders(scoped)
}
