package tracker

import (
	"sync"
	"time"

	"github.com/robinmaple/trading-automation-sub002/internal/model/enum"
)

// errorsPerDowngrade is how many subscription errors a symbol absorbs
// before its requested granularity degrades one step.
const errorsPerDowngrade = 3

// MarketCalendar answers whether the market is open at a point in time.
type MarketCalendar interface {
	IsOpen(t time.Time) bool
}

// GranularityPolicy selects the market-data granularity to request.
//
// Paper accounts always get the most delayed-but-always-available kind.
// Live accounts get real-time data in market hours and frozen data
// otherwise, degrading per symbol after repeated errors and resetting
// the error count when the market reopens.
type GranularityPolicy struct {
	account  enum.AccountKind
	calendar MarketCalendar

	mu         sync.Mutex
	errorCount map[string]int
	wasOpen    bool
}

// NewGranularityPolicy creates a policy for the given account kind.
func NewGranularityPolicy(account enum.AccountKind, calendar MarketCalendar) *GranularityPolicy {
	return &GranularityPolicy{
		account:    account,
		calendar:   calendar,
		errorCount: make(map[string]int),
	}
}

// For resolves the granularity to request for a symbol right now.
func (p *GranularityPolicy) For(symbol string, now time.Time) enum.DataGranularity {
	if p.account == enum.AccountKindPaper {
		return enum.DataGranularityDelayedFrozen
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	open := p.calendar != nil && p.calendar.IsOpen(now)
	if open && !p.wasOpen {
		// Market reopened, give every symbol a clean slate.
		for k := range p.errorCount {
			delete(p.errorCount, k)
		}
	}
	p.wasOpen = open

	base := enum.DataGranularityFrozen
	if open {
		base = enum.DataGranularityRealTime
	}
	for i := 0; i < p.errorCount[symbol]/errorsPerDowngrade; i++ {
		base = base.Degrade()
	}
	return base
}

// RecordError counts one subscription error against a symbol.
func (p *GranularityPolicy) RecordError(symbol string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errorCount[symbol]++
}
