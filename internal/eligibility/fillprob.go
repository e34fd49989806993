package eligibility

import (
	"math"

	"github.com/robinmaple/trading-automation-sub002/internal/model"
)

// DefaultExecutionThreshold is the minimum probability to execute.
const DefaultExecutionThreshold = 0.7

const (
	gapSensitivity = 20
	volSensitivity = 10

	// minHistoryForVolatility is the fewest points a volatility
	// estimate needs before the default assumption applies.
	minHistoryForVolatility = 3
	defaultVolatility       = 0.005
)

// PriceSource is the read-only price view the engine consumes.
type PriceSource interface {
	CurrentPrice(symbol string) (model.PriceSnapshot, bool)
}

// FillProbability estimates how likely a planned order is to fill given
// the current price and recent volatility. Pure computation, safe for
// concurrent callers.
type FillProbability struct {
	threshold float64
}

// NewFillProbability creates an engine with the given execution
// threshold; threshold <= 0 falls back to the default.
func NewFillProbability(threshold float64) *FillProbability {
	if threshold <= 0 {
		threshold = DefaultExecutionThreshold
	}
	return &FillProbability{threshold: threshold}
}

// Threshold returns the configured execution threshold.
func (f *FillProbability) Threshold() float64 {
	return f.threshold
}

// ShouldExecute returns whether the order clears the threshold and the
// raw probability for downstream weighting. Orders without price data
// score (false, 0).
func (f *FillProbability) ShouldExecute(order model.PlannedOrder, source PriceSource) (bool, float64) {
	if !order.HasEntry() {
		return false, 0
	}
	snap, ok := source.CurrentPrice(order.Symbol)
	if !ok || snap.Price <= 0 {
		return false, 0
	}

	probability := Estimate(order.EntryPrice, snap.Price, snap.History)
	return probability >= f.threshold, probability
}

// Estimate computes the probability from the entry gap and the
// short-window volatility of the history. Closer to market and calmer
// tape both push the estimate toward 1.
func Estimate(entryPrice, currentPrice float64, history []model.PricePoint) float64 {
	if entryPrice <= 0 || currentPrice <= 0 {
		return 0
	}

	gap := math.Abs(currentPrice-entryPrice) / entryPrice
	vol := volatility(history)
	return math.Exp(-gap*gapSensitivity) * math.Exp(-vol*volSensitivity)
}

// volatility returns the coefficient of variation of the recent history.
func volatility(history []model.PricePoint) float64 {
	if len(history) < minHistoryForVolatility {
		return defaultVolatility
	}

	var sum float64
	for _, p := range history {
		sum += p.Price
	}
	mean := sum / float64(len(history))
	if mean <= 0 {
		return defaultVolatility
	}

	var variance float64
	for _, p := range history {
		d := p.Price - mean
		variance += d * d
	}
	variance /= float64(len(history))
	return math.Sqrt(variance) / mean
}
