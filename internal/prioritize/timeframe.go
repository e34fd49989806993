package prioritize

import (
	"github.com/yanun0323/errors"

	"github.com/robinmaple/trading-automation-sub002/pkg/exception"
)

// TimeframeTable scores compatibility between an order's declared
// timeframe and the current market regime. The table is symmetric and
// every timeframe is fully compatible with itself.
type TimeframeTable struct {
	scores map[string]map[string]float64
}

// NewTimeframeTable builds and validates a table from pair scores.
// Entries are given one-way and mirrored automatically; a conflicting
// asymmetric pair is a configuration error.
func NewTimeframeTable(pairs map[string]map[string]float64) (*TimeframeTable, error) {
	scores := make(map[string]map[string]float64, len(pairs))
	set := func(a, b string, v float64) error {
		if v < 0 || v > 1 {
			return errors.Wrapf(exception.ErrConfigTimeframeTable, "score %.2f for %s/%s outside [0,1]", v, a, b)
		}
		row, ok := scores[a]
		if !ok {
			row = make(map[string]float64)
			scores[a] = row
		}
		if existing, ok := row[b]; ok && existing != v {
			return errors.Wrapf(exception.ErrConfigTimeframeTable, "asymmetric scores for %s/%s: %.2f vs %.2f", a, b, existing, v)
		}
		row[b] = v
		return nil
	}

	for a, row := range pairs {
		for b, v := range row {
			if err := set(a, b, v); err != nil {
				return nil, err
			}
			if err := set(b, a, v); err != nil {
				return nil, err
			}
		}
	}
	return &TimeframeTable{scores: scores}, nil
}

// Score returns the compatibility in [0,1]. Identical timeframes always
// score 1; unknown pairs score the neutral 0.5.
func (t *TimeframeTable) Score(orderTimeframe, marketRegime string) float64 {
	if orderTimeframe == "" || marketRegime == "" {
		return 0.5
	}
	if orderTimeframe == marketRegime {
		return 1
	}
	if t == nil {
		return 0.5
	}
	if row, ok := t.scores[orderTimeframe]; ok {
		if v, ok := row[marketRegime]; ok {
			return v
		}
	}
	return 0.5
}
