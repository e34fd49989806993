package prioritize

import (
	"sort"

	"github.com/yanun0323/logs"

	"github.com/robinmaple/trading-automation-sub002/internal/model"
)

// CapitalEstimator computes the capital a candidate would commit if
// executed, typically backed by the bracket builder.
type CapitalEstimator func(order model.PlannedOrder, totalCapital float64) (float64, error)

// Limits bound what one allocation pass may commit.
type Limits struct {
	MaxOpenOrders int
	// MaxCapitalUtilization is the fraction of total capital the
	// allocated set may cumulatively commit, in (0, 1].
	MaxCapitalUtilization float64
}

// Engine ranks eligible candidates with a weighted multi-criteria score
// and allocates them against the capital and order-count budgets.
//
// Layer 1 drops candidates below the profile's fill-probability gate;
// layer 2 ranks the survivors and walks the ranking greedily.
type Engine struct {
	profile    Profile
	timeframes *TimeframeTable
	stats      SetupStatsProvider
	thresholds BiasThresholds
	estimate   CapitalEstimator
	limits     Limits
}

// NewEngine wires a prioritization engine. The profile must already be
// validated at config load.
func NewEngine(profile Profile, timeframes *TimeframeTable, stats SetupStatsProvider, thresholds BiasThresholds, estimate CapitalEstimator, limits Limits) *Engine {
	return &Engine{
		profile:    profile,
		timeframes: timeframes,
		stats:      stats,
		thresholds: thresholds,
		estimate:   estimate,
		limits:     limits,
	}
}

// Prioritize gates, scores, ranks and allocates the candidate set.
// Unallocated candidates are skipped this cycle, not rejected forever.
func (e *Engine) Prioritize(candidates []model.Candidate, totalCapital float64, marketRegime string) []model.ScoredCandidate {
	viable := make([]model.ScoredCandidate, 0, len(candidates))
	maxPriority := 1
	for _, c := range candidates {
		if c.FillProbability < e.profile.MinFillProbability {
			continue
		}
		if c.Order.Priority > maxPriority {
			maxPriority = c.Order.Priority
		}
		viable = append(viable, model.ScoredCandidate{Candidate: c})
	}

	for i := range viable {
		sc := &viable[i]
		commitment, err := e.estimate(sc.Order, totalCapital)
		if err != nil {
			// Estimation failures surface again at execution time
			// with a reason; score the candidate to the bottom.
			logs.Warnf("capital estimate failed for %s, err: %+v", sc.Order.Symbol, err)
			sc.Score = 0
			continue
		}
		sc.CapitalCommitment = commitment
		sc.Score = e.score(sc.Order, totalCapital, commitment, maxPriority, marketRegime)
	}

	rankStable(viable)
	e.allocate(viable, totalCapital)
	return viable
}

func (e *Engine) score(order model.PlannedOrder, totalCapital, commitment float64, maxPriority int, marketRegime string) float64 {
	w := e.profile.Weights

	manual := float64(order.Priority) / float64(maxPriority)
	riskReward := clamp01(order.RiskRewardRatio / 3)
	timeframe := e.timeframes.Score(order.Timeframe, marketRegime)
	bias := setupBiasScore(order.TradingSetup, e.stats, e.thresholds)

	// Reward produced per unit of committed capital.
	efficiency := 0.0
	if commitment > 0 && order.HasEntry() && order.HasStop() {
		riskSpan := order.EntryPrice - order.StopLoss
		if riskSpan < 0 {
			riskSpan = -riskSpan
		}
		efficiency = clamp01(riskSpan * order.RiskRewardRatio / order.EntryPrice * 10)
	}

	return w.ManualPriority*clamp01(manual) +
		w.Efficiency*efficiency +
		w.RiskReward*riskReward +
		w.TimeframeMatch*timeframe +
		w.SetupBias*bias
}

// rankStable orders by score descending with the deterministic
// tie-break chain: fill probability, manual priority, insertion order.
func rankStable(scored []model.ScoredCandidate) {
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.FillProbability != b.FillProbability {
			return a.FillProbability > b.FillProbability
		}
		return a.Order.Priority > b.Order.Priority
	})
}

func (e *Engine) allocate(scored []model.ScoredCandidate, totalCapital float64) {
	budget := totalCapital
	if e.limits.MaxCapitalUtilization > 0 && e.limits.MaxCapitalUtilization <= 1 {
		budget = totalCapital * e.limits.MaxCapitalUtilization
	}

	allocated := 0
	committed := 0.0
	for i := range scored {
		sc := &scored[i]
		if sc.CapitalCommitment <= 0 {
			continue
		}
		if e.limits.MaxOpenOrders > 0 && allocated >= e.limits.MaxOpenOrders {
			continue
		}
		if committed+sc.CapitalCommitment > budget {
			continue
		}
		sc.Allocated = true
		allocated++
		committed += sc.CapitalCommitment
	}
}
