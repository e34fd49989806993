package prioritize

import (
	"math"

	"github.com/yanun0323/errors"

	"github.com/robinmaple/trading-automation-sub002/pkg/exception"
)

// WeightSumTolerance is the allowed deviation of a profile's weight sum
// from 1.0 at load time.
const WeightSumTolerance = 0.001

// Weights are the multi-criteria scoring weights of one profile.
type Weights struct {
	ManualPriority float64 `json:"manualPriority"`
	Efficiency     float64 `json:"efficiency"`
	RiskReward     float64 `json:"riskReward"`
	TimeframeMatch float64 `json:"timeframeMatch"`
	SetupBias      float64 `json:"setupBias"`
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.ManualPriority + w.Efficiency + w.RiskReward + w.TimeframeMatch + w.SetupBias
}

// Profile is a named weight set with its viability gate.
type Profile struct {
	Name               string  `json:"name"`
	Weights            Weights `json:"weights"`
	MinFillProbability float64 `json:"minFillProbability"`
}

// Validate enforces the weight-sum invariant. An out-of-tolerance
// profile is a configuration error, never a runtime one.
func (p Profile) Validate() error {
	if p.Name == "" {
		return errors.Wrap(exception.ErrConfigInvalid, "profile name is empty")
	}
	sum := p.Weights.Sum()
	if math.Abs(sum-1.0) > WeightSumTolerance {
		return errors.Wrapf(exception.ErrConfigWeightSum, "profile %s sums to %.4f", p.Name, sum)
	}
	if p.MinFillProbability < 0 || p.MinFillProbability > 1 {
		return errors.Wrapf(exception.ErrConfigInvalid, "profile %s minFillProbability %.4f outside [0,1]", p.Name, p.MinFillProbability)
	}
	return nil
}

// BuiltinProfiles returns the shipped default, conservative and
// aggressive weight sets.
func BuiltinProfiles() map[string]Profile {
	return map[string]Profile{
		"default": {
			Name: "default",
			Weights: Weights{
				ManualPriority: 0.30,
				Efficiency:     0.20,
				RiskReward:     0.20,
				TimeframeMatch: 0.15,
				SetupBias:      0.15,
			},
			MinFillProbability: 0.4,
		},
		"conservative": {
			Name: "conservative",
			Weights: Weights{
				ManualPriority: 0.20,
				Efficiency:     0.15,
				RiskReward:     0.30,
				TimeframeMatch: 0.15,
				SetupBias:      0.20,
			},
			MinFillProbability: 0.5,
		},
		"aggressive": {
			Name: "aggressive",
			Weights: Weights{
				ManualPriority: 0.40,
				Efficiency:     0.25,
				RiskReward:     0.15,
				TimeframeMatch: 0.10,
				SetupBias:      0.10,
			},
			MinFillProbability: 0.3,
		},
	}
}
