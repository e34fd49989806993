package prioritize

// SetupStats is the historical performance record of one trading setup.
type SetupStats struct {
	Trades       int
	WinRate      float64
	ProfitFactor float64
}

// SetupStatsProvider looks up historical performance by setup tag.
type SetupStatsProvider interface {
	SetupStats(setup string) (SetupStats, bool)
}

// BiasThresholds gate when historical stats are trusted enough to
// move a score away from neutral.
type BiasThresholds struct {
	MinTradesForBias int     `json:"minTradesForBias"`
	MinWinRate       float64 `json:"minWinRate"`
	MinProfitFactor  float64 `json:"minProfitFactor"`
}

const neutralBias = 0.5

// setupBiasScore maps a setup's history to [0,1]. Untagged setups and
// thin samples stay neutral.
func setupBiasScore(setup string, provider SetupStatsProvider, thresholds BiasThresholds) float64 {
	if setup == "" || provider == nil {
		return neutralBias
	}
	stats, ok := provider.SetupStats(setup)
	if !ok || stats.Trades < thresholds.MinTradesForBias {
		return neutralBias
	}

	if stats.WinRate >= thresholds.MinWinRate && stats.ProfitFactor >= thresholds.MinProfitFactor {
		denom := 1 - thresholds.MinWinRate
		if denom <= 0 {
			return 1
		}
		return neutralBias + neutralBias*clamp01((stats.WinRate-thresholds.MinWinRate)/denom)
	}

	if thresholds.MinWinRate <= 0 {
		return neutralBias
	}
	return neutralBias * clamp01(stats.WinRate/thresholds.MinWinRate)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
