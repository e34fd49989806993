package enum

import "strings"

// TickKind classifies the price field carried by a tick.
type TickKind uint8

const (
	_tick_kind_beg TickKind = iota
	TickKindBid
	TickKindAsk
	TickKindLast
	TickKindOther
	_tick_kind_end
)

func (k TickKind) IsAvailable() bool {
	return k > _tick_kind_beg && k < _tick_kind_end
}

func (k TickKind) String() string {
	switch k {
	case TickKindBid:
		return "BID"
	case TickKindAsk:
		return "ASK"
	case TickKindLast:
		return "LAST"
	default:
		return "OTHER"
	}
}

// IsTradable reports whether the tick kind should update a snapshot.
func (k TickKind) IsTradable() bool {
	switch k {
	case TickKindBid, TickKindAsk, TickKindLast:
		return true
	default:
		return false
	}
}

// AccountKind paper or real money
type AccountKind uint8

const (
	_account_kind_beg AccountKind = iota
	AccountKindPaper
	AccountKindLive
	_account_kind_end
)

func (k AccountKind) IsAvailable() bool {
	return k > _account_kind_beg && k < _account_kind_end
}

func (k AccountKind) String() string {
	switch k {
	case AccountKindPaper:
		return "PAPER"
	case AccountKindLive:
		return "LIVE"
	default:
		return "UNKNOWN"
	}
}

func ParseAccountKind(s string) (AccountKind, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PAPER":
		return AccountKindPaper, true
	case "LIVE":
		return AccountKindLive, true
	default:
		return _account_kind_beg, false
	}
}

// DataGranularity market data request granularity, ordered from most
// immediate to most degraded.
type DataGranularity uint8

const (
	_data_granularity_beg DataGranularity = iota
	DataGranularityRealTime
	DataGranularityFrozen
	DataGranularityDelayed
	DataGranularityDelayedFrozen
	_data_granularity_end
)

func (g DataGranularity) IsAvailable() bool {
	return g > _data_granularity_beg && g < _data_granularity_end
}

func (g DataGranularity) String() string {
	switch g {
	case DataGranularityRealTime:
		return "REALTIME"
	case DataGranularityFrozen:
		return "FROZEN"
	case DataGranularityDelayed:
		return "DELAYED"
	case DataGranularityDelayedFrozen:
		return "DELAYED_FROZEN"
	default:
		return "UNKNOWN"
	}
}

// Degrade returns the next coarser granularity, stopping at the coarsest.
func (g DataGranularity) Degrade() DataGranularity {
	if g >= DataGranularityDelayedFrozen {
		return DataGranularityDelayedFrozen
	}
	return g + 1
}
