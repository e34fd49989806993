package enum

import "strings"

// SecurityType stock, currency pair, option, future
type SecurityType uint8

const (
	_security_type_beg SecurityType = iota
	SecurityTypeStock
	SecurityTypeCash
	SecurityTypeOption
	SecurityTypeFuture
	_security_type_end
)

func (t SecurityType) IsAvailable() bool {
	return t > _security_type_beg && t < _security_type_end
}

func (t SecurityType) String() string {
	switch t {
	case SecurityTypeStock:
		return "STK"
	case SecurityTypeCash:
		return "CASH"
	case SecurityTypeOption:
		return "OPT"
	case SecurityTypeFuture:
		return "FUT"
	default:
		return "UNKNOWN"
	}
}

// UnitMultiplier returns how many underlying units one traded unit represents.
func (t SecurityType) UnitMultiplier() float64 {
	if t == SecurityTypeOption {
		return 100
	}
	return 1
}

func ParseSecurityType(s string) (SecurityType, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "STK", "STOCK":
		return SecurityTypeStock, true
	case "CASH", "FOREX", "FX":
		return SecurityTypeCash, true
	case "OPT", "OPTION":
		return SecurityTypeOption, true
	case "FUT", "FUTURE":
		return SecurityTypeFuture, true
	default:
		return _security_type_beg, false
	}
}

// PositionStrategy day, core, hybrid
type PositionStrategy uint8

const (
	_position_strategy_beg PositionStrategy = iota
	PositionStrategyDay
	PositionStrategyCore
	PositionStrategyHybrid
	_position_strategy_end
)

func (p PositionStrategy) IsAvailable() bool {
	return p > _position_strategy_beg && p < _position_strategy_end
}

func (p PositionStrategy) String() string {
	switch p {
	case PositionStrategyDay:
		return "DAY"
	case PositionStrategyCore:
		return "CORE"
	case PositionStrategyHybrid:
		return "HYBRID"
	default:
		return "UNKNOWN"
	}
}

func ParsePositionStrategy(s string) (PositionStrategy, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DAY":
		return PositionStrategyDay, true
	case "CORE":
		return PositionStrategyCore, true
	case "HYBRID":
		return PositionStrategyHybrid, true
	default:
		return _position_strategy_beg, false
	}
}
