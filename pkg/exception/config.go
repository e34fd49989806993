package exception

import "github.com/yanun0323/errors"

var (
	ErrConfigInvalid        = errors.New("config: invalid")
	ErrConfigWeightSum      = errors.New("config: weight profile does not sum to 1.0")
	ErrConfigUnknownProfile = errors.New("config: unknown weight profile")
	ErrConfigTimeframeTable = errors.New("config: timeframe compatibility table invalid")
)
