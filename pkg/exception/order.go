package exception

import "github.com/yanun0323/errors"

var (
	ErrOrderValidation     = errors.New("order: validation failed")
	ErrOrderNotFound       = errors.New("order: not found")
	ErrOrderTerminal       = errors.New("order: already terminal")
	ErrOrderDuplicate      = errors.New("order: already tracked")
	ErrBracketParams       = errors.New("order: invalid bracket risk parameters")
	ErrExecutionInProgress = errors.New("execution: attempt already in progress")
	ErrExecutionCooldown   = errors.New("execution: cooldown active")
	ErrBrokerSubmission    = errors.New("broker: submission rejected")
	ErrCancellationFailed  = errors.New("broker: cancellation failed")
)
