package notify

import (
	"context"

	"github.com/yanun0323/logs"
)

// Log is the always-on sink writing notifications to the process log.
type Log struct{}

func (Log) Send(_ context.Context, text string) error {
	logs.Info(text)
	return nil
}
