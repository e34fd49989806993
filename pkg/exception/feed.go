package exception

import "github.com/yanun0323/errors"

var (
	ErrFeedDisconnected    = errors.New("feed: not connected")
	ErrFeedSubscribeDenied = errors.New("feed: subscription permission denied")
	ErrFeedRecorderClosed  = errors.New("feed: recorder closed")
	ErrBrokerNotConnected  = errors.New("broker: not connected")
	ErrReconcilerStopped   = errors.New("reconcile: engine stopped after repeated failures")
)
