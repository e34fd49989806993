package notify

import (
	"context"

	"github.com/yanun0323/logs"

	"github.com/robinmaple/trading-automation-sub002/internal/bus"
)

// DefaultQueueSize bounds how many pending notifications may pile up
// before new ones are dropped.
const DefaultQueueSize = 256

// Sink delivers one formatted notification.
type Sink interface {
	Send(ctx context.Context, text string) error
}

// Notifier bridges bus events to slow delivery channels. Events pass
// through a bounded queue so a stalled sink never blocks the
// synchronous bus fan-out.
type Notifier struct {
	queue *bus.Queue
	sinks []Sink
}

func New(sinks ...Sink) *Notifier {
	return &Notifier{
		queue: bus.NewQueue(DefaultQueueSize),
		sinks: sinks,
	}
}

// Attach subscribes the notifier to the event kinds worth telling a
// human about. Price updates are deliberately excluded.
func (n *Notifier) Attach(events *bus.Bus) bool {
	ok := true
	for _, kind := range []bus.Kind{bus.KindOrderStatus, bus.KindExecution, bus.KindDiscrepancy} {
		if _, subscribed := events.Subscribe(kind, n.enqueue); !subscribed {
			ok = false
		}
	}
	return ok
}

func (n *Notifier) enqueue(e bus.Event) {
	if err := n.queue.TryPublish(e); err != nil {
		logs.Warnf("notification dropped, err: %+v", err)
	}
}

// Run drains the queue until ctx ends. Sink failures are logged and
// never retried; the next event supersedes.
func (n *Notifier) Run(ctx context.Context) {
	n.queue.Run(ctx, func(e bus.Event) {
		text, ok := Format(e)
		if !ok {
			return
		}
		for _, sink := range n.sinks {
			if err := sink.Send(ctx, text); err != nil {
				logs.Errorf("notification send failed, err: %+v", err)
			}
		}
	})
}

// Close stops accepting events; Run exits once the queue drains.
func (n *Notifier) Close() {
	n.queue.Close()
}
