package bus

import (
	"sync"

	"github.com/yanun0323/logs"
)

// DefaultSubscriberCap bounds subscribers per event kind.
const DefaultSubscriberCap = 50

// Handler consumes one event. Handlers run on the publisher's goroutine
// and must not block for long.
type Handler func(Event)

type subscriber struct {
	id      uint64
	handler Handler
}

// Bus is a many-to-many in-process publish/subscribe hub.
//
// Publish fans out synchronously; each handler invocation is isolated so
// one panicking subscriber never reaches the publisher or starves the
// rest. The subscriber set is copied out before dispatch, so handlers may
// subscribe and unsubscribe freely during a fan-out.
type Bus struct {
	mu     sync.Mutex
	cap    int
	nextID uint64
	subs   map[Kind][]subscriber
	all    []subscriber
}

// New creates a bus with the given per-kind subscriber cap.
// cap <= 0 falls back to DefaultSubscriberCap.
func New(cap int) *Bus {
	if cap <= 0 {
		cap = DefaultSubscriberCap
	}
	return &Bus{
		cap:  cap,
		subs: make(map[Kind][]subscriber),
	}
}

// Subscribe registers a handler for one event kind.
// It reports false when the kind's subscriber cap is reached.
func (b *Bus) Subscribe(kind Kind, handler Handler) (unsubscribe func(), ok bool) {
	if handler == nil || !kind.IsAvailable() {
		return nil, false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.subs[kind]) >= b.cap {
		return nil, false
	}

	b.nextID++
	id := b.nextID
	b.subs[kind] = append(b.subs[kind], subscriber{id: id, handler: handler})
	return func() { b.remove(kind, id) }, true
}

// SubscribeAll registers a handler for every event kind.
func (b *Bus) SubscribeAll(handler Handler) (unsubscribe func(), ok bool) {
	if handler == nil {
		return nil, false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.all) >= b.cap {
		return nil, false
	}

	b.nextID++
	id := b.nextID
	b.all = append(b.all, subscriber{id: id, handler: handler})
	return func() { b.remove(_kind_beg, id) }, true
}

// Publish delivers the event to every matching subscriber. It never
// panics and never returns an error; failed handlers are logged.
func (b *Bus) Publish(e Event) {
	if e == nil {
		return
	}

	b.mu.Lock()
	targets := make([]subscriber, 0, len(b.subs[e.Kind()])+len(b.all))
	targets = append(targets, b.subs[e.Kind()]...)
	targets = append(targets, b.all...)
	b.mu.Unlock()

	for _, sub := range targets {
		dispatch(sub, e)
	}
}

// SubscriberCount returns the number of handlers registered for a kind,
// excluding subscribe-all handlers.
func (b *Bus) SubscriberCount(kind Kind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[kind])
}

func dispatch(sub subscriber, e Event) {
	defer func() {
		if r := recover(); r != nil {
			logs.Errorf("event handler panicked, kind: %s, recovered: %+v", e.Kind(), r)
		}
	}()
	sub.handler(e)
}

func (b *Bus) remove(kind Kind, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if kind.IsAvailable() {
		b.subs[kind] = removeByID(b.subs[kind], id)
		return
	}
	b.all = removeByID(b.all, id)
}

func removeByID(subs []subscriber, id uint64) []subscriber {
	for i, sub := range subs {
		if sub.id == id {
			return append(subs[:i:i], subs[i+1:]...)
		}
	}
	return subs
}
