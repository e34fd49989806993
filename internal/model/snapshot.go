package model

import (
	"time"

	"github.com/robinmaple/trading-automation-sub002/internal/model/enum"
)

// SnapshotHistoryCap bounds the per-symbol price history ring.
const SnapshotHistoryCap = 100

// PricePoint is one entry of a snapshot's bounded history.
type PricePoint struct {
	Price     float64
	Timestamp time.Time
}

// PriceSnapshot is the tracker-owned view of a symbol's latest price.
// Callers receive copies and must not retain references into History.
type PriceSnapshot struct {
	Symbol       string
	Price        float64
	Timestamp    time.Time
	TickKind     enum.TickKind
	UpdatesCount uint64
	History      []PricePoint
}

// PushHistory appends a point, evicting the oldest beyond the cap.
func (s *PriceSnapshot) PushHistory(p PricePoint) {
	s.History = append(s.History, p)
	if len(s.History) > SnapshotHistoryCap {
		s.History = s.History[len(s.History)-SnapshotHistoryCap:]
	}
}

// Clone returns an independent copy safe to hand outside the tracker lock.
func (s *PriceSnapshot) Clone() PriceSnapshot {
	out := *s
	out.History = make([]PricePoint, len(s.History))
	copy(out.History, s.History)
	return out
}

// Position is one open broker position.
type Position struct {
	Symbol   string
	Strategy enum.PositionStrategy
	Quantity float64
	AvgCost  float64
	OpenedAt time.Time
}
