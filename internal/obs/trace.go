package obs

import (
	"sync/atomic"
	"time"
)

// BatchIDGenerator creates monotonically increasing ids for execution
// batches so log lines from one pass can be correlated.
type BatchIDGenerator struct {
	next uint64
}

// NewBatchIDGenerator returns a generator seeded with the given value.
func NewBatchIDGenerator(seed uint64) *BatchIDGenerator {
	if seed == 0 {
		seed = uint64(time.Now().UTC().UnixNano())
	}
	return &BatchIDGenerator{next: seed}
}

// Next returns the next batch id.
func (g *BatchIDGenerator) Next() uint64 {
	if g == nil {
		return 0
	}
	return atomic.AddUint64(&g.next, 1)
}
