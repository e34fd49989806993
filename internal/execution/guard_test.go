package execution

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robinmaple/trading-automation-sub002/internal/model"
	"github.com/robinmaple/trading-automation-sub002/pkg/exception"
)

func TestGuardSingleWinnerUnderContention(t *testing.T) {
	guard := NewGuard(time.Minute)
	key := model.IdentityKey("AAPL|BUY|100.0000|95.0000")

	const workers = 32
	var acquired atomic.Int64
	var wg sync.WaitGroup
	start := make(chan struct{})

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			if guard.Acquire(key) == nil {
				acquired.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int64(1), acquired.Load())
	assert.True(t, guard.InProgress(key))
}

func TestGuardCooldownAfterRelease(t *testing.T) {
	current := time.Now()
	guard := NewGuard(5 * time.Second).WithClock(func() time.Time { return current })
	key := model.IdentityKey("MSFT|BUY|300.0000|290.0000")

	require.NoError(t, guard.Acquire(key))
	guard.Release(key)
	assert.False(t, guard.InProgress(key))

	// Inside the cooldown window, even a failed attempt blocks retries.
	assert.ErrorIs(t, guard.Acquire(key), exception.ErrExecutionCooldown)

	current = current.Add(6 * time.Second)
	assert.NoError(t, guard.Acquire(key))
}

func TestGuardRejectsWhileInProgress(t *testing.T) {
	guard := NewGuard(time.Second)
	key := model.IdentityKey("EUR.USD|BUY|1.1000|1.0900")

	require.NoError(t, guard.Acquire(key))
	assert.ErrorIs(t, guard.Acquire(key), exception.ErrExecutionInProgress)

	other := model.IdentityKey("GBP.USD|BUY|1.2500|1.2400")
	assert.NoError(t, guard.Acquire(other))
}
