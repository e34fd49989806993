package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/robinmaple/trading-automation-sub002/internal/model/enum"
)

type fixedCalendar bool

func (c fixedCalendar) IsOpen(time.Time) bool { return bool(c) }

func TestGranularityPolicyPaperAlwaysFrozen(t *testing.T) {
	policy := NewGranularityPolicy(enum.AccountKindPaper, fixedCalendar(true))
	assert.Equal(t, enum.DataGranularityDelayedFrozen, policy.For("AAPL", time.Now()))
}

func TestGranularityPolicyFollowsMarketHours(t *testing.T) {
	now := time.Now()

	open := NewGranularityPolicy(enum.AccountKindLive, fixedCalendar(true))
	assert.Equal(t, enum.DataGranularityRealTime, open.For("AAPL", now))

	closed := NewGranularityPolicy(enum.AccountKindLive, fixedCalendar(false))
	assert.Equal(t, enum.DataGranularityFrozen, closed.For("AAPL", now))
}

func TestGranularityPolicyDegradesAfterErrors(t *testing.T) {
	policy := NewGranularityPolicy(enum.AccountKindLive, fixedCalendar(true))
	now := time.Now()

	for i := 0; i < errorsPerDowngrade; i++ {
		policy.RecordError("AAPL")
	}
	assert.Equal(t, enum.DataGranularityRealTime.Degrade(), policy.For("AAPL", now))

	// Other symbols keep their full granularity.
	assert.Equal(t, enum.DataGranularityRealTime, policy.For("MSFT", now))
}
