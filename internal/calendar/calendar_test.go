package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCalendar(t *testing.T) *USEquities {
	t.Helper()
	c, err := NewUSEquities()
	require.NoError(t, err)
	return c
}

func TestIsOpenDuringRegularSession(t *testing.T) {
	c := newCalendar(t)
	loc := c.loc

	// Monday mid-session.
	assert.True(t, c.IsOpen(time.Date(2026, 3, 2, 11, 0, 0, 0, loc)))
	// Before the open.
	assert.False(t, c.IsOpen(time.Date(2026, 3, 2, 9, 29, 0, 0, loc)))
	// At the close.
	assert.False(t, c.IsOpen(time.Date(2026, 3, 2, 16, 0, 0, 0, loc)))
	// Saturday.
	assert.False(t, c.IsOpen(time.Date(2026, 3, 7, 11, 0, 0, 0, loc)))
}

func TestSessionEndRollsPastCloseAndWeekends(t *testing.T) {
	c := newCalendar(t)
	loc := c.loc

	// During Monday's session the same day's close applies.
	end := c.SessionEnd(time.Date(2026, 3, 2, 11, 0, 0, 0, loc))
	assert.Equal(t, time.Date(2026, 3, 2, 16, 0, 0, 0, loc), end)

	// After Friday's close the next session ends Monday.
	end = c.SessionEnd(time.Date(2026, 3, 6, 17, 0, 0, 0, loc))
	assert.Equal(t, time.Date(2026, 3, 9, 16, 0, 0, 0, loc), end)
}
