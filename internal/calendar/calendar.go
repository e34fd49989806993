// Package calendar answers market-session questions for granularity
// selection and order-expiry sweeps.
package calendar

import (
	"time"

	"github.com/yanun0323/errors"
)

const (
	openHour   = 9
	openMinute = 30
	closeHour  = 16
	exchangeTZ = "America/New_York"
)

// USEquities models the regular NYSE/NASDAQ session, 09:30-16:00
// exchange time on weekdays. Exchange holidays are not modelled; on a
// holiday the feed stays quiet and the loops simply idle.
type USEquities struct {
	loc *time.Location
}

func NewUSEquities() (*USEquities, error) {
	loc, err := time.LoadLocation(exchangeTZ)
	if err != nil {
		return nil, errors.Wrap(err, "load exchange timezone")
	}
	return &USEquities{loc: loc}, nil
}

// IsOpen reports whether the regular session is trading at t.
func (c *USEquities) IsOpen(t time.Time) bool {
	local := t.In(c.loc)
	if isWeekend(local) {
		return false
	}

	open := time.Date(local.Year(), local.Month(), local.Day(), openHour, openMinute, 0, 0, c.loc)
	sessionClose := time.Date(local.Year(), local.Month(), local.Day(), closeHour, 0, 0, 0, c.loc)
	return !local.Before(open) && local.Before(sessionClose)
}

// SessionEnd returns the close of the session governing t: that day's
// close until it passes, then the next trading day's close.
func (c *USEquities) SessionEnd(t time.Time) time.Time {
	local := t.In(c.loc)
	end := time.Date(local.Year(), local.Month(), local.Day(), closeHour, 0, 0, 0, c.loc)
	for !local.Before(end) || isWeekend(end) {
		end = end.AddDate(0, 0, 1)
	}
	return end
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
