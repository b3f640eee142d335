package scheduler

import (
	"fmt"
	"time"

	"github.com/couchcryptid/outage-alert-service/internal/domain"
)

// ValidateInterval checks an interval descriptor.
func ValidateInterval(iv domain.Interval) error {
	switch iv.Type {
	case domain.IntervalMinutely, domain.IntervalHourly, domain.IntervalDaily, domain.IntervalWeekly:
	default:
		return fmt.Errorf("unknown interval type %q", iv.Type)
	}
	if iv.Value < 1 {
		return fmt.Errorf("interval value must be at least 1, got %d", iv.Value)
	}
	if iv.TimeOfDay != "" {
		if _, err := time.Parse("15:04", iv.TimeOfDay); err != nil {
			return fmt.Errorf("time of day %q: want HH:MM", iv.TimeOfDay)
		}
	}
	return nil
}

// Due reports whether a task whose previous run was at last should run at
// now. A zero last means the task never ran.
//
// Minutely and hourly tasks are due once the period has elapsed. Daily and
// weekly tasks with a time of day are due from that time on the day the
// period ends; without one they behave like the shorter units. Invalid
// intervals are never due.
func Due(iv domain.Interval, last, now time.Time) bool {
	if ValidateInterval(iv) != nil {
		return false
	}

	anchored := iv.TimeOfDay != "" && (iv.Type == domain.IntervalDaily || iv.Type == domain.IntervalWeekly)
	if last.IsZero() {
		if !anchored {
			return true
		}
		return !now.Before(atTimeOfDay(now, iv.TimeOfDay))
	}

	switch iv.Type {
	case domain.IntervalMinutely:
		return now.Sub(last) >= time.Duration(iv.Value)*time.Minute
	case domain.IntervalHourly:
		return now.Sub(last) >= time.Duration(iv.Value)*time.Hour
	}

	days := iv.Value
	if iv.Type == domain.IntervalWeekly {
		days *= 7
	}
	if !anchored {
		return now.Sub(last) >= time.Duration(days)*24*time.Hour
	}
	last = last.In(now.Location())
	next := atTimeOfDay(last.AddDate(0, 0, days), iv.TimeOfDay)
	return !now.Before(next)
}

// atTimeOfDay returns t's date at hh:mm. hhmm must already be valid.
func atTimeOfDay(t time.Time, hhmm string) time.Time {
	tod, _ := time.Parse("15:04", hhmm)
	y, m, d := t.Date()
	return time.Date(y, m, d, tod.Hour(), tod.Minute(), 0, 0, t.Location())
}
