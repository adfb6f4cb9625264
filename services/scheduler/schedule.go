package scheduler

import (
	"fmt"
	"time"
)

// Schedule decides when a job runs next, given the time its last run
// finished (or the scheduler started).
type Schedule interface {
	Next(after time.Time) time.Time
	String() string
}

type every time.Duration

// Every runs a job period after its previous run finished.
func Every(period time.Duration) Schedule { return every(period) }

func (e every) Next(after time.Time) time.Time { return after.Add(time.Duration(e)) }

func (e every) String() string { return "every " + time.Duration(e).String() }

type daily struct {
	hour, minute int
	loc          *time.Location
}

// Daily runs a job at hour:minute wall-clock time in loc.
func Daily(hour, minute int, loc *time.Location) Schedule {
	if loc == nil {
		loc = time.UTC
	}
	return daily{hour: hour, minute: minute, loc: loc}
}

func (d daily) Next(after time.Time) time.Time {
	t := after.In(d.loc)
	next := time.Date(t.Year(), t.Month(), t.Day(), d.hour, d.minute, 0, 0, d.loc)
	if !next.After(t) {
		next = time.Date(t.Year(), t.Month(), t.Day()+1, d.hour, d.minute, 0, 0, d.loc)
	}
	return next
}

func (d daily) String() string {
	return fmt.Sprintf("daily at %02d:%02d %s", d.hour, d.minute, d.loc)
}
