package games

import (
	"fmt"
	"time"
)

// Week identifies an ISO-8601 week.
type Week struct {
	Year   int
	Number int
}

// WeekOf returns the ISO week containing t in t's location.
func WeekOf(t time.Time) Week {
	year, week := t.ISOWeek()
	return Week{Year: year, Number: week}
}

// Monday returns 00:00 on the Monday of the week in loc.
func (w Week) Monday(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	// January 4th always falls in ISO week 1.
	jan4 := time.Date(w.Year, time.January, 4, 0, 0, 0, 0, loc)
	offset := isoWeekday(jan4) - 1
	return time.Date(w.Year, time.January, 4-offset+(w.Number-1)*7, 0, 0, 0, 0, loc)
}

// Next returns the following ISO week, rolling over 52- and 53-week years.
func (w Week) Next() Week {
	return WeekOf(w.Monday(time.UTC).AddDate(0, 0, 7))
}

// Compare returns -1, 0 or 1 when w is before, equal to or after other.
func (w Week) Compare(other Week) int {
	switch {
	case w.Year < other.Year:
		return -1
	case w.Year > other.Year:
		return 1
	case w.Number < other.Number:
		return -1
	case w.Number > other.Number:
		return 1
	default:
		return 0
	}
}

func (w Week) String() string {
	return fmt.Sprintf("%04d-W%02d", w.Year, w.Number)
}

func isoWeekday(t time.Time) int {
	if t.Weekday() == time.Sunday {
		return 7
	}
	return int(t.Weekday())
}
