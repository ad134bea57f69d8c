package games

import (
	"fmt"
	"time"

	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/config"
)

// Schedule is the set of instants a weekly policy assigns to one ISO week.
type Schedule struct {
	Start    time.Time
	Deadline time.Time
	Draw     time.Time
}

// Policy derives game timestamps from ISO weeks in a fixed timezone.
type Policy struct {
	loc             *time.Location
	deadlineWeekday int
	deadlineClock   time.Duration
	drawWeekday     int
	drawClock       time.Duration
}

// NewPolicy builds the weekly policy from lottery configuration.
func NewPolicy(cfg config.LotteryConfig) (*Policy, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	deadline, err := config.ParseClock(cfg.DeadlineTime)
	if err != nil {
		return nil, fmt.Errorf("deadline time: %w", err)
	}
	draw, err := config.ParseClock(cfg.DrawTime)
	if err != nil {
		return nil, fmt.Errorf("draw time: %w", err)
	}
	p := &Policy{
		loc:             loc,
		deadlineWeekday: cfg.DeadlineWeekday,
		deadlineClock:   deadline,
		drawWeekday:     cfg.DrawWeekday,
		drawClock:       draw,
	}
	probe := p.Schedule(Week{Year: 2026, Number: 1})
	if !probe.Deadline.Before(probe.Draw) {
		return nil, fmt.Errorf("bet deadline must fall before the draw")
	}
	return p, nil
}

// Location is the timezone weeks are evaluated in.
func (p *Policy) Location() *time.Location {
	return p.loc
}

// Schedule returns the UTC start, deadline and draw instants for w.
func (p *Policy) Schedule(w Week) Schedule {
	monday := w.Monday(p.loc)
	return Schedule{
		Start:    monday.UTC(),
		Deadline: p.at(monday, p.deadlineWeekday, p.deadlineClock),
		Draw:     p.at(monday, p.drawWeekday, p.drawClock),
	}
}

// at resolves a wall-clock time on the given ISO weekday so DST shifts
// within the week keep the configured local hour.
func (p *Policy) at(monday time.Time, weekday int, clock time.Duration) time.Time {
	hours := int(clock / time.Hour)
	minutes := int((clock % time.Hour) / time.Minute)
	return time.Date(monday.Year(), monday.Month(), monday.Day()+weekday-1, hours, minutes, 0, 0, p.loc).UTC()
}

// WeekAt returns the ISO week containing t in the policy timezone.
func (p *Policy) WeekAt(t time.Time) Week {
	return WeekOf(t.In(p.loc))
}
