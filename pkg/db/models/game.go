package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Game is one weekly round identified by its ISO (year, week).
type Game struct {
	ID                uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Year              int        `gorm:"column:year;not null;uniqueIndex:ux_games_year_week,priority:1"`
	WeekNumber        int        `gorm:"column:week_number;not null;uniqueIndex:ux_games_year_week,priority:2"`
	StartTime         time.Time  `gorm:"column:start_time;not null"`
	BetDeadline       time.Time  `gorm:"column:bet_deadline;not null"`
	DrawDate          *time.Time `gorm:"column:draw_date"`
	WinningNumbers    *string    `gorm:"column:winning_numbers"`
	InPersonWinners   *int       `gorm:"column:in_person_winners"`
	InPersonPrizePool *int       `gorm:"column:in_person_prize_pool"`
	DrawnAt           *time.Time `gorm:"column:drawn_at"`
	DrawnBy           *uuid.UUID `gorm:"column:drawn_by;type:uuid"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (g *Game) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// IsDrawn reports whether winning numbers have been fixed.
func (g Game) IsDrawn() bool {
	return g.WinningNumbers != nil
}

// CanBet reports whether wagers may still attach to the game at now.
func (g Game) CanBet(now time.Time) bool {
	return g.WinningNumbers == nil && now.Before(g.BetDeadline)
}
