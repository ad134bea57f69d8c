package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Settlement records the prize distribution of a drawn game. One row per game.
type Settlement struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	GameID          uuid.UUID  `gorm:"column:game_id;type:uuid;not null;uniqueIndex:ux_settlements_game"`
	Revenue         int        `gorm:"column:revenue;not null"`
	PrizePool       int        `gorm:"column:prize_pool;not null"`
	DigitalWinners  int        `gorm:"column:digital_winners;not null"`
	InPersonWinners int        `gorm:"column:in_person_winners;not null"`
	ShareAmount     int        `gorm:"column:share_amount;not null"`
	Remainder       int        `gorm:"column:remainder;not null"`
	RemainderBetID  *uuid.UUID `gorm:"column:remainder_bet_id;type:uuid"`
	SettledBy       uuid.UUID  `gorm:"column:settled_by;type:uuid;not null"`
	SettledAt       time.Time  `gorm:"column:settled_at;not null"`
}

func (s *Settlement) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
