package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Bet is a wager on one game funded by exactly one purchase ledger entry.
type Bet struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	AccountID       uuid.UUID  `gorm:"column:account_id;type:uuid;not null;index"`
	GameID          uuid.UUID  `gorm:"column:game_id;type:uuid;not null;index"`
	LedgerEntryID   uuid.UUID  `gorm:"column:ledger_entry_id;type:uuid;not null;uniqueIndex:ux_bets_ledger_entry"`
	SelectedNumbers string     `gorm:"column:selected_numbers;not null"`
	NumberCount     int        `gorm:"column:number_count;not null"`
	Price           int        `gorm:"column:price;not null"`
	IsWinning       bool       `gorm:"column:is_winning;not null;default:false"`
	Winnings        int        `gorm:"column:winnings;not null;default:0"`
	SeriesID        *uuid.UUID `gorm:"column:series_id;type:uuid;index"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	DeletedAt       *time.Time `gorm:"column:deleted_at"`
}

func (b *Bet) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
