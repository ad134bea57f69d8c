package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/enums"
)

// LedgerEntry is an append-only monetary record. Only its status changes.
type LedgerEntry struct {
	ID                 uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	AccountID          uuid.UUID               `gorm:"column:account_id;type:uuid;not null;index"`
	Amount             int                     `gorm:"column:amount;not null"`
	Type               enums.LedgerEntryType   `gorm:"column:type;type:ledger_entry_type;not null"`
	Status             enums.LedgerEntryStatus `gorm:"column:status;type:ledger_entry_status;not null"`
	MobilePayReference *int64                  `gorm:"column:mobile_pay_reference"`
	CreatedAt          time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

func (e *LedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
