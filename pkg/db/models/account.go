package models

import (
	"time"

	"github.com/google/uuid"
)

// Account anchors row locks for an externally owned account id. It holds no
// balance; balances are always aggregated from ledger entries.
type Account struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
