package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentEntry is one milestone payment. Position is the 1-based insertion
// order within the contract and is the ledger's canonical order.
type PaymentEntry struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ContractID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_payment_position,priority:1"`
	Position        int             `gorm:"not null;uniqueIndex:uq_payment_position,priority:2"`
	Amount          decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	OccurredOn      time.Time       `gorm:"type:date;not null"`
	ReferenceNumber *string         `gorm:"type:varchar(255)"`
	Receipt         *string         `gorm:"type:varchar(80)"`
	Description     string          `gorm:"type:text"`
	RecordedBy      uuid.UUID       `gorm:"type:uuid;not null"`
	CreatedAt       time.Time       `gorm:"not null"`
}

func (PaymentEntry) TableName() string {
	return "payment_entries"
}
