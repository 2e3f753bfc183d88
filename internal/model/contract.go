package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ContractStatus string

const (
	ContractStatusProposed  ContractStatus = "PROPOSED"
	ContractStatusActive    ContractStatus = "ACTIVE"
	ContractStatusFulfilled ContractStatus = "FULFILLED"
	ContractStatusCancelled ContractStatus = "CANCELLED"
)

// IsTerminal reports whether no further writes are accepted in this status.
func (s ContractStatus) IsTerminal() bool {
	return s == ContractStatusFulfilled || s == ContractStatusCancelled
}

type Contract struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	GrowerID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	BuyerID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	CropID          *uuid.UUID      `gorm:"type:uuid"`
	UnitPrice       decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	Quantity        decimal.Decimal `gorm:"type:numeric(18,3);not null"`
	TotalValue      decimal.Decimal `gorm:"type:numeric(20,2);not null"` // fixed at creation
	DeliveryAddress string          `gorm:"type:text;not null"`
	DeliveryDate    time.Time       `gorm:"type:date;not null"`
	Terms           []string        `gorm:"serializer:json;type:text;not null"`
	Status          ContractStatus  `gorm:"type:varchar(16);not null;index"`
	CancelReason    *string         `gorm:"type:text"`
	ActivatedAt     *time.Time
	ClosedAt        *time.Time
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time
}

func (Contract) TableName() string {
	return "contracts"
}

// IsParty reports whether the user is the grower or the buyer of the contract.
func (c Contract) IsParty(userID uuid.UUID) bool {
	return c.GrowerID == userID || c.BuyerID == userID
}

// AgreementDocument is everything the agreement PDF renders.
type AgreementDocument struct {
	Contract Contract
	IssuedAt time.Time
}
