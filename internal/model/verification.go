package model

import (
	"time"

	"github.com/google/uuid"
)

// VerificationEvent records one verification attempt. Only one event per
// contract may have Succeeded set.
type VerificationEvent struct {
	ID                    uuid.UUID `gorm:"type:uuid;primaryKey"`
	ContractID            uuid.UUID `gorm:"type:uuid;not null;index"`
	BiometricMatch        bool      `gorm:"not null"`
	PayoutArtifactPresent bool      `gorm:"not null"`
	PayoutArtifact        *string   `gorm:"type:varchar(80)"`
	Succeeded             bool      `gorm:"not null"`
	DecidedAt             time.Time `gorm:"not null"`
}

func (VerificationEvent) TableName() string {
	return "verification_events"
}

func (e VerificationEvent) Passed() bool {
	return e.BiometricMatch && e.PayoutArtifactPresent
}
