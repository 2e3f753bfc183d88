package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProgressStatus is a cultivation milestone. The order of the constants is
// the order of the milestones.
type ProgressStatus string

const (
	ProgressPlanted          ProgressStatus = "planted"
	ProgressGrowing          ProgressStatus = "growing"
	ProgressHarvested        ProgressStatus = "harvested"
	ProgressReadyForDelivery ProgressStatus = "ready_for_delivery"
	ProgressDelivered        ProgressStatus = "delivered"
)

var progressPercent = map[ProgressStatus]int{
	ProgressPlanted:          20,
	ProgressGrowing:          40,
	ProgressHarvested:        60,
	ProgressReadyForDelivery: 80,
	ProgressDelivered:        100,
}

// Percent returns the completion value of the milestone, 0 for unknown values.
func (s ProgressStatus) Percent() int {
	return progressPercent[s]
}

func (s ProgressStatus) Valid() bool {
	_, ok := progressPercent[s]
	return ok
}

func ParseProgressStatus(raw string) (ProgressStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	status := ProgressStatus(normalized)
	if !status.Valid() {
		return "", fmt.Errorf("unknown progress status %q", raw)
	}
	return status, nil
}

type ProgressEntry struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ContractID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uq_progress_position,priority:1" json:"contract_id"`
	Position   int            `gorm:"not null;uniqueIndex:uq_progress_position,priority:2" json:"position"`
	Status     ProgressStatus `gorm:"type:varchar(32);not null" json:"status"`
	ObservedOn time.Time      `gorm:"type:date;not null" json:"observed_on"`
	Notes      string         `gorm:"type:text" json:"notes"`
	Image      *string        `gorm:"type:varchar(80)" json:"image,omitempty"`
	RecordedBy uuid.UUID      `gorm:"type:uuid;not null" json:"recorded_by"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
}

func (ProgressEntry) TableName() string {
	return "progress_entries"
}
