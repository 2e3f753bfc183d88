package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Summary holds the derived figures of one contract, recomputed from the
// payment and progress logs on every read.
type Summary struct {
	ContractID         string          `json:"contract_id"`
	Status             ContractStatus  `json:"status"`
	TotalValue         decimal.Decimal `json:"total_value"`
	PaidToDate         decimal.Decimal `json:"paid_to_date"`
	RemainingBalance   decimal.Decimal `json:"remaining_balance"`
	PaymentComplete    bool            `json:"payment_complete"`
	PaymentCompletion  float64         `json:"payment_completion"`
	ProgressCompletion int             `json:"progress_completion"`
	HighestProgress    *ProgressStatus `json:"highest_progress"`
	LatestProgress     *ProgressEntry  `json:"latest_progress"`
	OverallCompletion  float64         `json:"overall_completion"`
}

type ContractReport struct {
	Contract Contract
	Summary  Summary
}

// SettlementExport is the input of the admin workbook.
type SettlementExport struct {
	GeneratedAt time.Time
	Contracts   []ContractReport
	Payments    []PaymentEntry
	Progress    []ProgressEntry
}
