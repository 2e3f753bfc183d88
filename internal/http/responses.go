package http

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nurpe/greenpact-settlement/internal/model"
)

const dateLayout = "2006-01-02"

type contractResponse struct {
	ID              string               `json:"id"`
	GrowerID        string               `json:"grower_id"`
	BuyerID         string               `json:"buyer_id"`
	CropID          *string              `json:"crop_id,omitempty"`
	UnitPrice       decimal.Decimal      `json:"unit_price"`
	Quantity        decimal.Decimal      `json:"quantity"`
	TotalValue      decimal.Decimal      `json:"total_value"`
	DeliveryAddress string               `json:"delivery_address"`
	DeliveryDate    string               `json:"delivery_date"`
	Terms           []string             `json:"terms"`
	Status          model.ContractStatus `json:"status"`
	CancelReason    *string              `json:"cancel_reason,omitempty"`
	ActivatedAt     *time.Time           `json:"activated_at,omitempty"`
	ClosedAt        *time.Time           `json:"closed_at,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

func toContractResponse(c model.Contract) contractResponse {
	resp := contractResponse{
		ID:              c.ID.String(),
		GrowerID:        c.GrowerID.String(),
		BuyerID:         c.BuyerID.String(),
		UnitPrice:       c.UnitPrice,
		Quantity:        c.Quantity,
		TotalValue:      c.TotalValue,
		DeliveryAddress: c.DeliveryAddress,
		DeliveryDate:    c.DeliveryDate.Format(dateLayout),
		Terms:           c.Terms,
		Status:          c.Status,
		CancelReason:    c.CancelReason,
		ActivatedAt:     c.ActivatedAt,
		ClosedAt:        c.ClosedAt,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
	if c.CropID != nil {
		crop := c.CropID.String()
		resp.CropID = &crop
	}
	if resp.Terms == nil {
		resp.Terms = []string{}
	}
	return resp
}

type paymentResponse struct {
	ID              string          `json:"id"`
	ContractID      string          `json:"contract_id"`
	Position        int             `json:"position"`
	Amount          decimal.Decimal `json:"amount"`
	OccurredOn      string          `json:"occurred_on"`
	ReferenceNumber *string         `json:"reference_number,omitempty"`
	Receipt         *string         `json:"receipt,omitempty"`
	Description     string          `json:"description"`
	RecordedBy      string          `json:"recorded_by"`
	CreatedAt       time.Time       `json:"created_at"`
}

func toPaymentResponse(e model.PaymentEntry) paymentResponse {
	return paymentResponse{
		ID:              e.ID.String(),
		ContractID:      e.ContractID.String(),
		Position:        e.Position,
		Amount:          e.Amount,
		OccurredOn:      e.OccurredOn.Format(dateLayout),
		ReferenceNumber: e.ReferenceNumber,
		Receipt:         e.Receipt,
		Description:     e.Description,
		RecordedBy:      e.RecordedBy.String(),
		CreatedAt:       e.CreatedAt,
	}
}

type progressResponse struct {
	ID         string               `json:"id"`
	ContractID string               `json:"contract_id"`
	Position   int                  `json:"position"`
	Status     model.ProgressStatus `json:"status"`
	Percent    int                  `json:"percent"`
	ObservedOn string               `json:"observed_on"`
	Notes      string               `json:"notes"`
	Image      *string              `json:"image,omitempty"`
	RecordedBy string               `json:"recorded_by"`
	CreatedAt  time.Time            `json:"created_at"`
}

func toProgressResponse(e model.ProgressEntry) progressResponse {
	return progressResponse{
		ID:         e.ID.String(),
		ContractID: e.ContractID.String(),
		Position:   e.Position,
		Status:     e.Status,
		Percent:    e.Status.Percent(),
		ObservedOn: e.ObservedOn.Format(dateLayout),
		Notes:      e.Notes,
		Image:      e.Image,
		RecordedBy: e.RecordedBy.String(),
		CreatedAt:  e.CreatedAt,
	}
}

type verificationResponse struct {
	ID                    string    `json:"id"`
	ContractID            string    `json:"contract_id"`
	BiometricMatch        bool      `json:"biometric_match"`
	PayoutArtifactPresent bool      `json:"payout_artifact_present"`
	PayoutArtifact        *string   `json:"payout_artifact,omitempty"`
	Succeeded             bool      `json:"succeeded"`
	DecidedAt             time.Time `json:"decided_at"`
}

func toVerificationResponse(e model.VerificationEvent) verificationResponse {
	return verificationResponse{
		ID:                    e.ID.String(),
		ContractID:            e.ContractID.String(),
		BiometricMatch:        e.BiometricMatch,
		PayoutArtifactPresent: e.PayoutArtifactPresent,
		PayoutArtifact:        e.PayoutArtifact,
		Succeeded:             e.Succeeded,
		DecidedAt:             e.DecidedAt,
	}
}
