package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/greenpact-settlement/internal/model"
)

func TestGenerator_Generate(t *testing.T) {
	reason := "buyer failed to respond"
	activated := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	doc := model.AgreementDocument{
		Contract: model.Contract{
			ID:              uuid.New(),
			GrowerID:        uuid.New(),
			BuyerID:         uuid.New(),
			UnitPrice:       decimal.RequireFromString("25.50"),
			Quantity:        decimal.RequireFromString("400"),
			TotalValue:      decimal.RequireFromString("10200.00"),
			DeliveryAddress: "Müller Farm, Route 5",
			DeliveryDate:    time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			Terms:           []string{"Grade A only", "Packed in 25 kg sacks"},
			Status:          model.ContractStatusCancelled,
			CancelReason:    &reason,
			ActivatedAt:     &activated,
			CreatedAt:       time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		},
		IssuedAt: time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC),
	}

	out, err := NewGenerator().Generate(doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Greater(t, len(out), 1000)
}

func TestGenerator_NoTerms(t *testing.T) {
	out, err := NewGenerator().Generate(model.AgreementDocument{
		Contract: model.Contract{ID: uuid.New(), Status: model.ContractStatusProposed},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}
