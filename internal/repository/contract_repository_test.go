package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/nurpe/greenpact-settlement/internal/db"
	"github.com/nurpe/greenpact-settlement/internal/model"
)

func setupTestDB(t *testing.T) *gorm.DB {
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Migrate(database))
	return database
}

func newContract(status model.ContractStatus) *model.Contract {
	return &model.Contract{
		ID:              uuid.New(),
		GrowerID:        uuid.New(),
		BuyerID:         uuid.New(),
		UnitPrice:       decimal.NewFromInt(10),
		Quantity:        decimal.NewFromInt(100),
		TotalValue:      decimal.NewFromInt(1000),
		DeliveryAddress: "Warehouse 4, Nashik",
		DeliveryDate:    time.Date(2026, time.December, 1, 0, 0, 0, 0, time.UTC),
		Terms:           []string{"Grade A only"},
		Status:          status,
		CreatedAt:       time.Now().UTC(),
	}
}

func TestContractRepository_CreateAndGet(t *testing.T) {
	repo := NewContractRepository(setupTestDB(t))
	ctx := context.Background()
	contract := newContract(model.ContractStatusProposed)

	require.NoError(t, repo.Create(ctx, contract))

	got, err := repo.Get(ctx, contract.ID)
	require.NoError(t, err)
	assert.Equal(t, contract.GrowerID, got.GrowerID)
	assert.True(t, got.TotalValue.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, []string{"Grade A only"}, got.Terms)
	assert.Equal(t, "2026-12-01", got.DeliveryDate.Format("2006-01-02"))

	_, err = repo.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestContractRepository_List(t *testing.T) {
	repo := NewContractRepository(setupTestDB(t))
	ctx := context.Background()
	first := newContract(model.ContractStatusProposed)
	second := newContract(model.ContractStatusActive)
	second.GrowerID = first.GrowerID
	other := newContract(model.ContractStatusProposed)
	for _, c := range []*model.Contract{first, second, other} {
		require.NoError(t, repo.Create(ctx, c))
	}

	byGrower, err := repo.List(ctx, ContractFilter{GrowerID: &first.GrowerID})
	require.NoError(t, err)
	assert.Len(t, byGrower, 2)

	active := model.ContractStatusActive
	byStatus, err := repo.List(ctx, ContractFilter{GrowerID: &first.GrowerID, Status: &active})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, second.ID, byStatus[0].ID)

	all, err := repo.List(ctx, ContractFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestContractRepository_AppendKeepsInsertionOrder(t *testing.T) {
	repo := NewContractRepository(setupTestDB(t))
	ctx := context.Background()
	contract := newContract(model.ContractStatusActive)
	require.NoError(t, repo.Create(ctx, contract))

	dates := []time.Time{
		time.Date(2026, time.May, 20, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.May, 10, 0, 0, 0, 0, time.UTC),
	}
	for i, date := range dates {
		err := repo.WithContract(ctx, contract.ID, func(tx *ContractTx) error {
			return tx.AppendPayment(&model.PaymentEntry{
				ID:         uuid.New(),
				Amount:     decimal.NewFromInt(int64(100 * (i + 1))),
				OccurredOn: date,
				RecordedBy: contract.BuyerID,
				CreatedAt:  time.Now().UTC(),
			})
		})
		require.NoError(t, err)
	}

	entries, err := repo.ListPayments(ctx, contract.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, entry := range entries {
		assert.Equal(t, i+1, entry.Position)
		assert.True(t, entry.Amount.Equal(decimal.NewFromInt(int64(100*(i+1)))))
	}
}

func TestContractRepository_SnapshotReadsBothLogs(t *testing.T) {
	repo := NewContractRepository(setupTestDB(t))
	ctx := context.Background()
	contract := newContract(model.ContractStatusActive)
	require.NoError(t, repo.Create(ctx, contract))

	err := repo.WithContract(ctx, contract.ID, func(tx *ContractTx) error {
		if err := tx.AppendPayment(&model.PaymentEntry{
			ID: uuid.New(), Amount: decimal.NewFromInt(250), OccurredOn: time.Now().UTC(),
			RecordedBy: contract.BuyerID, CreatedAt: time.Now().UTC(),
		}); err != nil {
			return err
		}
		return tx.AppendProgress(&model.ProgressEntry{
			ID: uuid.New(), Status: model.ProgressPlanted, ObservedOn: time.Now().UTC(),
			RecordedBy: contract.GrowerID, CreatedAt: time.Now().UTC(),
		})
	})
	require.NoError(t, err)

	snap, err := repo.Snapshot(ctx, contract.ID)
	require.NoError(t, err)
	assert.Equal(t, contract.ID, snap.Contract.ID)
	assert.Len(t, snap.Payments, 1)
	require.Len(t, snap.Progress, 1)
	assert.Equal(t, model.ProgressPlanted, snap.Progress[0].Status)

	_, err = repo.Snapshot(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestContractRepository_FailedUnitLeavesNothingBehind(t *testing.T) {
	repo := NewContractRepository(setupTestDB(t))
	ctx := context.Background()
	contract := newContract(model.ContractStatusActive)
	require.NoError(t, repo.Create(ctx, contract))

	err := repo.WithContract(ctx, contract.ID, func(tx *ContractTx) error {
		if err := tx.AppendPayment(&model.PaymentEntry{
			ID: uuid.New(), Amount: decimal.NewFromInt(250), OccurredOn: time.Now().UTC(),
			RecordedBy: contract.BuyerID, CreatedAt: time.Now().UTC(),
		}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	entries, err := repo.ListPayments(ctx, contract.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestContractRepository_SetStatusAndTerms(t *testing.T) {
	repo := NewContractRepository(setupTestDB(t))
	ctx := context.Background()
	contract := newContract(model.ContractStatusProposed)
	require.NoError(t, repo.Create(ctx, contract))
	now := time.Now().UTC()

	err := repo.WithContract(ctx, contract.ID, func(tx *ContractTx) error {
		if err := tx.AppendTerms([]string{"Payment in two parts"}, now); err != nil {
			return err
		}
		return tx.SetStatus(model.ContractStatusActive, now, nil)
	})
	require.NoError(t, err)

	got, err := repo.Get(ctx, contract.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ContractStatusActive, got.Status)
	assert.Equal(t, []string{"Grade A only", "Payment in two parts"}, got.Terms)
	assert.NotNil(t, got.ActivatedAt)
	assert.True(t, got.TotalValue.Equal(decimal.NewFromInt(1000)))

	reason := "fraud"
	err = repo.WithContract(ctx, contract.ID, func(tx *ContractTx) error {
		return tx.SetStatus(model.ContractStatusCancelled, now, &reason)
	})
	require.NoError(t, err)

	got, err = repo.Get(ctx, contract.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ContractStatusCancelled, got.Status)
	require.NotNil(t, got.CancelReason)
	assert.Equal(t, "fraud", *got.CancelReason)
	assert.NotNil(t, got.ClosedAt)
}

func TestContractRepository_SingleSuccessfulVerification(t *testing.T) {
	repo := NewContractRepository(setupTestDB(t))
	ctx := context.Background()
	contract := newContract(model.ContractStatusProposed)
	require.NoError(t, repo.Create(ctx, contract))

	record := func(biometric, artifact bool) error {
		return repo.WithContract(ctx, contract.ID, func(tx *ContractTx) error {
			return tx.RecordVerification(&model.VerificationEvent{
				ID:                    uuid.New(),
				BiometricMatch:        biometric,
				PayoutArtifactPresent: artifact,
				DecidedAt:             time.Now().UTC(),
			})
		})
	}

	require.NoError(t, record(false, true))
	require.NoError(t, record(false, false))
	require.NoError(t, record(true, true))
	assert.ErrorIs(t, record(true, true), gorm.ErrDuplicatedKey)

	events, err := repo.ListVerifications(ctx, contract.ID)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}
