package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/greenpact-settlement/internal/model"
	"github.com/nurpe/greenpact-settlement/internal/storage"
)

func TestAgreement(t *testing.T) {
	f := newFixture(t)
	contract := f.propose(t, "10", "100")

	doc, err := f.docs.Agreement(context.Background(), contract.ID, f.grower)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.Equal(t, "contract_"+contract.ID.String()+".pdf", doc.FileName)

	stranger := model.Principal{UserID: uuid.New(), Role: model.RoleGrower}
	_, err = f.docs.Agreement(context.Background(), contract.ID, stranger)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestExport(t *testing.T) {
	f := newFixture(t)
	active := f.propose(t, "10", "100")
	f.activate(t, active.ID)
	_, err := f.pay(active.ID, "250")
	require.NoError(t, err)
	_, err = f.report(active.ID, model.ProgressGrowing, day(1))
	require.NoError(t, err)
	f.propose(t, "5", "10")

	_, err = f.docs.Export(context.Background(), f.buyer, nil)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	doc, err := f.docs.Export(context.Background(), f.admin, nil)
	require.NoError(t, err)
	assert.Contains(t, doc.FileName, ".xlsx")
	require.NotNil(t, f.export.last)
	assert.Len(t, f.export.last.Contracts, 2)
	assert.Len(t, f.export.last.Payments, 1)
	assert.Len(t, f.export.last.Progress, 1)

	status := model.ContractStatusActive
	_, err = f.docs.Export(context.Background(), f.admin, &status)
	require.NoError(t, err)
	require.Len(t, f.export.last.Contracts, 1)
	assert.Equal(t, 25.0, f.export.last.Contracts[0].Summary.PaymentCompletion)
}

func TestStoreAndOpenFile(t *testing.T) {
	f := newFixture(t)

	handle, err := f.docs.StoreFile(context.Background(), []byte("crop photo"))
	require.NoError(t, err)
	assert.Equal(t, storage.HandleFor([]byte("crop photo")), handle)

	blob, err := f.docs.OpenFile(context.Background(), handle)
	require.NoError(t, err)
	assert.Equal(t, []byte("crop photo"), blob)

	_, err = f.docs.StoreFile(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.docs.StoreFile(context.Background(), make([]byte, 2<<20))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.docs.OpenFile(context.Background(), storage.HandleFor([]byte("missing")))
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.docs.OpenFile(context.Background(), "not-a-handle")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
