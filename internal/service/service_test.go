package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/nurpe/greenpact-settlement/internal/config"
	"github.com/nurpe/greenpact-settlement/internal/db"
	"github.com/nurpe/greenpact-settlement/internal/identity"
	"github.com/nurpe/greenpact-settlement/internal/model"
	"github.com/nurpe/greenpact-settlement/internal/repository"
	"github.com/nurpe/greenpact-settlement/internal/storage"
)

type recordedStatus struct {
	ContractID uuid.UUID
	From, To   model.ContractStatus
}

type recordingNotifier struct {
	mu       sync.Mutex
	statuses []recordedStatus
	payments []model.PaymentEntry
	progress []model.ProgressEntry
}

func (n *recordingNotifier) OnStatusChanged(_ context.Context, id uuid.UUID, from, to model.ContractStatus) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statuses = append(n.statuses, recordedStatus{ContractID: id, From: from, To: to})
}

func (n *recordingNotifier) OnPaymentRecorded(_ context.Context, _ uuid.UUID, entry model.PaymentEntry) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.payments = append(n.payments, entry)
}

func (n *recordingNotifier) OnProgressRecorded(_ context.Context, _ uuid.UUID, entry model.ProgressEntry) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.progress = append(n.progress, entry)
}

func (n *recordingNotifier) transitions() []recordedStatus {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]recordedStatus(nil), n.statuses...)
}

type fixture struct {
	svc      *ContractService
	docs     *DocumentService
	export   *stubExport
	repo     *repository.ContractRepository
	identity *identity.Static
	store    *storage.FSStore
	notifier *recordingNotifier

	grower model.Principal
	buyer  model.Principal
	admin  model.Principal
}

type option func(*config.Config)

func withAutoSettle(cfg *config.Config) { cfg.Settlement.AutoSettle = true }

func newFixture(t *testing.T, opts ...option) *fixture {
	t.Helper()

	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Migrate(database))

	store, err := storage.NewFSStore(t.TempDir(), false)
	require.NoError(t, err)

	cfg := &config.Config{
		Identity: config.IdentityConfig{Timeout: 200 * time.Millisecond},
		Storage:  config.StorageConfig{MaxUploadBytes: 1 << 20},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	f := &fixture{
		repo:     repository.NewContractRepository(database),
		identity: identity.NewStatic(),
		store:    store,
		notifier: &recordingNotifier{},
		grower:   model.Principal{UserID: uuid.New(), Role: model.RoleGrower},
		buyer:    model.Principal{UserID: uuid.New(), Role: model.RoleBuyer},
		admin:    model.Principal{UserID: uuid.New(), Role: model.RoleAdmin},
	}
	f.svc = NewContractService(f.repo, f.identity, store, f.notifier, cfg, zerolog.Nop())
	f.export = &stubExport{}
	f.docs = NewDocumentService(f.repo, store, stubAgreement{}, f.export, cfg.Storage.MaxUploadBytes, zerolog.Nop())
	f.identity.Enroll(f.grower.UserID, []byte("face-of-grower"))
	return f
}

type stubAgreement struct{}

func (stubAgreement) Generate(model.AgreementDocument) ([]byte, error) { return []byte("%PDF-stub"), nil }

type stubExport struct {
	last *model.SettlementExport
}

func (s *stubExport) Generate(export model.SettlementExport) ([]byte, error) {
	s.last = &export
	return []byte("xlsx"), nil
}

// propose creates a contract worth unitPrice x quantity.
func (f *fixture) propose(t *testing.T, unitPrice, quantity string) *model.Contract {
	t.Helper()
	contract, err := f.svc.Propose(context.Background(), ProposeInput{
		Principal:       f.buyer,
		GrowerID:        f.grower.UserID,
		UnitPrice:       decimal.RequireFromString(unitPrice),
		Quantity:        decimal.RequireFromString(quantity),
		Terms:           []string{"Grade A only"},
		DeliveryAddress: "Warehouse 4, Nashik",
		DeliveryDate:    time.Now().UTC().AddDate(0, 3, 0),
	})
	require.NoError(t, err)
	return contract
}

func (f *fixture) payoutArtifact(t *testing.T) string {
	t.Helper()
	handle, err := f.store.Store(context.Background(), []byte("bank passbook scan"))
	require.NoError(t, err)
	return handle
}

// activate runs a passing verification.
func (f *fixture) activate(t *testing.T, id uuid.UUID) {
	t.Helper()
	_, err := f.svc.Verify(context.Background(), VerifyInput{
		ContractID:      id,
		Principal:       f.grower,
		BiometricSample: []byte("face-of-grower"),
		PayoutArtifact:  f.payoutArtifact(t),
	})
	require.NoError(t, err)
}

func (f *fixture) pay(id uuid.UUID, amount string) (*model.PaymentEntry, error) {
	return f.svc.RecordPayment(context.Background(), RecordPaymentInput{
		ContractID: id,
		Principal:  f.buyer,
		Amount:     decimal.RequireFromString(amount),
		OccurredOn: time.Now().UTC(),
	})
}

func (f *fixture) report(id uuid.UUID, status model.ProgressStatus, observedOn time.Time) (*model.ProgressEntry, error) {
	return f.svc.RecordProgress(context.Background(), RecordProgressInput{
		ContractID: id,
		Principal:  f.grower,
		Status:     status,
		ObservedOn: observedOn,
	})
}

func day(n int) time.Time {
	return time.Date(2026, time.June, n, 0, 0, 0, 0, time.UTC)
}
