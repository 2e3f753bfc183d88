package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/greenpact-settlement/internal/model"
	"github.com/nurpe/greenpact-settlement/internal/repository"
	"github.com/nurpe/greenpact-settlement/internal/settlement"
	"github.com/nurpe/greenpact-settlement/internal/storage"
)

type AgreementRenderer interface {
	Generate(doc model.AgreementDocument) ([]byte, error)
}

type ExportRenderer interface {
	Generate(export model.SettlementExport) ([]byte, error)
}

type Document struct {
	FileName    string
	ContentType string
	Content     []byte
}

// DocumentService produces the files around a contract: the agreement PDF,
// the admin settlement workbook and uploaded attachments.
type DocumentService struct {
	repo      *repository.ContractRepository
	store     ObjectStore
	agreement AgreementRenderer
	export    ExportRenderer
	log       zerolog.Logger
	maxUpload int64
	now       func() time.Time
}

func NewDocumentService(
	repo *repository.ContractRepository,
	store ObjectStore,
	agreement AgreementRenderer,
	export ExportRenderer,
	maxUpload int64,
	log zerolog.Logger,
) *DocumentService {
	return &DocumentService{
		repo:      repo,
		store:     store,
		agreement: agreement,
		export:    export,
		log:       log.With().Str("component", "documents").Logger(),
		maxUpload: maxUpload,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *DocumentService) Agreement(ctx context.Context, id uuid.UUID, principal model.Principal) (*Document, error) {
	contract, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, translateNotFound(err)
	}
	if err := authorizeRead(*contract, principal); err != nil {
		return nil, err
	}

	content, err := s.agreement.Generate(model.AgreementDocument{Contract: *contract, IssuedAt: s.now()})
	if err != nil {
		return nil, fmt.Errorf("render agreement: %w", err)
	}
	return &Document{
		FileName:    fmt.Sprintf("contract_%s.pdf", contract.ID),
		ContentType: "application/pdf",
		Content:     content,
	}, nil
}

// Export builds the workbook over every contract. Admin only.
func (s *DocumentService) Export(ctx context.Context, principal model.Principal, status *model.ContractStatus) (*Document, error) {
	if !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}

	contracts, err := s.repo.List(ctx, repository.ContractFilter{Status: status})
	if err != nil {
		return nil, err
	}
	payments, err := s.repo.ListAllPayments(ctx)
	if err != nil {
		return nil, err
	}
	progress, err := s.repo.ListAllProgress(ctx)
	if err != nil {
		return nil, err
	}

	included := make(map[uuid.UUID]struct{}, len(contracts))
	paymentsBy := make(map[uuid.UUID][]model.PaymentEntry)
	progressBy := make(map[uuid.UUID][]model.ProgressEntry)
	for _, contract := range contracts {
		included[contract.ID] = struct{}{}
	}
	export := model.SettlementExport{GeneratedAt: s.now()}
	for _, entry := range payments {
		if _, ok := included[entry.ContractID]; ok {
			paymentsBy[entry.ContractID] = append(paymentsBy[entry.ContractID], entry)
			export.Payments = append(export.Payments, entry)
		}
	}
	for _, entry := range progress {
		if _, ok := included[entry.ContractID]; ok {
			progressBy[entry.ContractID] = append(progressBy[entry.ContractID], entry)
			export.Progress = append(export.Progress, entry)
		}
	}
	for _, contract := range contracts {
		export.Contracts = append(export.Contracts, model.ContractReport{
			Contract: contract,
			Summary: settlement.Summarize(
				contract,
				settlement.NewLedger(contract.TotalValue, paymentsBy[contract.ID]),
				settlement.NewTracker(progressBy[contract.ID]),
			),
		})
	}

	content, err := s.export.Generate(export)
	if err != nil {
		return nil, fmt.Errorf("render export: %w", err)
	}
	s.log.Info().Int("contracts", len(contracts)).Msg("settlement export generated")
	return &Document{
		FileName:    fmt.Sprintf("settlement_%s.xlsx", export.GeneratedAt.Format("20060102_150405")),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Content:     content,
	}, nil
}

// Verifications returns the verification audit trail of a contract.
func (s *DocumentService) Verifications(ctx context.Context, id uuid.UUID, principal model.Principal) ([]model.VerificationEvent, error) {
	contract, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, translateNotFound(err)
	}
	if err := authorizeRead(*contract, principal); err != nil {
		return nil, err
	}
	return s.repo.ListVerifications(ctx, id)
}

// StoreFile keeps an uploaded receipt, field image or payout artifact and
// returns its content handle.
func (s *DocumentService) StoreFile(ctx context.Context, blob []byte) (string, error) {
	if len(blob) == 0 {
		return "", fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}
	if s.maxUpload > 0 && int64(len(blob)) > s.maxUpload {
		return "", fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidInput, s.maxUpload)
	}
	return s.store.Store(ctx, blob)
}

func (s *DocumentService) OpenFile(ctx context.Context, handle string) ([]byte, error) {
	blob, err := s.store.Retrieve(ctx, handle)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, ErrNotFound
	case errors.Is(err, storage.ErrInvalidHandle):
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return blob, err
}
