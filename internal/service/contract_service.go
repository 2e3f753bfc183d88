package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nurpe/greenpact-settlement/internal/config"
	"github.com/nurpe/greenpact-settlement/internal/model"
	"github.com/nurpe/greenpact-settlement/internal/notify"
	"github.com/nurpe/greenpact-settlement/internal/repository"
	"github.com/nurpe/greenpact-settlement/internal/settlement"
)

type IdentityService interface {
	Match(ctx context.Context, growerID uuid.UUID, sample []byte) (bool, error)
	PhotoReference(ctx context.Context, growerID uuid.UUID) (string, error)
}

type ObjectStore interface {
	Store(ctx context.Context, blob []byte) (string, error)
	Retrieve(ctx context.Context, handle string) ([]byte, error)
	Exists(ctx context.Context, handle string) (bool, error)
}

// ContractService is the contract state machine. Every write to a contract
// runs under that contract's lock and inside one repository transaction.
type ContractService struct {
	repo     *repository.ContractRepository
	identity IdentityService
	store    ObjectStore
	notifier notify.Notifier
	locks    *contractLocks
	log      zerolog.Logger

	verifyTimeout time.Duration
	autoSettle    bool
	now           func() time.Time
}

func NewContractService(
	repo *repository.ContractRepository,
	identity IdentityService,
	store ObjectStore,
	notifier notify.Notifier,
	cfg *config.Config,
	log zerolog.Logger,
) *ContractService {
	return &ContractService{
		repo:          repo,
		identity:      identity,
		store:         store,
		notifier:      notifier,
		locks:         newContractLocks(),
		log:           log.With().Str("component", "contracts").Logger(),
		verifyTimeout: cfg.Identity.Timeout,
		autoSettle:    cfg.Settlement.AutoSettle,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

type ProposeInput struct {
	Principal       model.Principal
	GrowerID        uuid.UUID
	CropID          *uuid.UUID
	UnitPrice       decimal.Decimal
	Quantity        decimal.Decimal
	Terms           []string
	DeliveryAddress string
	DeliveryDate    time.Time
}

func (s *ContractService) Propose(ctx context.Context, input ProposeInput) (*model.Contract, error) {
	if !input.Principal.IsBuyer() {
		return nil, ErrPermissionDenied
	}
	if input.GrowerID == uuid.Nil {
		return nil, fmt.Errorf("%w: grower_id is required", ErrInvalidInput)
	}
	if input.GrowerID == input.Principal.UserID {
		return nil, fmt.Errorf("%w: buyer and grower must differ", ErrInvalidInput)
	}
	if !input.UnitPrice.IsPositive() {
		return nil, fmt.Errorf("%w: unit_price must be positive", settlement.ErrInvalidAmount)
	}
	if !input.Quantity.IsPositive() {
		return nil, fmt.Errorf("%w: quantity must be positive", settlement.ErrInvalidAmount)
	}
	address := strings.TrimSpace(input.DeliveryAddress)
	if address == "" {
		return nil, fmt.Errorf("%w: delivery_address is required", ErrInvalidInput)
	}
	now := s.now()
	if input.DeliveryDate.IsZero() {
		return nil, fmt.Errorf("%w: delivery_date is required", ErrInvalidInput)
	}
	deliveryDate := dateOnly(input.DeliveryDate)
	if deliveryDate.Before(dateOnly(now)) {
		return nil, fmt.Errorf("%w: delivery_date must not be in the past", ErrInvalidInput)
	}

	unitPrice := input.UnitPrice.Round(2)
	quantity := input.Quantity.Round(3)
	contract := &model.Contract{
		ID:              uuid.New(),
		GrowerID:        input.GrowerID,
		BuyerID:         input.Principal.UserID,
		CropID:          input.CropID,
		UnitPrice:       unitPrice,
		Quantity:        quantity,
		TotalValue:      unitPrice.Mul(quantity).Round(2),
		DeliveryAddress: address,
		DeliveryDate:    deliveryDate,
		Terms:           cleanTerms(input.Terms),
		Status:          model.ContractStatusProposed,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, contract); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("contract_id", contract.ID.String()).
		Str("total_value", contract.TotalValue.StringFixed(2)).
		Msg("contract proposed")
	s.notifier.OnStatusChanged(ctx, contract.ID, "", model.ContractStatusProposed)
	return contract, nil
}

func (s *ContractService) Get(ctx context.Context, id uuid.UUID, principal model.Principal) (*model.Contract, error) {
	contract, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, translateNotFound(err)
	}
	if err := authorizeRead(*contract, principal); err != nil {
		return nil, err
	}
	return contract, nil
}

// List returns the contracts visible to the principal: their own as grower
// or buyer, everything for an admin.
func (s *ContractService) List(ctx context.Context, principal model.Principal, status *model.ContractStatus) ([]model.Contract, error) {
	filter := repository.ContractFilter{Status: status}
	switch {
	case principal.IsAdmin():
	case principal.IsGrower():
		filter.GrowerID = &principal.UserID
	case principal.IsBuyer():
		filter.BuyerID = &principal.UserID
	default:
		return nil, ErrPermissionDenied
	}
	return s.repo.List(ctx, filter)
}

// AppendTerms adds terms to a proposed contract. Only the buyer edits terms.
func (s *ContractService) AppendTerms(ctx context.Context, id uuid.UUID, principal model.Principal, terms []string) (*model.Contract, error) {
	terms = cleanTerms(terms)
	if len(terms) == 0 {
		return nil, fmt.Errorf("%w: terms are required", ErrInvalidInput)
	}

	unlock := s.locks.lock(id)
	defer unlock()

	var updated model.Contract
	err := s.repo.WithContract(ctx, id, func(tx *repository.ContractTx) error {
		contract := tx.Contract()
		if !principal.IsBuyer() || contract.BuyerID != principal.UserID {
			return ErrPermissionDenied
		}
		if !settlement.CanAppendTerms(contract.Status) {
			return closedError(contract.Status)
		}
		if err := tx.AppendTerms(terms, s.now()); err != nil {
			return err
		}
		updated = *contract
		return nil
	})
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &updated, nil
}

// Withdraw cancels a proposal. Only the buyer who proposed may withdraw.
func (s *ContractService) Withdraw(ctx context.Context, id uuid.UUID, principal model.Principal) (*model.Contract, error) {
	return s.transition(ctx, id, settlement.EventWithdraw, nil, func(_ *repository.ContractTx, contract model.Contract) error {
		if !principal.IsBuyer() || contract.BuyerID != principal.UserID {
			return ErrPermissionDenied
		}
		return nil
	})
}

// CancelForCause is the administrative override for active contracts. The
// ledger and progress log are frozen as they are, nothing is reversed.
func (s *ContractService) CancelForCause(ctx context.Context, id uuid.UUID, principal model.Principal, reason string) (*model.Contract, error) {
	if !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: reason is required", ErrInvalidInput)
	}
	return s.transition(ctx, id, settlement.EventCancel, &reason, nil)
}

// Settle marks an active contract fulfilled once it is fully paid and the
// crop has been delivered.
func (s *ContractService) Settle(ctx context.Context, id uuid.UUID, principal model.Principal) (*model.Contract, error) {
	return s.transition(ctx, id, settlement.EventSettle, nil, func(tx *repository.ContractTx, contract model.Contract) error {
		if err := authorizeRead(contract, principal); err != nil {
			return err
		}
		payments, err := tx.Payments()
		if err != nil {
			return err
		}
		progress, err := tx.Progress()
		if err != nil {
			return err
		}
		return settlement.SettleGuard(contract.Status, settlement.NewLedger(contract.TotalValue, payments), settlement.NewTracker(progress))
	})
}

type transitionGuard func(tx *repository.ContractTx, contract model.Contract) error

func (s *ContractService) transition(
	ctx context.Context,
	id uuid.UUID,
	event settlement.Event,
	reason *string,
	guard transitionGuard,
) (*model.Contract, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	var (
		from    model.ContractStatus
		updated model.Contract
	)
	err := s.repo.WithContract(ctx, id, func(tx *repository.ContractTx) error {
		contract := tx.Contract()
		from = contract.Status
		if guard != nil {
			if err := guard(tx, *contract); err != nil {
				return err
			}
		}
		to, err := settlement.Next(contract.Status, event)
		if err != nil {
			return err
		}
		if err := tx.SetStatus(to, s.now(), reason); err != nil {
			return err
		}
		updated = *contract
		return nil
	})
	if err != nil {
		return nil, translateNotFound(err)
	}

	s.statusChanged(ctx, updated.ID, from, updated.Status)
	return &updated, nil
}

// settleIfReady fires the settle edge inside an already open unit when
// auto-settlement is enabled and the guard holds.
func (s *ContractService) settleIfReady(tx *repository.ContractTx, payments []model.PaymentEntry, progress []model.ProgressEntry) (bool, error) {
	if !s.autoSettle {
		return false, nil
	}
	contract := tx.Contract()
	ledger := settlement.NewLedger(contract.TotalValue, payments)
	if settlement.SettleGuard(contract.Status, ledger, settlement.NewTracker(progress)) != nil {
		return false, nil
	}
	if err := tx.SetStatus(model.ContractStatusFulfilled, s.now(), nil); err != nil {
		return false, err
	}
	return true, nil
}

func (s *ContractService) statusChanged(ctx context.Context, id uuid.UUID, from, to model.ContractStatus) {
	s.log.Info().
		Str("contract_id", id.String()).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("contract status changed")
	s.notifier.OnStatusChanged(ctx, id, from, to)
}

func (s *ContractService) snapshot(ctx context.Context, id uuid.UUID, principal model.Principal) (*repository.Snapshot, error) {
	snap, err := s.repo.Snapshot(ctx, id)
	if err != nil {
		return nil, translateNotFound(err)
	}
	if err := authorizeRead(snap.Contract, principal); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *ContractService) Summary(ctx context.Context, id uuid.UUID, principal model.Principal) (*model.Summary, error) {
	snap, err := s.snapshot(ctx, id, principal)
	if err != nil {
		return nil, err
	}
	summary := settlement.Summarize(
		snap.Contract,
		settlement.NewLedger(snap.Contract.TotalValue, snap.Payments),
		settlement.NewTracker(snap.Progress),
	)
	return &summary, nil
}

func (s *ContractService) OverallCompletion(ctx context.Context, id uuid.UUID, principal model.Principal) (float64, error) {
	snap, err := s.snapshot(ctx, id, principal)
	if err != nil {
		return 0, err
	}
	return settlement.OverallCompletion(
		settlement.NewLedger(snap.Contract.TotalValue, snap.Payments),
		settlement.NewTracker(snap.Progress),
	), nil
}

func authorizeRead(contract model.Contract, principal model.Principal) error {
	if principal.IsAdmin() || contract.IsParty(principal.UserID) {
		return nil
	}
	return ErrPermissionDenied
}

func closedError(status model.ContractStatus) error {
	return fmt.Errorf("%w: contract is %s", settlement.ErrContractClosed, status)
}

func cleanTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term != "" {
			out = append(out, term)
		}
	}
	return out
}

func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
