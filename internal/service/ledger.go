package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nurpe/greenpact-settlement/internal/model"
	"github.com/nurpe/greenpact-settlement/internal/repository"
	"github.com/nurpe/greenpact-settlement/internal/settlement"
)

type RecordPaymentInput struct {
	ContractID      uuid.UUID
	Principal       model.Principal
	Amount          decimal.Decimal
	OccurredOn      time.Time
	ReferenceNumber *string
	Receipt         *string
	Description     string
}

// RecordPayment appends a milestone payment. The balance check and the
// insert happen in the same unit, so concurrent payments can never overpay.
func (s *ContractService) RecordPayment(ctx context.Context, input RecordPaymentInput) (*model.PaymentEntry, error) {
	if !input.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", settlement.ErrInvalidAmount)
	}
	if !input.Amount.Equal(input.Amount.Round(2)) {
		return nil, fmt.Errorf("%w: amount has more than two decimal places", settlement.ErrInvalidAmount)
	}
	if input.OccurredOn.IsZero() {
		return nil, fmt.Errorf("%w: occurred_on is required", ErrInvalidInput)
	}
	if err := s.requireObject(ctx, input.Receipt, "receipt"); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(input.ContractID)
	defer unlock()

	var (
		entry   model.PaymentEntry
		settled bool
	)
	err := s.repo.WithContract(ctx, input.ContractID, func(tx *repository.ContractTx) error {
		contract := tx.Contract()
		if !input.Principal.IsBuyer() || contract.BuyerID != input.Principal.UserID {
			return ErrPermissionDenied
		}
		if !settlement.AcceptsPayments(contract.Status) {
			return closedError(contract.Status)
		}
		payments, err := tx.Payments()
		if err != nil {
			return err
		}
		if err := settlement.NewLedger(contract.TotalValue, payments).Admit(input.Amount); err != nil {
			return err
		}

		entry = model.PaymentEntry{
			ID:              uuid.New(),
			Amount:          input.Amount,
			OccurredOn:      dateOnly(input.OccurredOn),
			ReferenceNumber: trimOptional(input.ReferenceNumber),
			Receipt:         trimOptional(input.Receipt),
			Description:     strings.TrimSpace(input.Description),
			RecordedBy:      input.Principal.UserID,
			CreatedAt:       s.now(),
		}
		if err := tx.AppendPayment(&entry); err != nil {
			return err
		}

		if !s.autoSettle {
			return nil
		}
		progress, err := tx.Progress()
		if err != nil {
			return err
		}
		settled, err = s.settleIfReady(tx, append(payments, entry), progress)
		return err
	})
	if err != nil {
		return nil, translateNotFound(err)
	}

	s.notifier.OnPaymentRecorded(ctx, input.ContractID, entry)
	if settled {
		s.statusChanged(ctx, input.ContractID, model.ContractStatusActive, model.ContractStatusFulfilled)
	}
	return &entry, nil
}

// ListPayments returns the payment log in insertion order. Each call is a
// fresh read.
func (s *ContractService) ListPayments(ctx context.Context, id uuid.UUID, principal model.Principal) ([]model.PaymentEntry, error) {
	ledger, err := s.ledger(ctx, id, principal)
	if err != nil {
		return nil, err
	}
	return ledger.Entries(), nil
}

func (s *ContractService) PaidToDate(ctx context.Context, id uuid.UUID, principal model.Principal) (decimal.Decimal, error) {
	ledger, err := s.ledger(ctx, id, principal)
	if err != nil {
		return decimal.Zero, err
	}
	return ledger.PaidToDate(), nil
}

func (s *ContractService) RemainingBalance(ctx context.Context, id uuid.UUID, principal model.Principal) (decimal.Decimal, error) {
	ledger, err := s.ledger(ctx, id, principal)
	if err != nil {
		return decimal.Zero, err
	}
	return ledger.RemainingBalance(), nil
}

func (s *ContractService) ledger(ctx context.Context, id uuid.UUID, principal model.Principal) (settlement.Ledger, error) {
	snap, err := s.snapshot(ctx, id, principal)
	if err != nil {
		return settlement.Ledger{}, err
	}
	return settlement.NewLedger(snap.Contract.TotalValue, snap.Payments), nil
}

func (s *ContractService) requireObject(ctx context.Context, handle *string, field string) error {
	if handle == nil || strings.TrimSpace(*handle) == "" {
		return nil
	}
	ok, err := s.store.Exists(ctx, strings.TrimSpace(*handle))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s does not resolve to a stored object", ErrInvalidInput, field)
	}
	return nil
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
