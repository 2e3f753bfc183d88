package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/greenpact-settlement/internal/model"
	"github.com/nurpe/greenpact-settlement/internal/repository"
	"github.com/nurpe/greenpact-settlement/internal/settlement"
)

type RecordProgressInput struct {
	ContractID uuid.UUID
	Principal  model.Principal
	Status     model.ProgressStatus
	ObservedOn time.Time
	Notes      string
	Image      *string
}

// RecordProgress appends a field report verbatim. Reports may arrive out of
// milestone or date order; the high-water mark absorbs that.
func (s *ContractService) RecordProgress(ctx context.Context, input RecordProgressInput) (*model.ProgressEntry, error) {
	if !input.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown progress status %q", ErrInvalidInput, input.Status)
	}
	if input.ObservedOn.IsZero() {
		return nil, fmt.Errorf("%w: observed_on is required", ErrInvalidInput)
	}
	if err := s.requireObject(ctx, input.Image, "image"); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(input.ContractID)
	defer unlock()

	var (
		entry   model.ProgressEntry
		settled bool
	)
	err := s.repo.WithContract(ctx, input.ContractID, func(tx *repository.ContractTx) error {
		contract := tx.Contract()
		if !input.Principal.IsGrower() || contract.GrowerID != input.Principal.UserID {
			return ErrPermissionDenied
		}
		if !settlement.AcceptsProgress(contract.Status) {
			return closedError(contract.Status)
		}

		entry = model.ProgressEntry{
			ID:         uuid.New(),
			Status:     input.Status,
			ObservedOn: dateOnly(input.ObservedOn),
			Notes:      strings.TrimSpace(input.Notes),
			Image:      trimOptional(input.Image),
			RecordedBy: input.Principal.UserID,
			CreatedAt:  s.now(),
		}
		if err := tx.AppendProgress(&entry); err != nil {
			return err
		}

		if !s.autoSettle {
			return nil
		}
		payments, err := tx.Payments()
		if err != nil {
			return err
		}
		progress, err := tx.Progress()
		if err != nil {
			return err
		}
		settled, err = s.settleIfReady(tx, payments, progress)
		return err
	})
	if err != nil {
		return nil, translateNotFound(err)
	}

	s.notifier.OnProgressRecorded(ctx, input.ContractID, entry)
	if settled {
		s.statusChanged(ctx, input.ContractID, model.ContractStatusActive, model.ContractStatusFulfilled)
	}
	return &entry, nil
}

func (s *ContractService) ListProgress(ctx context.Context, id uuid.UUID, principal model.Principal) ([]model.ProgressEntry, error) {
	tracker, err := s.tracker(ctx, id, principal)
	if err != nil {
		return nil, err
	}
	return tracker.Entries(), nil
}

// HighestProgress returns the high-water mark; ok is false when nothing has
// been logged yet.
func (s *ContractService) HighestProgress(ctx context.Context, id uuid.UUID, principal model.Principal) (settlement.Milestone, bool, error) {
	tracker, err := s.tracker(ctx, id, principal)
	if err != nil {
		return settlement.Milestone{}, false, err
	}
	milestone, ok := tracker.Highest()
	return milestone, ok, nil
}

func (s *ContractService) LatestProgress(ctx context.Context, id uuid.UUID, principal model.Principal) (*model.ProgressEntry, error) {
	tracker, err := s.tracker(ctx, id, principal)
	if err != nil {
		return nil, err
	}
	latest, ok := tracker.Latest()
	if !ok {
		return nil, nil
	}
	return &latest, nil
}

func (s *ContractService) tracker(ctx context.Context, id uuid.UUID, principal model.Principal) (settlement.Tracker, error) {
	snap, err := s.snapshot(ctx, id, principal)
	if err != nil {
		return settlement.Tracker{}, err
	}
	return settlement.NewTracker(snap.Progress), nil
}
