package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/greenpact-settlement/internal/model"
	"github.com/nurpe/greenpact-settlement/internal/repository"
	"github.com/nurpe/greenpact-settlement/internal/settlement"
)

type VerifyInput struct {
	ContractID      uuid.UUID
	Principal       model.Principal
	BiometricSample []byte
	PayoutArtifact  string
}

// Verify runs the verification gate for a proposed contract: a biometric
// match of the grower plus a resolvable payout artifact. A failed check is
// recorded and reported through a *settlement.VerificationError; the
// contract stays proposed and the grower may retry.
func (s *ContractService) Verify(ctx context.Context, input VerifyInput) (*model.VerificationEvent, error) {
	contract, err := s.repo.Get(ctx, input.ContractID)
	if err != nil {
		return nil, translateNotFound(err)
	}
	if !input.Principal.IsGrower() || contract.GrowerID != input.Principal.UserID {
		return nil, ErrPermissionDenied
	}
	// Reject before calling out so a repeated verify has no side effect.
	if _, err := settlement.Next(contract.Status, settlement.EventApprove); err != nil {
		return nil, err
	}

	event := model.VerificationEvent{
		ID:                    uuid.New(),
		ContractID:            contract.ID,
		BiometricMatch:        s.matchBiometric(ctx, contract.GrowerID, input.BiometricSample),
		PayoutArtifactPresent: s.artifactResolves(ctx, input.PayoutArtifact),
		DecidedAt:             s.now(),
	}
	if event.PayoutArtifactPresent {
		handle := input.PayoutArtifact
		event.PayoutArtifact = &handle
	}
	return s.Approve(ctx, event)
}

// Approve applies a verification decision to the contract. The event is
// stored whatever its outcome; only a passing event moves the contract to
// active, and only one passing event can ever exist per contract.
func (s *ContractService) Approve(ctx context.Context, event model.VerificationEvent) (*model.VerificationEvent, error) {
	unlock := s.locks.lock(event.ContractID)
	defer unlock()

	var from, to model.ContractStatus
	err := s.repo.WithContract(ctx, event.ContractID, func(tx *repository.ContractTx) error {
		contract := tx.Contract()
		from = contract.Status
		next, err := settlement.Next(contract.Status, settlement.EventApprove)
		if err != nil {
			return err
		}
		if err := tx.RecordVerification(&event); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return settlement.ErrAlreadyActivated
			}
			return err
		}
		if !event.Passed() {
			return nil
		}
		to = next
		return tx.SetStatus(next, event.DecidedAt, nil)
	})
	if err != nil {
		return nil, translateNotFound(err)
	}

	if !event.Passed() {
		s.log.Info().
			Str("contract_id", event.ContractID.String()).
			Bool("biometric_match", event.BiometricMatch).
			Bool("payout_artifact_present", event.PayoutArtifactPresent).
			Msg("verification failed")
		return &event, &settlement.VerificationError{Failed: failedChecks(event)}
	}

	s.statusChanged(ctx, event.ContractID, from, to)
	return &event, nil
}

// matchBiometric never fails the call: a missing sample, a missing reference
// photo, an identity error or a timeout all count as no match.
func (s *ContractService) matchBiometric(ctx context.Context, growerID uuid.UUID, sample []byte) bool {
	if len(sample) == 0 {
		return false
	}
	if s.verifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.verifyTimeout)
		defer cancel()
	}

	if _, err := s.identity.PhotoReference(ctx, growerID); err != nil {
		s.log.Warn().Err(err).Str("grower_id", growerID.String()).Msg("reference photo unavailable")
		return false
	}
	matched, err := s.identity.Match(ctx, growerID, sample)
	if err != nil {
		s.log.Warn().Err(err).Str("grower_id", growerID.String()).Msg("biometric match failed")
		return false
	}
	return matched
}

func (s *ContractService) artifactResolves(ctx context.Context, handle string) bool {
	if handle == "" {
		return false
	}
	ok, err := s.store.Exists(ctx, handle)
	if err != nil {
		s.log.Warn().Err(err).Msg("payout artifact lookup failed")
		return false
	}
	return ok
}

func failedChecks(event model.VerificationEvent) []settlement.VerificationCheck {
	var failed []settlement.VerificationCheck
	if !event.BiometricMatch {
		failed = append(failed, settlement.CheckBiometric)
	}
	if !event.PayoutArtifactPresent {
		failed = append(failed, settlement.CheckPayoutArtifact)
	}
	return failed
}
