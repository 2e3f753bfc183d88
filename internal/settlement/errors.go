package settlement

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/nurpe/greenpact-settlement/internal/model"
)

var (
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrExceedsRemainingBalance = errors.New("amount exceeds remaining balance")
	ErrContractClosed          = errors.New("contract closed")
	ErrAlreadyActivated        = errors.New("contract already activated")
	ErrVerificationFailed      = errors.New("verification failed")
	ErrInvalidTransition       = errors.New("invalid transition")
)

// BalanceError is returned when a payment would overpay the contract.
type BalanceError struct {
	Remaining decimal.Decimal
}

func (e *BalanceError) Error() string {
	return fmt.Sprintf("%s: remaining balance is %s", ErrExceedsRemainingBalance, e.Remaining.StringFixed(2))
}

func (e *BalanceError) Unwrap() error { return ErrExceedsRemainingBalance }

type VerificationCheck string

const (
	CheckBiometric      VerificationCheck = "biometric"
	CheckPayoutArtifact VerificationCheck = "payout_artifact"
)

// VerificationError names the sub-checks that did not pass.
type VerificationError struct {
	Failed []VerificationCheck
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("%s: %v", ErrVerificationFailed, e.Failed)
}

func (e *VerificationError) Unwrap() error { return ErrVerificationFailed }

type TransitionError struct {
	From   model.ContractStatus
	Event  Event
	Reason string
}

func (e *TransitionError) Error() string {
	msg := fmt.Sprintf("%s: %s from %s", ErrInvalidTransition, e.Event, e.From)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
