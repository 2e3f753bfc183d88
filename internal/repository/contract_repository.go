package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nurpe/greenpact-settlement/internal/model"
)

// ErrStaleStatus is returned when a status update finds the contract in a
// status other than the one the caller read.
var ErrStaleStatus = errors.New("contract status changed concurrently")

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

type ContractFilter struct {
	GrowerID *uuid.UUID
	BuyerID  *uuid.UUID
	Status   *model.ContractStatus
}

// Snapshot is a consistent read of a contract with both of its logs.
type Snapshot struct {
	Contract model.Contract
	Payments []model.PaymentEntry
	Progress []model.ProgressEntry
}

func (r *ContractRepository) Create(ctx context.Context, contract *model.Contract) error {
	return r.db.WithContext(ctx).Create(contract).Error
}

func (r *ContractRepository) Get(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	var contract model.Contract
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&contract).Error; err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *ContractRepository) List(ctx context.Context, filter ContractFilter) ([]model.Contract, error) {
	query := r.db.WithContext(ctx).Model(&model.Contract{})
	if filter.GrowerID != nil {
		query = query.Where("grower_id = ?", *filter.GrowerID)
	}
	if filter.BuyerID != nil {
		query = query.Where("buyer_id = ?", *filter.BuyerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var contracts []model.Contract
	if err := query.Order("created_at DESC").Find(&contracts).Error; err != nil {
		return nil, err
	}
	return contracts, nil
}

// Snapshot reads the contract and its logs inside one read transaction so
// aggregates are never computed from a half-applied write.
func (r *ContractRepository) Snapshot(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	var snap Snapshot
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&snap.Contract).Error; err != nil {
			return err
		}
		var err error
		if snap.Payments, err = listPayments(tx, id); err != nil {
			return err
		}
		snap.Progress, err = listProgress(tx, id)
		return err
	}, r.snapshotOptions())
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (r *ContractRepository) ListPayments(ctx context.Context, contractID uuid.UUID) ([]model.PaymentEntry, error) {
	return listPayments(r.db.WithContext(ctx), contractID)
}

func (r *ContractRepository) ListProgress(ctx context.Context, contractID uuid.UUID) ([]model.ProgressEntry, error) {
	return listProgress(r.db.WithContext(ctx), contractID)
}

func (r *ContractRepository) ListAllPayments(ctx context.Context) ([]model.PaymentEntry, error) {
	var entries []model.PaymentEntry
	err := r.db.WithContext(ctx).Order("contract_id ASC, position ASC").Find(&entries).Error
	return entries, err
}

func (r *ContractRepository) ListAllProgress(ctx context.Context) ([]model.ProgressEntry, error) {
	var entries []model.ProgressEntry
	err := r.db.WithContext(ctx).Order("contract_id ASC, position ASC").Find(&entries).Error
	return entries, err
}

func (r *ContractRepository) ListVerifications(ctx context.Context, contractID uuid.UUID) ([]model.VerificationEvent, error) {
	var events []model.VerificationEvent
	err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("decided_at ASC").
		Find(&events).Error
	return events, err
}

// WithContract runs fn as one atomic unit over a single contract. On
// postgres the contract row is locked FOR UPDATE for the duration; sqlite
// serializes writers on its own.
func (r *ContractRepository) WithContract(ctx context.Context, id uuid.UUID, fn func(tx *ContractTx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx
		if tx.Dialector.Name() == "postgres" {
			query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var contract model.Contract
		if err := query.Where("id = ?", id).First(&contract).Error; err != nil {
			return err
		}
		return fn(&ContractTx{tx: tx, contract: &contract})
	})
}

func (r *ContractRepository) snapshotOptions() *sql.TxOptions {
	if r.db.Dialector.Name() == "postgres" {
		return &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}
	return nil
}

// ContractTx exposes the writes allowed on a locked contract.
type ContractTx struct {
	tx       *gorm.DB
	contract *model.Contract
}

func (t *ContractTx) Contract() *model.Contract {
	return t.contract
}

func (t *ContractTx) Payments() ([]model.PaymentEntry, error) {
	return listPayments(t.tx, t.contract.ID)
}

func (t *ContractTx) Progress() ([]model.ProgressEntry, error) {
	return listProgress(t.tx, t.contract.ID)
}

// AppendPayment inserts the entry at the end of the contract's payment log.
func (t *ContractTx) AppendPayment(entry *model.PaymentEntry) error {
	position, err := t.nextPosition(&model.PaymentEntry{})
	if err != nil {
		return err
	}
	entry.ContractID = t.contract.ID
	entry.Position = position
	return t.tx.Create(entry).Error
}

func (t *ContractTx) AppendProgress(entry *model.ProgressEntry) error {
	position, err := t.nextPosition(&model.ProgressEntry{})
	if err != nil {
		return err
	}
	entry.ContractID = t.contract.ID
	entry.Position = position
	return t.tx.Create(entry).Error
}

func (t *ContractTx) AppendTerms(terms []string, at time.Time) error {
	merged := make([]string, 0, len(t.contract.Terms)+len(terms))
	merged = append(merged, t.contract.Terms...)
	merged = append(merged, terms...)

	err := t.tx.Model(t.contract).
		Select("Terms", "UpdatedAt").
		Updates(&model.Contract{Terms: merged, UpdatedAt: at}).Error
	if err != nil {
		return err
	}
	t.contract.Terms = merged
	return nil
}

// SetStatus moves the contract to status. total_value and terms are never
// part of this update.
func (t *ContractTx) SetStatus(status model.ContractStatus, at time.Time, reason *string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": at,
	}
	switch {
	case status == model.ContractStatusActive:
		updates["activated_at"] = at
	case status.IsTerminal():
		updates["closed_at"] = at
	}
	if reason != nil {
		updates["cancel_reason"] = *reason
	}

	res := t.tx.Model(&model.Contract{}).
		Where("id = ? AND status = ?", t.contract.ID, t.contract.Status).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return ErrStaleStatus
	}

	t.contract.Status = status
	t.contract.UpdatedAt = at
	if status == model.ContractStatusActive {
		t.contract.ActivatedAt = &at
	}
	if status.IsTerminal() {
		t.contract.ClosedAt = &at
	}
	if reason != nil {
		t.contract.CancelReason = reason
	}
	return nil
}

// RecordVerification stores a verification attempt. A second successful
// event for the same contract fails with gorm.ErrDuplicatedKey.
func (t *ContractTx) RecordVerification(event *model.VerificationEvent) error {
	event.ContractID = t.contract.ID
	event.Succeeded = event.Passed()
	return t.tx.Create(event).Error
}

func (t *ContractTx) nextPosition(table interface{}) (int, error) {
	var last int
	err := t.tx.Model(table).
		Where("contract_id = ?", t.contract.ID).
		Select("COALESCE(MAX(position), 0)").
		Scan(&last).Error
	if err != nil {
		return 0, fmt.Errorf("next position: %w", err)
	}
	return last + 1, nil
}

func listPayments(db *gorm.DB, contractID uuid.UUID) ([]model.PaymentEntry, error) {
	var entries []model.PaymentEntry
	err := db.Where("contract_id = ?", contractID).Order("position ASC").Find(&entries).Error
	return entries, err
}

func listProgress(db *gorm.DB, contractID uuid.UUID) ([]model.ProgressEntry, error) {
	var entries []model.ProgressEntry
	err := db.Where("contract_id = ?", contractID).Order("position ASC").Find(&entries).Error
	return entries, err
}
