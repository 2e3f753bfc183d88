// Package notify emits contract events for the messaging layer. Delivery
// is not this service's concern.
package notify

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/greenpact-settlement/internal/model"
)

type Notifier interface {
	OnStatusChanged(ctx context.Context, contractID uuid.UUID, from, to model.ContractStatus)
	OnPaymentRecorded(ctx context.Context, contractID uuid.UUID, entry model.PaymentEntry)
	OnProgressRecorded(ctx context.Context, contractID uuid.UUID, entry model.ProgressEntry)
}

type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With().Str("component", "notify").Logger()}
}

func (n *LogNotifier) OnStatusChanged(_ context.Context, contractID uuid.UUID, from, to model.ContractStatus) {
	n.log.Info().
		Str("event", "status_changed").
		Str("contract_id", contractID.String()).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("contract event")
}

func (n *LogNotifier) OnPaymentRecorded(_ context.Context, contractID uuid.UUID, entry model.PaymentEntry) {
	n.log.Info().
		Str("event", "payment_recorded").
		Str("contract_id", contractID.String()).
		Str("entry_id", entry.ID.String()).
		Str("amount", entry.Amount.StringFixed(2)).
		Int("position", entry.Position).
		Msg("contract event")
}

func (n *LogNotifier) OnProgressRecorded(_ context.Context, contractID uuid.UUID, entry model.ProgressEntry) {
	n.log.Info().
		Str("event", "progress_recorded").
		Str("contract_id", contractID.String()).
		Str("entry_id", entry.ID.String()).
		Str("status", string(entry.Status)).
		Msg("contract event")
}
