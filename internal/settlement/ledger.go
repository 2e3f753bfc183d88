package settlement

import (
	"github.com/shopspring/decimal"

	"github.com/nurpe/greenpact-settlement/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Ledger is a read view over the append-only payment log of one contract.
// Aggregates are recomputed from the entries on every call.
type Ledger struct {
	total   decimal.Decimal
	entries []model.PaymentEntry
}

func NewLedger(total decimal.Decimal, entries []model.PaymentEntry) Ledger {
	return Ledger{total: total, entries: entries}
}

func (l Ledger) TotalValue() decimal.Decimal {
	return l.total
}

func (l Ledger) PaidToDate() decimal.Decimal {
	paid := decimal.Zero
	for _, entry := range l.entries {
		paid = paid.Add(entry.Amount)
	}
	return paid
}

// RemainingBalance is the total value minus everything paid, floored at zero.
func (l Ledger) RemainingBalance() decimal.Decimal {
	remaining := l.total.Sub(l.PaidToDate())
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

func (l Ledger) FullyPaid() bool {
	return l.RemainingBalance().IsZero()
}

// Completion is the paid share of the total value in percent, capped at 100.
func (l Ledger) Completion() float64 {
	if !l.total.IsPositive() {
		return 0
	}
	pct := l.PaidToDate().Div(l.total).Mul(hundred)
	if pct.GreaterThan(hundred) {
		pct = hundred
	}
	return pct.Round(2).InexactFloat64()
}

// Admit validates a new payment against the current balance.
func (l Ledger) Admit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	remaining := l.RemainingBalance()
	if amount.GreaterThan(remaining) {
		return &BalanceError{Remaining: remaining}
	}
	return nil
}

// Entries returns the log in insertion order.
func (l Ledger) Entries() []model.PaymentEntry {
	out := make([]model.PaymentEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
