package settlement

import (
	"github.com/nurpe/greenpact-settlement/internal/model"
)

type Event string

const (
	EventApprove  Event = "approve"
	EventWithdraw Event = "withdraw"
	EventSettle   Event = "settle"
	EventCancel   Event = "cancel_for_cause"
)

type edge struct {
	from  model.ContractStatus
	event Event
}

// transitions is the complete set of status edges. Anything absent is
// rejected.
var transitions = map[edge]model.ContractStatus{
	{model.ContractStatusProposed, EventApprove}:  model.ContractStatusActive,
	{model.ContractStatusProposed, EventWithdraw}: model.ContractStatusCancelled,
	{model.ContractStatusActive, EventSettle}:     model.ContractStatusFulfilled,
	{model.ContractStatusActive, EventCancel}:     model.ContractStatusCancelled,
}

// Next returns the status reached by firing event from the given status.
// Guards are the caller's job; Next only knows the edges.
func Next(from model.ContractStatus, event Event) (model.ContractStatus, error) {
	if event == EventApprove && from == model.ContractStatusActive {
		return from, ErrAlreadyActivated
	}
	to, ok := transitions[edge{from, event}]
	if !ok {
		return from, &TransitionError{From: from, Event: event}
	}
	return to, nil
}

// CanAppendTerms reports whether terms are still editable. Terms freeze at
// activation.
func CanAppendTerms(status model.ContractStatus) bool {
	return status == model.ContractStatusProposed
}

func AcceptsPayments(status model.ContractStatus) bool {
	return status == model.ContractStatusActive
}

func AcceptsProgress(status model.ContractStatus) bool {
	return !status.IsTerminal()
}

// SettleGuard checks the settle precondition: fully paid and delivered.
func SettleGuard(status model.ContractStatus, ledger Ledger, tracker Tracker) error {
	if _, err := Next(status, EventSettle); err != nil {
		return err
	}
	if !ledger.FullyPaid() {
		return &TransitionError{
			From:   status,
			Event:  EventSettle,
			Reason: "remaining balance is " + ledger.RemainingBalance().StringFixed(2),
		}
	}
	if !tracker.Delivered() {
		return &TransitionError{From: status, Event: EventSettle, Reason: "crop not delivered"}
	}
	return nil
}

// Summarize derives every read-side figure of a contract.
func Summarize(contract model.Contract, ledger Ledger, tracker Tracker) model.Summary {
	paymentCompletion := ledger.Completion()
	progressCompletion := tracker.Completion()

	summary := model.Summary{
		ContractID:         contract.ID.String(),
		Status:             contract.Status,
		TotalValue:         ledger.TotalValue(),
		PaidToDate:         ledger.PaidToDate(),
		RemainingBalance:   ledger.RemainingBalance(),
		PaymentComplete:    ledger.FullyPaid(),
		PaymentCompletion:  paymentCompletion,
		ProgressCompletion: progressCompletion,
		OverallCompletion:  OverallCompletion(ledger, tracker),
	}
	if m, ok := tracker.Highest(); ok {
		status := m.Status
		summary.HighestProgress = &status
	}
	if latest, ok := tracker.Latest(); ok {
		summary.LatestProgress = &latest
	}
	return summary
}

// OverallCompletion averages payment and progress completion.
func OverallCompletion(ledger Ledger, tracker Tracker) float64 {
	return (ledger.Completion() + float64(tracker.Completion())) / 2
}
