package domain

type SignalOutcome string

const (
	OutcomeApproved  SignalOutcome = "approved"
	OutcomeDeclined  SignalOutcome = "declined"
	OutcomeCancelled SignalOutcome = "cancelled"
)

// ProviderSignal is a transient confirmation input from the payment
// provider. It is not persisted as its own entity; the webhook event journal
// keeps the audit copy.
type ProviderSignal struct {
	SessionID string        `json:"session_id"`
	EventID   string        `json:"event_id"`
	Outcome   SignalOutcome `json:"outcome"`
}

func (o SignalOutcome) Valid() bool {
	switch o {
	case OutcomeApproved, OutcomeDeclined, OutcomeCancelled:
		return true
	}
	return false
}
