package confirmation

import "tripdesk/internal/domain"

// Resolution is what a confirmation signal resolved to. Duplicate marks
// signals that arrived after the draft already reached a terminal state —
// the caller still gets the winning outcome, never an error.
type Resolution struct {
	DraftID          string             `json:"draft_id"`
	Status           domain.DraftStatus `json:"status"`
	BookingID        string             `json:"booking_id,omitempty"`
	BookingReference string             `json:"booking_reference,omitempty"`
	Duplicate        bool               `json:"duplicate,omitempty"`
}

// PollResult is the read-only answer to a client status poll.
type PollResult struct {
	DraftID           string `json:"draft_id"`
	Status            string `json:"status"`
	BookingID         string `json:"booking_id,omitempty"`
	BookingReference  string `json:"booking_reference,omitempty"`
	RetryAfterSeconds int    `json:"retry_after_seconds,omitempty"`
}

type webhookPayload struct {
	SessionID string `json:"session_id" binding:"required"`
	EventID   string `json:"event_id" binding:"required"`
	Outcome   string `json:"outcome" binding:"required"`
}
