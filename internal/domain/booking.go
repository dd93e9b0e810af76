package domain

import "time"

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentPending PaymentStatus = "pending"
	PaymentFailed  PaymentStatus = "failed"
)

// Booking is the confirmed reservation record. Everything except the two
// status fields is a snapshot taken from the draft at promotion time and is
// never re-read from the draft afterwards.
type Booking struct {
	ID               string        `json:"id"`
	BookingReference string        `json:"booking_reference"`
	SourceDraftID    string        `json:"source_draft_id"`
	Selection        Selection     `json:"selection"`
	Travelers        []Traveler    `json:"travelers"`
	SpecialRequests  string        `json:"special_requests,omitempty"`
	TotalPrice       float64       `json:"total_price"`
	PaymentStatus    PaymentStatus `json:"payment_status"`
	Status           BookingStatus `json:"status"`
	CreatedAt        time.Time     `json:"created_at"`
}
