package domain

import "time"

type DraftStatus string

const (
	DraftCollecting      DraftStatus = "collecting"
	DraftAwaitingPayment DraftStatus = "awaiting_payment"
	DraftPromoted        DraftStatus = "promoted"
	DraftCancelled       DraftStatus = "cancelled"
	DraftExpired         DraftStatus = "expired"
)

// Selection is the package/hotel choice collected on the first wizard step.
type Selection struct {
	PackageID string    `json:"package_id" validate:"required"`
	HotelRef  string    `json:"hotel_ref,omitempty"`
	CheckIn   time.Time `json:"check_in" validate:"required"`
	CheckOut  time.Time `json:"check_out" validate:"required"`
	Adults    int       `json:"adults" validate:"required,gte=1"`
	Children  int       `json:"children" validate:"gte=0"`
}

// Traveler is one passenger record. Contact email/phone are carried only by
// the lead traveler (first adult in the list).
type Traveler struct {
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	DateOfBirth string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Nationality string `json:"nationality" validate:"required,len=2"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	Phone       string `json:"phone,omitempty"`
}

// Draft is a mutable pre-payment booking. It is owned by the draft store
// until promotion; after the handoff commit point only its status may change.
type Draft struct {
	ID                string      `json:"id"`
	Selection         Selection   `json:"selection"`
	Travelers         []Traveler  `json:"travelers"`
	SpecialRequests   string      `json:"special_requests,omitempty"`
	ComputedPrice     float64     `json:"computed_price"`
	ProviderSessionID *string     `json:"provider_session_id,omitempty"`
	Status            DraftStatus `json:"status"`
	CreatedAt         time.Time   `json:"created_at"`
	LastTouchedAt     time.Time   `json:"last_touched_at"`
}

// LeadTraveler returns the first traveler, the one required to carry contact
// details, or nil when the travelers step has not been saved yet.
func (d *Draft) LeadTraveler() *Traveler {
	if len(d.Travelers) == 0 {
		return nil
	}
	return &d.Travelers[0]
}

// Terminal reports whether the draft can never change state again.
func (s DraftStatus) Terminal() bool {
	return s == DraftPromoted || s == DraftCancelled || s == DraftExpired
}
