package wizard

import (
	"time"

	"tripdesk/internal/domain"
)

type SelectionPayload struct {
	PackageID string    `json:"package_id" binding:"required"`
	CheckIn   time.Time `json:"check_in" binding:"required"`
	CheckOut  time.Time `json:"check_out" binding:"required"`
	Adults    int       `json:"adults" binding:"required,gte=1"`
	Children  int       `json:"children" binding:"gte=0"`
}

type TravelersPayload struct {
	Travelers []domain.Traveler `json:"travelers" binding:"required,min=1"`
}

type RequestsPayload struct {
	SpecialRequests string `json:"special_requests" binding:"max=2000"`
}

type StartDraftRequest struct {
	Selection *SelectionPayload `json:"selection"`
}

type StartDraftResponse struct {
	DraftID     string `json:"draft_id"`
	WizardToken string `json:"wizard_token"`
	Status      string `json:"status"`
}
