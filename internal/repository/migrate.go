package repository

import (
	"tripdesk/internal/domain"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates the schema. The unique indexes declared on
// the row models (bookings.source_draft_id, booking_drafts.provider_session_id,
// webhook_events.event_id) are what the promotion and duplicate-suppression
// paths rely on, so migration must run before the service takes traffic.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&draftModel{},
		&bookingModel{},
		&domain.WebhookEvent{},
		&domain.TravelPackage{},
	)
}
