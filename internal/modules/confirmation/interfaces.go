package confirmation

import (
	"context"
	"time"

	"tripdesk/internal/domain"
)

type draftRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Draft, error)
	GetByProviderSessionID(ctx context.Context, sessionID string) (*domain.Draft, error)
	MarkCancelled(ctx context.Context, id string, at time.Time) (bool, error)
}

type bookingRepo interface {
	PromoteDraft(ctx context.Context, b *domain.Booking) error
	GetBySourceDraftID(ctx context.Context, draftID string) (*domain.Booking, error)
}

type eventJournal interface {
	Record(ctx context.Context, e *domain.WebhookEvent) (bool, error)
}

// signatureVerifier is the provider client's webhook signature check.
type signatureVerifier interface {
	VerifyWebhookSignature(payload []byte, signature string) bool
}
