package payment

import (
	"context"
	"time"

	"tripdesk/internal/domain"
)

type draftRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Draft, error)
	MarkAwaitingPayment(ctx context.Context, id, sessionID string, price float64, at time.Time) (bool, error)
}

type sessionClient interface {
	CreateSession(ctx context.Context, req CreateSessionRequest) (*ProviderSession, error)
	CancelSession(ctx context.Context, sessionID string) error
}

// priceQuoter computes the final price for a completed selection; the
// catalog service implements it, consulting the inventory aggregator's live
// pricing when the package is linked.
type priceQuoter interface {
	Quote(ctx context.Context, sel domain.Selection) (float64, error)
}
