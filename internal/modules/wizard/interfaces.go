package wizard

import (
	"context"

	"tripdesk/internal/domain"
)

type DraftRepository interface {
	Create(ctx context.Context, d *domain.Draft) error
	GetByID(ctx context.Context, id string) (*domain.Draft, error)
	UpdateCollecting(ctx context.Context, d *domain.Draft) (bool, error)
}

type PackageReader interface {
	GetByID(ctx context.Context, id string) (*domain.TravelPackage, error)
}
