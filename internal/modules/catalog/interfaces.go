package catalog

import (
	"context"
	"time"

	"tripdesk/internal/domain"
)

type packageRepo interface {
	GetByID(ctx context.Context, id string) (*domain.TravelPackage, error)
	ListActive(ctx context.Context, limit, offset int) ([]domain.TravelPackage, error)
	GetByCity(ctx context.Context, city, countryCode string) ([]domain.TravelPackage, error)
	SetHotelRef(ctx context.Context, id, hotelRef string) error
	UpdateNightlyRate(ctx context.Context, id string, rate float64) error
}

// HotelCandidate is an external hotel entity as reported by the inventory
// aggregator.
type HotelCandidate struct {
	Ref         string  `json:"ref"`
	Name        string  `json:"name"`
	City        string  `json:"city"`
	CountryCode string  `json:"country_code"`
	Score       float64 `json:"score,omitempty"`
}

// SyncFields are the locally-owned fields pushed to the aggregator on sync.
type SyncFields struct {
	Name        string  `json:"name"`
	NightlyRate float64 `json:"nightly_rate"`
}

// InventoryAggregator is the external hotel-inventory collaborator. Its
// matching heuristics are its own business; this service only consumes the
// operations below.
type InventoryAggregator interface {
	SearchByCity(ctx context.Context, city, countryCode string) ([]HotelCandidate, error)
	FindMatches(ctx context.Context, pkg *domain.TravelPackage) ([]HotelCandidate, error)
	Link(ctx context.Context, localID, externalRef string) error
	Sync(ctx context.Context, localID string, fields SyncFields) error
	GetLivePricing(ctx context.Context, localID string, checkIn, checkOut time.Time, adults, children int) (float64, error)
}
