package catalog

import (
	"context"
	"errors"
	"math"

	"gorm.io/gorm"

	"tripdesk/internal/domain"
)

// Service serves the package catalog and computes prices. The inventory
// aggregator is optional: without it the catalog answers from local data and
// prices from the stored nightly rate.
type Service struct {
	packages   packageRepo
	aggregator InventoryAggregator
	loggerf    func(format string, args ...interface{})
}

func NewService(packages packageRepo, aggregator InventoryAggregator, loggerf func(format string, args ...interface{})) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Service{
		packages:   packages,
		aggregator: aggregator,
		loggerf:    loggerf,
	}
}

func (s *Service) ListPackages(ctx context.Context, limit, offset int) ([]domain.TravelPackage, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.packages.ListActive(ctx, limit, offset)
}

func (s *Service) GetPackage(ctx context.Context, id string) (*domain.TravelPackage, error) {
	p, err := s.packages.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// SearchCity combines the local catalog with the aggregator's candidates for
// the same city. Aggregator failure degrades to local-only results.
func (s *Service) SearchCity(ctx context.Context, city, countryCode string) ([]domain.TravelPackage, []HotelCandidate, error) {
	if city == "" || len(countryCode) != 2 {
		return nil, nil, ErrValidation
	}

	local, err := s.packages.GetByCity(ctx, city, countryCode)
	if err != nil {
		return nil, nil, err
	}

	var candidates []HotelCandidate
	if s.aggregator != nil {
		candidates, err = s.aggregator.SearchByCity(ctx, city, countryCode)
		if err != nil {
			s.loggerf("level=warn msg=aggregator search failed city=%s err=%v", city, err)
			candidates = nil
		}
	}
	return local, candidates, nil
}

// FindMatches asks the aggregator for external hotels resembling the local
// package, for later linking.
func (s *Service) FindMatches(ctx context.Context, packageID string) ([]HotelCandidate, error) {
	if s.aggregator == nil {
		return nil, ErrAggregatorUnavailable
	}
	p, err := s.GetPackage(ctx, packageID)
	if err != nil {
		return nil, err
	}
	out, err := s.aggregator.FindMatches(ctx, p)
	if err != nil {
		return nil, ErrAggregatorUnavailable
	}
	return out, nil
}

// LinkHotel binds a local package to an external hotel entity on both sides.
func (s *Service) LinkHotel(ctx context.Context, packageID, externalRef string) error {
	if externalRef == "" {
		return ErrValidation
	}
	if s.aggregator == nil {
		return ErrAggregatorUnavailable
	}
	if _, err := s.GetPackage(ctx, packageID); err != nil {
		return err
	}
	if err := s.aggregator.Link(ctx, packageID, externalRef); err != nil {
		return ErrAggregatorUnavailable
	}
	return s.packages.SetHotelRef(ctx, packageID, externalRef)
}

// SyncHotel pushes the locally-owned fields of a linked package out to the
// aggregator.
func (s *Service) SyncHotel(ctx context.Context, packageID string) error {
	if s.aggregator == nil {
		return ErrAggregatorUnavailable
	}
	p, err := s.GetPackage(ctx, packageID)
	if err != nil {
		return err
	}
	if p.HotelRef == "" {
		return ErrValidation
	}
	if err := s.aggregator.Sync(ctx, packageID, SyncFields{Name: p.Name, NightlyRate: p.NightlyRate}); err != nil {
		return ErrAggregatorUnavailable
	}
	return nil
}

// Quote computes the price for a completed selection: live pricing from the
// aggregator when the package is linked and the aggregator answers, the
// stored nightly rate otherwise. Children are charged half rate.
func (s *Service) Quote(ctx context.Context, sel domain.Selection) (float64, error) {
	p, err := s.GetPackage(ctx, sel.PackageID)
	if err != nil {
		return 0, err
	}

	nights := int(sel.CheckOut.Sub(sel.CheckIn).Hours() / 24)
	if nights < 1 {
		return 0, ErrValidation
	}

	if s.aggregator != nil && p.HotelRef != "" {
		live, err := s.aggregator.GetLivePricing(ctx, p.ID, sel.CheckIn, sel.CheckOut, sel.Adults, sel.Children)
		if err == nil && live > 0 {
			return round2(live), nil
		}
		if err != nil {
			s.loggerf("level=warn msg=live pricing failed package_id=%s err=%v", p.ID, err)
		}
	}

	total := p.NightlyRate * float64(nights) * (float64(sel.Adults) + 0.5*float64(sel.Children))
	return round2(total), nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
