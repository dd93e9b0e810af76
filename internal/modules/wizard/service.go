package wizard

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tripdesk/internal/domain"
	jwtsvc "tripdesk/internal/pkg/jwt"
	"tripdesk/internal/pkg/validator"
)

// Service is the wizard step writer. It persists partial booking data per
// step and never talks to the payment provider.
type Service struct {
	drafts   DraftRepository
	packages PackageReader
	tokens   *jwtsvc.Service
	now      func() time.Time
}

func NewService(drafts DraftRepository, packages PackageReader, tokens *jwtsvc.Service) *Service {
	return &Service{
		drafts:   drafts,
		packages: packages,
		tokens:   tokens,
		now:      time.Now,
	}
}

// StartDraft creates a collecting draft, optionally applying a first
// selection step, and mints the wizard token the client must present on
// every later call for this draft.
func (s *Service) StartDraft(ctx context.Context, sel *SelectionPayload) (*domain.Draft, string, error) {
	now := s.now().UTC()
	d := &domain.Draft{
		ID:            uuid.NewString(),
		Status:        domain.DraftCollecting,
		CreatedAt:     now,
		LastTouchedAt: now,
	}
	if sel != nil {
		selection, err := s.buildSelection(ctx, sel)
		if err != nil {
			return nil, "", err
		}
		d.Selection = *selection
	}

	if err := s.drafts.Create(ctx, d); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.GenerateToken(d.ID)
	if err != nil {
		return nil, "", err
	}
	return d, token, nil
}

func (s *Service) GetDraft(ctx context.Context, draftID string) (*domain.Draft, error) {
	d, err := s.drafts.GetByID(ctx, draftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

func (s *Service) SaveSelection(ctx context.Context, draftID string, payload SelectionPayload) (*domain.Draft, error) {
	d, err := s.loadCollecting(ctx, draftID)
	if err != nil {
		return nil, err
	}

	selection, err := s.buildSelection(ctx, &payload)
	if err != nil {
		return nil, err
	}
	d.Selection = *selection

	return s.persist(ctx, d)
}

func (s *Service) SaveTravelers(ctx context.Context, draftID string, payload TravelersPayload) (*domain.Draft, error) {
	d, err := s.loadCollecting(ctx, draftID)
	if err != nil {
		return nil, err
	}

	if err := validateTravelers(payload.Travelers, d.Selection); err != nil {
		return nil, err
	}
	d.Travelers = payload.Travelers

	return s.persist(ctx, d)
}

func (s *Service) SaveRequests(ctx context.Context, draftID string, payload RequestsPayload) (*domain.Draft, error) {
	d, err := s.loadCollecting(ctx, draftID)
	if err != nil {
		return nil, err
	}

	d.SpecialRequests = payload.SpecialRequests

	return s.persist(ctx, d)
}

func (s *Service) loadCollecting(ctx context.Context, draftID string) (*domain.Draft, error) {
	d, err := s.drafts.GetByID(ctx, draftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if d.Status != domain.DraftCollecting {
		return nil, ErrInvalidState
	}
	return d, nil
}

func (s *Service) persist(ctx context.Context, d *domain.Draft) (*domain.Draft, error) {
	d.LastTouchedAt = s.now().UTC()
	changed, err := s.drafts.UpdateCollecting(ctx, d)
	if err != nil {
		return nil, err
	}
	// The guard lost against a concurrent handoff or expiry.
	if !changed {
		return nil, ErrInvalidState
	}
	return d, nil
}

func (s *Service) buildSelection(ctx context.Context, payload *SelectionPayload) (*domain.Selection, error) {
	if !payload.CheckOut.After(payload.CheckIn) {
		return nil, ErrValidation
	}
	if payload.CheckIn.Before(s.now().Truncate(24 * time.Hour)) {
		return nil, ErrValidation
	}
	if payload.Adults < 1 || payload.Children < 0 {
		return nil, ErrValidation
	}

	pkg, err := s.packages.GetByID(ctx, payload.PackageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrValidation
		}
		return nil, err
	}
	if !pkg.Active {
		return nil, ErrValidation
	}

	return &domain.Selection{
		PackageID: pkg.ID,
		HotelRef:  pkg.HotelRef,
		CheckIn:   payload.CheckIn.UTC(),
		CheckOut:  payload.CheckOut.UTC(),
		Adults:    payload.Adults,
		Children:  payload.Children,
	}, nil
}

func validateTravelers(travelers []domain.Traveler, sel domain.Selection) error {
	if len(travelers) == 0 {
		return ErrValidation
	}
	if sel.Adults > 0 && len(travelers) != sel.Adults+sel.Children {
		return ErrValidation
	}
	for _, t := range travelers {
		if errs := validator.Validate(t); errs != nil {
			return ErrValidation
		}
	}

	// The lead traveler carries the booking contact and must be an adult.
	lead := travelers[0]
	if lead.Email == "" || lead.Phone == "" {
		return ErrValidation
	}
	dob, err := time.Parse("2006-01-02", lead.DateOfBirth)
	if err != nil {
		return ErrValidation
	}
	ref := sel.CheckIn
	if ref.IsZero() {
		ref = time.Now().UTC()
	}
	if age(dob, ref) < 18 {
		return ErrValidation
	}
	return nil
}

func age(dob, at time.Time) int {
	years := at.Year() - dob.Year()
	if at.YearDay() < dob.YearDay() {
		years--
	}
	return years
}
