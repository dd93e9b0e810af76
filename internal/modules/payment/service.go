package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"tripdesk/internal/domain"
)

// Service is the payment handoff: it freezes a completed draft, opens a
// session with the BNPL provider and records the correlation id. The
// collecting -> awaiting_payment transition here is the commit point beyond
// which the wizard can no longer write.
type Service struct {
	drafts  draftRepo
	client  sessionClient
	pricing priceQuoter
	loggerf func(format string, args ...interface{})
	now     func() time.Time
}

func NewService(drafts draftRepo, client sessionClient, pricing priceQuoter, loggerf func(format string, args ...interface{})) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Service{
		drafts:  drafts,
		client:  client,
		pricing: pricing,
		loggerf: loggerf,
		now:     time.Now,
	}
}

func (s *Service) InitiatePayment(ctx context.Context, draftID string) (*InitiatePaymentResponse, error) {
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
	if err := validateComplete(d); err != nil {
		return nil, err
	}

	price, err := s.pricing.Quote(ctx, d.Selection)
	if err != nil {
		return nil, fmt.Errorf("price computation failed: %w", err)
	}

	lead := d.LeadTraveler()
	session, err := s.client.CreateSession(ctx, CreateSessionRequest{
		Amount:      price,
		Currency:    "EUR",
		Reference:   d.ID,
		Description: fmt.Sprintf("Travel package %s", d.Selection.PackageID),
		Email:       lead.Email,
		Phone:       lead.Phone,
	})
	if err != nil {
		s.loggerf("level=error msg=provider session creation failed draft_id=%s err=%v", draftID, err)
		return nil, ErrProviderUnavailable
	}

	changed, err := s.drafts.MarkAwaitingPayment(ctx, d.ID, session.ID, price, s.now().UTC())
	if err != nil || !changed {
		// Session exists but the local write did not stick: void the
		// session so it cannot be paid, and leave the draft collecting.
		s.cancelSession(session.ID)
		if err != nil {
			s.loggerf("level=error msg=handoff write failed draft_id=%s session_id=%s err=%v", draftID, session.ID, err)
			return nil, ErrProviderUnavailable
		}
		s.loggerf("level=warn msg=handoff lost state race draft_id=%s session_id=%s", draftID, session.ID)
		return nil, ErrInvalidState
	}

	s.loggerf("level=info msg=payment handoff complete draft_id=%s session_id=%s amount=%.2f", draftID, session.ID, price)
	return &InitiatePaymentResponse{
		DraftID:     d.ID,
		RedirectURL: session.RedirectURL,
		TotalPrice:  price,
		Status:      string(domain.DraftAwaitingPayment),
	}, nil
}

func (s *Service) cancelSession(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.client.CancelSession(ctx, sessionID); err != nil {
		s.loggerf("level=error msg=orphaned session cancel failed session_id=%s err=%v", sessionID, err)
	}
}

func validateComplete(d *domain.Draft) error {
	sel := d.Selection
	if sel.PackageID == "" || sel.CheckIn.IsZero() || sel.CheckOut.IsZero() || sel.Adults < 1 {
		return ErrValidation
	}
	if len(d.Travelers) == 0 {
		return ErrValidation
	}
	lead := d.LeadTraveler()
	if lead.Email == "" || lead.Phone == "" {
		return ErrValidation
	}
	for _, t := range d.Travelers {
		if t.FirstName == "" || t.LastName == "" || t.DateOfBirth == "" || t.Nationality == "" {
			return ErrValidation
		}
	}
	return nil
}
