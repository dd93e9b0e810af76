package confirmation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tripdesk/internal/domain"
	"tripdesk/internal/pkg/reference"
	"tripdesk/internal/repository"
)

// Service is the confirmation reconciler. It receives confirmation signals
// from two independent, unordered, possibly-duplicated channels — the
// provider webhook and the client status poll — and converges them on
// exactly one outcome per draft. Correctness rests on the storage layer
// (the unique index on bookings.source_draft_id and guarded status
// transitions), not on in-process locking: the two channels may execute in
// different processes entirely.
type Service struct {
	drafts     draftRepo
	bookings   bookingRepo
	events     eventJournal
	loggerf    func(format string, args ...interface{})
	retries    int
	retryDelay time.Duration
	pollAfter  time.Duration
	now        func() time.Time
}

func NewService(drafts draftRepo, bookings bookingRepo, events eventJournal, retries int, pollAfter time.Duration, loggerf func(format string, args ...interface{})) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	if retries < 1 {
		retries = 1
	}
	return &Service{
		drafts:     drafts,
		bookings:   bookings,
		events:     events,
		loggerf:    loggerf,
		retries:    retries,
		retryDelay: 200 * time.Millisecond,
		pollAfter:  pollAfter,
		now:        time.Now,
	}
}

// HandleProviderCallback processes one provider signal. It is safe to invoke
// arbitrarily many times for the same signal: redeliveries and losers of the
// promotion race all resolve to the draft's current terminal state.
func (s *Service) HandleProviderCallback(ctx context.Context, signal domain.ProviderSignal, rawBody string) (*Resolution, error) {
	if signal.SessionID == "" || signal.EventID == "" || !signal.Outcome.Valid() {
		return nil, ErrInvalidSignal
	}

	// Journal first. A failure here must not block confirmation — the state
	// machine below is what actually guarantees exactly-once.
	firstSeen, err := s.events.Record(ctx, &domain.WebhookEvent{
		EventID:    signal.EventID,
		SessionID:  signal.SessionID,
		Outcome:    string(signal.Outcome),
		RawBody:    rawBody,
		ReceivedAt: s.now().UTC(),
	})
	if err != nil {
		s.loggerf("level=error msg=event journal write failed event_id=%s err=%v", signal.EventID, err)
	} else if !firstSeen {
		s.loggerf("level=info msg=redelivered event event_id=%s session_id=%s", signal.EventID, signal.SessionID)
	}

	d, err := s.drafts.GetByProviderSessionID(ctx, signal.SessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.loggerf("level=warn msg=signal for unknown session session_id=%s event_id=%s", signal.SessionID, signal.EventID)
			return nil, ErrUnknownSession
		}
		return nil, err
	}

	switch d.Status {
	case domain.DraftPromoted, domain.DraftCancelled:
		return s.resolveTerminal(ctx, d)
	case domain.DraftExpired:
		s.loggerf("level=warn msg=signal rejected for expired draft draft_id=%s event_id=%s outcome=%s",
			d.ID, signal.EventID, signal.Outcome)
		return nil, ErrDraftExpired
	case domain.DraftAwaitingPayment:
		// fall through
	default:
		// A session id on a collecting draft violates the handoff invariant.
		return nil, fmt.Errorf("draft %s carries session %s but status is %s", d.ID, signal.SessionID, d.Status)
	}

	if signal.Outcome == domain.OutcomeApproved {
		return s.promote(ctx, d)
	}
	return s.cancel(ctx, d, signal.Outcome)
}

// PollStatus is the client-driven fallback channel. It only reads: a draft
// still awaiting payment stays untouched, and the caller is told to back off
// and retry — exhaustion of the client's retry budget is "delayed", not
// failure, because the callback may still arrive later.
func (s *Service) PollStatus(ctx context.Context, draftID string) (*PollResult, error) {
	d, err := s.drafts.GetByID(ctx, draftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	res := &PollResult{DraftID: d.ID}
	switch d.Status {
	case domain.DraftCollecting:
		res.Status = "collecting"
	case domain.DraftAwaitingPayment:
		res.Status = "pending"
		res.RetryAfterSeconds = int(s.pollAfter / time.Second)
	case domain.DraftPromoted:
		res.Status = "confirmed"
		b, err := s.bookings.GetBySourceDraftID(ctx, d.ID)
		if err != nil {
			return nil, fmt.Errorf("promoted draft %s has no booking: %w", d.ID, err)
		}
		res.BookingID = b.ID
		res.BookingReference = b.BookingReference
	case domain.DraftCancelled:
		res.Status = "cancelled"
	case domain.DraftExpired:
		res.Status = "expired"
	}
	return res, nil
}

// promote performs the exactly-once draft -> booking promotion. Storage
// failures are retried a bounded number of times before surfacing to the
// webhook sender, whose own retry re-delivers later; the draft stays
// awaiting_payment throughout, never in an ambiguous state.
func (s *Service) promote(ctx context.Context, d *domain.Draft) (*Resolution, error) {
	var lastErr error
	for attempt := 1; attempt <= s.retries; attempt++ {
		b, err := s.buildSnapshot(d)
		if err != nil {
			return nil, err
		}

		err = s.bookings.PromoteDraft(ctx, b)
		switch {
		case err == nil:
			s.loggerf("level=info msg=draft promoted draft_id=%s booking_id=%s reference=%s",
				d.ID, b.ID, b.BookingReference)
			return &Resolution{
				DraftID:          d.ID,
				Status:           domain.DraftPromoted,
				BookingID:        b.ID,
				BookingReference: b.BookingReference,
			}, nil

		case errors.Is(err, repository.ErrDuplicateBooking):
			// Lost the race: fetch the winner and report its booking id.
			winner, gerr := s.bookings.GetBySourceDraftID(ctx, d.ID)
			if gerr != nil {
				return nil, fmt.Errorf("fetch winning booking for draft %s: %w", d.ID, gerr)
			}
			s.loggerf("level=info msg=promotion conflict resolved draft_id=%s booking_id=%s", d.ID, winner.ID)
			return &Resolution{
				DraftID:          d.ID,
				Status:           domain.DraftPromoted,
				BookingID:        winner.ID,
				BookingReference: winner.BookingReference,
				Duplicate:        true,
			}, nil

		case errors.Is(err, repository.ErrDraftNotPromotable):
			// The draft left awaiting_payment between our read and the
			// write — expired, cancelled, or promoted by someone whose
			// insert we did not collide with. Re-read and resolve.
			fresh, gerr := s.drafts.GetByID(ctx, d.ID)
			if gerr != nil {
				return nil, gerr
			}
			switch fresh.Status {
			case domain.DraftPromoted, domain.DraftCancelled:
				return s.resolveTerminal(ctx, fresh)
			case domain.DraftExpired:
				s.loggerf("level=warn msg=promotion lost to expiry draft_id=%s", d.ID)
				return nil, ErrDraftExpired
			default:
				lastErr = err
			}

		default:
			lastErr = err
			s.loggerf("level=error msg=promotion attempt failed draft_id=%s attempt=%d err=%v", d.ID, attempt, err)
		}

		if attempt < s.retries {
			time.Sleep(s.retryDelay * time.Duration(attempt))
		}
	}
	return nil, fmt.Errorf("promotion failed after %d attempts: %w", s.retries, lastErr)
}

func (s *Service) cancel(ctx context.Context, d *domain.Draft, outcome domain.SignalOutcome) (*Resolution, error) {
	changed, err := s.drafts.MarkCancelled(ctx, d.ID, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("cancel draft %s: %w", d.ID, err)
	}
	if !changed {
		// Raced with another signal or the sweeper; report whatever won.
		fresh, gerr := s.drafts.GetByID(ctx, d.ID)
		if gerr != nil {
			return nil, gerr
		}
		if fresh.Status == domain.DraftExpired {
			return nil, ErrDraftExpired
		}
		return s.resolveTerminal(ctx, fresh)
	}

	s.loggerf("level=info msg=draft cancelled draft_id=%s outcome=%s", d.ID, outcome)
	return &Resolution{DraftID: d.ID, Status: domain.DraftCancelled}, nil
}

// resolveTerminal reports a draft already in a terminal state as the
// duplicate no-op the idempotency guarantee promises.
func (s *Service) resolveTerminal(ctx context.Context, d *domain.Draft) (*Resolution, error) {
	res := &Resolution{DraftID: d.ID, Status: d.Status, Duplicate: true}
	if d.Status == domain.DraftPromoted {
		b, err := s.bookings.GetBySourceDraftID(ctx, d.ID)
		if err != nil {
			return nil, fmt.Errorf("promoted draft %s has no booking: %w", d.ID, err)
		}
		res.BookingID = b.ID
		res.BookingReference = b.BookingReference
	}
	s.loggerf("level=info msg=duplicate signal resolved draft_id=%s status=%s", d.ID, d.Status)
	return res, nil
}

// buildSnapshot copies the draft into a booking record at promotion time.
// The snapshot is never re-read from the draft afterwards.
func (s *Service) buildSnapshot(d *domain.Draft) (*domain.Booking, error) {
	ref, err := reference.New()
	if err != nil {
		return nil, err
	}
	return &domain.Booking{
		ID:               uuid.NewString(),
		BookingReference: ref,
		SourceDraftID:    d.ID,
		Selection:        d.Selection,
		Travelers:        d.Travelers,
		SpecialRequests:  d.SpecialRequests,
		TotalPrice:       d.ComputedPrice,
		PaymentStatus:    domain.PaymentPaid,
		Status:           domain.BookingConfirmed,
		CreatedAt:        s.now().UTC(),
	}, nil
}
