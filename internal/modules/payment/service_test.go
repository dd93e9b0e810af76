package payment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"tripdesk/internal/domain"
)

type mockDraftRepo struct {
	mu        sync.Mutex
	drafts    map[string]*domain.Draft
	writeErr  error
	stealRace bool // flip the draft out of collecting just before the write
}

func newMockDraftRepo(drafts ...*domain.Draft) *mockDraftRepo {
	m := &mockDraftRepo{drafts: make(map[string]*domain.Draft)}
	for _, d := range drafts {
		cp := *d
		m.drafts[d.ID] = &cp
	}
	return m
}

func (m *mockDraftRepo) GetByID(ctx context.Context, id string) (*domain.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *mockDraftRepo) MarkAwaitingPayment(ctx context.Context, id, sessionID string, price float64, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return false, m.writeErr
	}
	d, ok := m.drafts[id]
	if !ok {
		return false, nil
	}
	if m.stealRace {
		d.Status = domain.DraftExpired
	}
	if d.Status != domain.DraftCollecting {
		return false, nil
	}
	d.Status = domain.DraftAwaitingPayment
	d.ProviderSessionID = &sessionID
	d.ComputedPrice = price
	d.LastTouchedAt = at
	return true, nil
}

type mockSessionClient struct {
	mu        sync.Mutex
	createErr error
	created   int
	cancelled []string
}

func (m *mockSessionClient) CreateSession(ctx context.Context, req CreateSessionRequest) (*ProviderSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created++
	return &ProviderSession{ID: "sess-1", RedirectURL: "https://bnpl.example/pay/sess-1"}, nil
}

func (m *mockSessionClient) CancelSession(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelled = append(m.cancelled, sessionID)
	return nil
}

func (m *mockSessionClient) cancelledSessions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.cancelled...)
}

type fixedQuoter struct{ price float64 }

func (q fixedQuoter) Quote(ctx context.Context, sel domain.Selection) (float64, error) {
	return q.price, nil
}

func completeDraft(id string) *domain.Draft {
	now := time.Now().UTC()
	return &domain.Draft{
		ID: id,
		Selection: domain.Selection{
			PackageID: "pkg-lisbon",
			HotelRef:  "HTL-001",
			CheckIn:   now.Add(30 * 24 * time.Hour),
			CheckOut:  now.Add(34 * 24 * time.Hour),
			Adults:    2,
		},
		Travelers: []domain.Traveler{
			{FirstName: "Ana", LastName: "Costa", DateOfBirth: "1988-04-12", Nationality: "PT", Email: "ana@example.com", Phone: "+351900000001"},
			{FirstName: "Rui", LastName: "Costa", DateOfBirth: "1986-09-30", Nationality: "PT"},
		},
		Status:        domain.DraftCollecting,
		CreatedAt:     now,
		LastTouchedAt: now,
	}
}

func noLog(string, ...interface{}) {}

func TestInitiatePaymentHandsOff(t *testing.T) {
	drafts := newMockDraftRepo(completeDraft("d-1"))
	client := &mockSessionClient{}
	svc := NewService(drafts, client, fixedQuoter{price: 716}, noLog)

	res, err := svc.InitiatePayment(context.Background(), "d-1")
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if res.RedirectURL != "https://bnpl.example/pay/sess-1" {
		t.Fatalf("redirect url = %s", res.RedirectURL)
	}
	if res.TotalPrice != 716 {
		t.Fatalf("total price = %.2f", res.TotalPrice)
	}

	d, _ := drafts.GetByID(context.Background(), "d-1")
	if d.Status != domain.DraftAwaitingPayment {
		t.Fatalf("draft status = %s, want awaiting_payment", d.Status)
	}
	if d.ProviderSessionID == nil || *d.ProviderSessionID != "sess-1" {
		t.Fatalf("session id not recorded: %v", d.ProviderSessionID)
	}
	if d.ComputedPrice != 716 {
		t.Fatalf("price not frozen on draft: %.2f", d.ComputedPrice)
	}
}

func TestInitiatePaymentRejectsIncompleteDraft(t *testing.T) {
	incomplete := completeDraft("d-1")
	incomplete.Travelers = nil
	drafts := newMockDraftRepo(incomplete)
	client := &mockSessionClient{}
	svc := NewService(drafts, client, fixedQuoter{price: 716}, noLog)

	if _, err := svc.InitiatePayment(context.Background(), "d-1"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if client.created != 0 {
		t.Fatal("provider session opened for incomplete draft")
	}

	d, _ := drafts.GetByID(context.Background(), "d-1")
	if d.Status != domain.DraftCollecting {
		t.Fatalf("draft status = %s, want collecting", d.Status)
	}
}

func TestInitiatePaymentProviderFailureLeavesDraftCollecting(t *testing.T) {
	drafts := newMockDraftRepo(completeDraft("d-1"))
	client := &mockSessionClient{createErr: errors.New("connect timeout")}
	svc := NewService(drafts, client, fixedQuoter{price: 716}, noLog)

	if _, err := svc.InitiatePayment(context.Background(), "d-1"); !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}

	// The draft stays collecting so the client can retry the handoff.
	d, _ := drafts.GetByID(context.Background(), "d-1")
	if d.Status != domain.DraftCollecting {
		t.Fatalf("draft status = %s, want collecting", d.Status)
	}
	if d.ProviderSessionID != nil {
		t.Fatal("session id recorded despite provider failure")
	}
}

func TestInitiatePaymentVoidsSessionWhenWriteFails(t *testing.T) {
	drafts := newMockDraftRepo(completeDraft("d-1"))
	drafts.writeErr = errors.New("db down")
	client := &mockSessionClient{}
	svc := NewService(drafts, client, fixedQuoter{price: 716}, noLog)

	if _, err := svc.InitiatePayment(context.Background(), "d-1"); !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
	if got := client.cancelledSessions(); len(got) != 1 || got[0] != "sess-1" {
		t.Fatalf("orphaned session not voided: %v", got)
	}
}

func TestInitiatePaymentVoidsSessionWhenGuardLosesRace(t *testing.T) {
	drafts := newMockDraftRepo(completeDraft("d-1"))
	drafts.stealRace = true // the sweeper expires the draft mid-handoff
	client := &mockSessionClient{}
	svc := NewService(drafts, client, fixedQuoter{price: 716}, noLog)

	if _, err := svc.InitiatePayment(context.Background(), "d-1"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if got := client.cancelledSessions(); len(got) != 1 || got[0] != "sess-1" {
		t.Fatalf("orphaned session not voided: %v", got)
	}
}

func TestInitiatePaymentRejectsNonCollectingDraft(t *testing.T) {
	d := completeDraft("d-1")
	d.Status = domain.DraftAwaitingPayment
	drafts := newMockDraftRepo(d)
	client := &mockSessionClient{}
	svc := NewService(drafts, client, fixedQuoter{price: 716}, noLog)

	if _, err := svc.InitiatePayment(context.Background(), "d-1"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if client.created != 0 {
		t.Fatal("session opened twice for the same draft")
	}
}
