package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"tripdesk/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrDuplicateBooking is the storage-level uniqueness violation on
	// source_draft_id: another caller already promoted this draft.
	ErrDuplicateBooking = errors.New("booking already exists for draft")

	// ErrDraftNotPromotable means the draft left the awaiting-payment state
	// (expired or cancelled) between the caller's read and the promotion
	// write. The whole transaction is rolled back, no booking is kept.
	ErrDraftNotPromotable = errors.New("draft is not awaiting payment")
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type bookingModel struct {
	ID               string    `gorm:"column:id;primaryKey"`
	BookingReference string    `gorm:"column:booking_reference;uniqueIndex"`
	SourceDraftID    string    `gorm:"column:source_draft_id;uniqueIndex;not null"`
	PackageID        string    `gorm:"column:package_id"`
	HotelRef         string    `gorm:"column:hotel_ref"`
	CheckIn          time.Time `gorm:"column:check_in"`
	CheckOut         time.Time `gorm:"column:check_out"`
	Adults           int       `gorm:"column:adults"`
	Children         int       `gorm:"column:children"`
	Travelers        *string   `gorm:"column:travelers;type:text"`
	SpecialRequests  *string   `gorm:"column:special_requests;type:text"`
	TotalPrice       float64   `gorm:"column:total_price"`
	PaymentStatus    string    `gorm:"column:payment_status"`
	Status           string    `gorm:"column:status"`
	CreatedAt        time.Time `gorm:"column:created_at"`
}

func (bookingModel) TableName() string { return "bookings" }

func toDomainBooking(m bookingModel) (*domain.Booking, error) {
	b := &domain.Booking{
		ID:               m.ID,
		BookingReference: m.BookingReference,
		SourceDraftID:    m.SourceDraftID,
		Selection: domain.Selection{
			PackageID: m.PackageID,
			HotelRef:  m.HotelRef,
			CheckIn:   m.CheckIn,
			CheckOut:  m.CheckOut,
			Adults:    m.Adults,
			Children:  m.Children,
		},
		TotalPrice:    m.TotalPrice,
		PaymentStatus: domain.PaymentStatus(m.PaymentStatus),
		Status:        domain.BookingStatus(m.Status),
		CreatedAt:     m.CreatedAt,
	}
	if m.SpecialRequests != nil {
		b.SpecialRequests = *m.SpecialRequests
	}
	if m.Travelers != nil && *m.Travelers != "" {
		if err := json.Unmarshal([]byte(*m.Travelers), &b.Travelers); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func toBookingModel(b *domain.Booking) (bookingModel, error) {
	m := bookingModel{
		ID:               b.ID,
		BookingReference: b.BookingReference,
		SourceDraftID:    b.SourceDraftID,
		PackageID:        b.Selection.PackageID,
		HotelRef:         b.Selection.HotelRef,
		CheckIn:          b.Selection.CheckIn,
		CheckOut:         b.Selection.CheckOut,
		Adults:           b.Selection.Adults,
		Children:         b.Selection.Children,
		TotalPrice:       b.TotalPrice,
		PaymentStatus:    string(b.PaymentStatus),
		Status:           string(b.Status),
		CreatedAt:        b.CreatedAt,
	}
	if b.SpecialRequests != "" {
		v := b.SpecialRequests
		m.SpecialRequests = &v
	}
	if len(b.Travelers) > 0 {
		raw, err := json.Marshal(b.Travelers)
		if err != nil {
			return bookingModel{}, err
		}
		s := string(raw)
		m.Travelers = &s
	}
	return m, nil
}

// PromoteDraft performs the draft -> booking promotion as one transaction:
// insert the booking snapshot and flip the source draft to promoted, guarded
// on the draft still awaiting payment. Exactly-once comes from the unique
// index on source_draft_id: of two racing callers one commits, the other
// gets ErrDuplicateBooking and must fetch the winner via GetBySourceDraftID.
func (r *BookingRepository) PromoteDraft(ctx context.Context, b *domain.Booking) error {
	m, err := toBookingModel(b)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&m).Error; err != nil {
			if isSourceDraftConflict(err) {
				return ErrDuplicateBooking
			}
			return err
		}
		res := tx.Model(&draftModel{}).
			Where("id = ? AND status = ?", b.SourceDraftID, domain.DraftAwaitingPayment).
			Updates(map[string]interface{}{
				"status":          domain.DraftPromoted,
				"last_touched_at": b.CreatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrDraftNotPromotable
		}
		return nil
	})
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	var m bookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return toDomainBooking(m)
}

func (r *BookingRepository) GetBySourceDraftID(ctx context.Context, draftID string) (*domain.Booking, error) {
	var m bookingModel
	if err := r.db.WithContext(ctx).Where("source_draft_id = ?", draftID).First(&m).Error; err != nil {
		return nil, err
	}
	return toDomainBooking(m)
}

func (r *BookingRepository) UpdatePaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	res := r.db.WithContext(ctx).
		Model(&bookingModel{}).
		Where("id = ?", id).
		Update("payment_status", string(status))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// isSourceDraftConflict matches a unique violation on source_draft_id and
// nothing else, for both postgres (pgx 23505 with the constraint name) and
// the sqlite driver used for local runs and tests. A violation on any other
// index (the booking reference, say) must surface as a plain error so the
// caller retries with fresh values instead of concluding "already promoted".
func isSourceDraftConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return strings.Contains(pgErr.ConstraintName, "source_draft_id")
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed: bookings.source_draft_id")
}
