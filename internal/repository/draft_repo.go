package repository

import (
	"context"
	"encoding/json"
	"time"

	"tripdesk/internal/domain"

	"gorm.io/gorm"
)

type DraftRepository struct {
	db *gorm.DB
}

func NewDraftRepository(db *gorm.DB) *DraftRepository {
	return &DraftRepository{db: db}
}

type draftModel struct {
	ID                string     `gorm:"column:id;primaryKey"`
	PackageID         string     `gorm:"column:package_id"`
	HotelRef          string     `gorm:"column:hotel_ref"`
	CheckIn           time.Time  `gorm:"column:check_in"`
	CheckOut          time.Time  `gorm:"column:check_out"`
	Adults            int        `gorm:"column:adults"`
	Children          int        `gorm:"column:children"`
	Travelers         *string    `gorm:"column:travelers;type:text"`
	SpecialRequests   *string    `gorm:"column:special_requests;type:text"`
	ComputedPrice     float64    `gorm:"column:computed_price"`
	ProviderSessionID *string    `gorm:"column:provider_session_id;uniqueIndex"`
	Status            string     `gorm:"column:status;index"`
	CreatedAt         time.Time  `gorm:"column:created_at"`
	LastTouchedAt     time.Time  `gorm:"column:last_touched_at;index"`
}

func (draftModel) TableName() string { return "booking_drafts" }

func toDomainDraft(m draftModel) (*domain.Draft, error) {
	d := &domain.Draft{
		ID: m.ID,
		Selection: domain.Selection{
			PackageID: m.PackageID,
			HotelRef:  m.HotelRef,
			CheckIn:   m.CheckIn,
			CheckOut:  m.CheckOut,
			Adults:    m.Adults,
			Children:  m.Children,
		},
		ComputedPrice:     m.ComputedPrice,
		ProviderSessionID: m.ProviderSessionID,
		Status:            domain.DraftStatus(m.Status),
		CreatedAt:         m.CreatedAt,
		LastTouchedAt:     m.LastTouchedAt,
	}
	if m.SpecialRequests != nil {
		d.SpecialRequests = *m.SpecialRequests
	}
	if m.Travelers != nil && *m.Travelers != "" {
		if err := json.Unmarshal([]byte(*m.Travelers), &d.Travelers); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func toDraftModel(d *domain.Draft) (draftModel, error) {
	m := draftModel{
		ID:                d.ID,
		PackageID:         d.Selection.PackageID,
		HotelRef:          d.Selection.HotelRef,
		CheckIn:           d.Selection.CheckIn,
		CheckOut:          d.Selection.CheckOut,
		Adults:            d.Selection.Adults,
		Children:          d.Selection.Children,
		ComputedPrice:     d.ComputedPrice,
		ProviderSessionID: d.ProviderSessionID,
		Status:            string(d.Status),
		CreatedAt:         d.CreatedAt,
		LastTouchedAt:     d.LastTouchedAt,
	}
	if d.SpecialRequests != "" {
		v := d.SpecialRequests
		m.SpecialRequests = &v
	}
	if len(d.Travelers) > 0 {
		raw, err := json.Marshal(d.Travelers)
		if err != nil {
			return draftModel{}, err
		}
		s := string(raw)
		m.Travelers = &s
	}
	return m, nil
}

func (r *DraftRepository) Create(ctx context.Context, d *domain.Draft) error {
	m, err := toDraftModel(d)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&m).Error
}

func (r *DraftRepository) GetByID(ctx context.Context, id string) (*domain.Draft, error) {
	var m draftModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return toDomainDraft(m)
}

func (r *DraftRepository) GetByProviderSessionID(ctx context.Context, sessionID string) (*domain.Draft, error) {
	var m draftModel
	if err := r.db.WithContext(ctx).Where("provider_session_id = ?", sessionID).First(&m).Error; err != nil {
		return nil, err
	}
	return toDomainDraft(m)
}

// UpdateCollecting overwrites the mutable wizard fields, guarded so a draft
// that already left the collecting state cannot be touched. Returns false
// when the guard rejected the write.
func (r *DraftRepository) UpdateCollecting(ctx context.Context, d *domain.Draft) (bool, error) {
	m, err := toDraftModel(d)
	if err != nil {
		return false, err
	}
	res := r.db.WithContext(ctx).
		Model(&draftModel{}).
		Where("id = ? AND status = ?", d.ID, domain.DraftCollecting).
		Updates(map[string]interface{}{
			"package_id":       m.PackageID,
			"hotel_ref":        m.HotelRef,
			"check_in":         m.CheckIn,
			"check_out":        m.CheckOut,
			"adults":           m.Adults,
			"children":         m.Children,
			"travelers":        m.Travelers,
			"special_requests": m.SpecialRequests,
			"computed_price":   m.ComputedPrice,
			"last_touched_at":  m.LastTouchedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkAwaitingPayment is the handoff commit point: it records the provider
// session and freezes the draft in one guarded update.
func (r *DraftRepository) MarkAwaitingPayment(ctx context.Context, id, sessionID string, price float64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&draftModel{}).
		Where("id = ? AND status = ?", id, domain.DraftCollecting).
		Updates(map[string]interface{}{
			"provider_session_id": sessionID,
			"computed_price":      price,
			"status":              domain.DraftAwaitingPayment,
			"last_touched_at":     at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkCancelled resolves a declined/cancelled payment. Only a draft still
// waiting on payment can be cancelled; terminal drafts are left alone.
func (r *DraftRepository) MarkCancelled(ctx context.Context, id string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&draftModel{}).
		Where("id = ? AND status = ?", id, domain.DraftAwaitingPayment).
		Updates(map[string]interface{}{
			"status":          domain.DraftCancelled,
			"last_touched_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ExpireStale moves drafts that outlived the hold window to expired. The
// status list in the guard keeps it from ever overwriting a terminal state,
// no matter how it interleaves with a concurrent promotion.
func (r *DraftRepository) ExpireStale(ctx context.Context, olderThan, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&draftModel{}).
		Where("status IN ? AND last_touched_at < ?",
			[]string{string(domain.DraftCollecting), string(domain.DraftAwaitingPayment)}, olderThan).
		Updates(map[string]interface{}{
			"status":          domain.DraftExpired,
			"last_touched_at": at,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
