package repository

import (
	"context"
	"time"

	"tripdesk/internal/domain"

	"gorm.io/gorm"
)

type PackageRepository struct {
	db *gorm.DB
}

func NewPackageRepository(db *gorm.DB) *PackageRepository {
	return &PackageRepository{db: db}
}

func (r *PackageRepository) GetByID(ctx context.Context, id string) (*domain.TravelPackage, error) {
	var p domain.TravelPackage
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PackageRepository) ListActive(ctx context.Context, limit, offset int) ([]domain.TravelPackage, error) {
	var out []domain.TravelPackage
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("name").
		Limit(limit).Offset(offset).
		Find(&out).Error
	return out, err
}

func (r *PackageRepository) GetByCity(ctx context.Context, city, countryCode string) ([]domain.TravelPackage, error) {
	var out []domain.TravelPackage
	err := r.db.WithContext(ctx).
		Where("active = ? AND city = ? AND country_code = ?", true, city, countryCode).
		Order("name").
		Find(&out).Error
	return out, err
}

// SetHotelRef records the link to the external inventory aggregator entity.
func (r *PackageRepository) SetHotelRef(ctx context.Context, id, hotelRef string) error {
	res := r.db.WithContext(ctx).
		Model(&domain.TravelPackage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"hotel_ref":  hotelRef,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *PackageRepository) UpdateNightlyRate(ctx context.Context, id string, rate float64) error {
	res := r.db.WithContext(ctx).
		Model(&domain.TravelPackage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"nightly_rate": rate,
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
