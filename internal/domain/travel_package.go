package domain

import "time"

// TravelPackage is a sellable package (hotel stay plus extras) from the
// local catalog. HotelRef links it to the external inventory aggregator's
// entity once matched.
type TravelPackage struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	City        string    `gorm:"index" json:"city"`
	CountryCode string    `gorm:"type:varchar(2);index" json:"country_code"`
	HotelRef    string    `gorm:"index" json:"hotel_ref,omitempty"`
	NightlyRate float64   `json:"nightly_rate"`
	Active      bool      `gorm:"default:true;index" json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (TravelPackage) TableName() string { return "travel_packages" }
