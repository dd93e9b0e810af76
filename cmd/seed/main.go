package main

import (
	"log"
	"time"

	"github.com/google/uuid"

	"tripdesk/internal/database"
	"tripdesk/internal/domain"
	"tripdesk/internal/repository"
)

func main() {
	db, err := database.Connect("tripdesk.db")
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM webhook_events")
	db.Exec("DELETE FROM bookings")
	db.Exec("DELETE FROM booking_drafts")
	db.Exec("DELETE FROM travel_packages")

	log.Println("Creating packages...")
	now := time.Now().UTC()
	packages := []domain.TravelPackage{
		{
			ID:          uuid.NewString(),
			Name:        "Lisbon City Break",
			City:        "Lisbon",
			CountryCode: "PT",
			NightlyRate: 89.50,
			Active:      true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          uuid.NewString(),
			Name:        "Amalfi Coast Escape",
			City:        "Positano",
			CountryCode: "IT",
			NightlyRate: 214.00,
			Active:      true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          uuid.NewString(),
			Name:        "Kyoto Temples and Gardens",
			City:        "Kyoto",
			CountryCode: "JP",
			NightlyRate: 132.75,
			Active:      true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          uuid.NewString(),
			Name:        "Retired Winter Sun (inactive)",
			City:        "Tenerife",
			CountryCode: "ES",
			NightlyRate: 76.00,
			Active:      false,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}

	for _, p := range packages {
		if err := db.Create(&p).Error; err != nil {
			log.Fatalf("seed package %q failed: %v", p.Name, err)
		}
	}

	log.Printf("seed completed: packages=%d", len(packages))
}
