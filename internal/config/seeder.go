package config

import (
	"log"

	"librental/internal/adapters/persistence/models"
	"librental/internal/pkg/password"

	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedStaffUser(); err != nil {
		log.Printf("⚠️ Staff seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedStaffUser seeds a default staff user
// This is for development/testing only
// In production, promote staff through a secure process
func (s *Seeder) seedStaffUser() error {
	// Check if a staff user already exists
	var count int64
	s.db.Model(&models.User{}).Where("is_staff = ?", true).Count(&count)
	if count > 0 {
		return nil // Staff already exists
	}

	hashedPassword, err := password.Hash("admin123456")
	if err != nil {
		return err
	}

	staff := &models.User{
		Email:     "admin@librental.local",
		Password:  hashedPassword,
		FirstName: "Library",
		LastName:  "Admin",
		IsStaff:   true,
		IsActive:  true,
	}

	if err := s.db.Create(staff).Error; err != nil {
		return err
	}

	log.Printf("🌱 Seeded staff user: %s", staff.Email)
	return nil
}
