package database

import (
	"github.com/chachabrian/tourbook-backend/internal/models"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	// Create tables if they don't exist
	err := db.AutoMigrate(
		&models.User{},
		&models.Booking{},
		&models.NotificationPreference{},
	)
	if err != nil {
		return err
	}

	statements := []string{
		`ALTER TABLE users DROP CONSTRAINT IF EXISTS users_user_type_check`,
		`ALTER TABLE users ADD CONSTRAINT users_user_type_check CHECK (user_type IN ('artist', 'agent'))`,
		`ALTER TABLE bookings DROP CONSTRAINT IF EXISTS bookings_status_check`,
		`ALTER TABLE bookings ADD CONSTRAINT bookings_status_check CHECK (status IN ('active', 'inactive'))`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_owner_created ON bookings (owner_id, created_at DESC)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
