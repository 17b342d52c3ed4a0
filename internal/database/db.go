package database

import (
	"fmt"

	"bitbites-backend/internal/config"
	"bitbites-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) error {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	DB = db
	return nil
}

// Migrate is separate from Init so tests can run the same schema against
// their own database handle.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.Order{},
		&models.OrderLine{},
	)
}
