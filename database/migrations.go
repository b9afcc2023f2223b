package database

import (
	"gorm.io/gorm"

	"github.com/rickyzatnika/new-spinner/models"
)

// Migrate creates or updates the tables used by the spin engine.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Admin{},
		&models.User{},
		&models.Prize{},
		&models.SpinRecord{},
	)
}
