package seeders

import (
	"errors"

	"gorm.io/gorm"

	"drivebox/app/models"
	"drivebox/pkg/auth"
)

func init() {
	Register("demo", SeedDemo)
}

// SeedDemo creates a demo account with a small folder tree so a fresh
// install has something to click around in. Safe to rerun: it backs off
// when the account already exists.
func SeedDemo(db *gorm.DB) error {
	var existing models.User
	err := db.Where("email = ?", "demo@drivebox.app").First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := auth.HashPassword("demo-password")
	if err != nil {
		return err
	}

	demo := models.User{Name: "Demo User", Email: "demo@drivebox.app", Password: hash, Role: models.RoleUser}
	if err := db.Create(&demo).Error; err != nil {
		return err
	}
	admin := models.User{Name: "Admin", Email: "admin@drivebox.app", Password: hash, Role: models.RoleAdmin}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	documents := models.Folder{UserID: demo.ID, Name: "Documents"}
	if err := db.Create(&documents).Error; err != nil {
		return err
	}
	photos := models.Folder{UserID: demo.ID, Name: "Photos"}
	if err := db.Create(&photos).Error; err != nil {
		return err
	}
	taxes := models.Folder{UserID: demo.ID, ParentID: &documents.ID, Name: "Taxes 2026"}
	return db.Create(&taxes).Error
}
