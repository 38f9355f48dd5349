package database

import (
	"log"

	"gorm.io/gorm"

	"inkwell/models"
)

func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Comment{},
	)
	if err != nil {
		log.Printf("Error running migrations: %v", err)
		return err
	}

	// Rows created before the role column existed carry an empty role.
	if err := db.Model(&models.User{}).
		Where("role = ? OR role IS NULL", "").
		Update("role", models.RoleUser).Error; err != nil {
		log.Printf("Error backfilling user roles: %v", err)
		return err
	}

	log.Println("Migrations completed successfully")
	return nil
}
