package models

import (
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

var validate = validator.New()

// AllModels returns all models for migration
// Note: users and categories must be migrated before posts reference them
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&Tag{},
		&Post{},
		&Comment{},
	}
}

// AutoMigrate runs GORM auto-migration for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}
