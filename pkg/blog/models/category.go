package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Category groups posts; every post belongs to exactly one
type Category struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Name      string         `gorm:"size:100;not null" json:"name" validate:"required,max=100"`

	// Relationships
	Posts []Post `gorm:"foreignKey:CategoryID" json:"posts,omitempty" validate:"-"`
}

func (c Category) String() string {
	return c.Name
}

// URL returns the path of the category listing page
func (c Category) URL() string {
	return fmt.Sprintf("/category/%d/", c.ID)
}

// BeforeSave validates the category
func (c *Category) BeforeSave(tx *gorm.DB) error {
	return validate.Struct(c)
}
