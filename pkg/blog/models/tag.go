package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Tag represents a tag that can be applied to posts
type Tag struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Name      string         `gorm:"size:100;uniqueIndex;not null" json:"name" validate:"required,max=100"`

	// Relationships
	Posts []Post `gorm:"many2many:post_tags;" json:"posts,omitempty" validate:"-"`
}

func (t Tag) String() string {
	return t.Name
}

// URL returns the path of the tag listing page
func (t Tag) URL() string {
	return fmt.Sprintf("/tag/%d/", t.ID)
}

// BeforeSave validates the tag
func (t *Tag) BeforeSave(tx *gorm.DB) error {
	return validate.Struct(t)
}
