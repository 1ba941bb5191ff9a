package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment is a reader comment attached to a post
type Comment struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	PostID    uint           `gorm:"not null;index" json:"post_id" validate:"required"`
	Name      string         `gorm:"size:100;not null" json:"name" validate:"required,max=100"`
	Email     string         `gorm:"size:255;not null" json:"email" validate:"required,email,max=255"`
	URL       string         `json:"url" validate:"omitempty,url"`
	Text      string         `gorm:"type:text;not null" json:"text" validate:"required"`
}

// BeforeSave validates the comment
func (c *Comment) BeforeSave(tx *gorm.DB) error {
	return validate.Struct(c)
}
