package models

import (
	"fmt"
	"time"

	"github.com/mikepea/blog/pkg/blog/markdown"
	"gorm.io/gorm"
)

// Post is a blog article. Listings order posts by CreateTime, newest first.
type Post struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Title        string         `gorm:"size:100;not null" json:"title" validate:"required,max=100"`
	Body         string         `gorm:"type:text;not null" json:"body"`
	CreateTime   time.Time      `gorm:"not null;index" json:"create_time"`
	ModifiedTime time.Time      `gorm:"not null" json:"modified_time"`
	Excerpt      string         `gorm:"size:200" json:"excerpt" validate:"max=200"`
	CategoryID   uint           `gorm:"not null;index" json:"category_id" validate:"required"`
	AuthorID     uint           `gorm:"not null;index" json:"author_id" validate:"required"`
	Views        uint           `gorm:"not null;default:0" json:"views"`

	// Relationships
	Category Category  `gorm:"foreignKey:CategoryID" json:"category,omitempty" validate:"-"`
	Author   User      `gorm:"foreignKey:AuthorID" json:"author,omitempty" validate:"-"`
	Tags     []Tag     `gorm:"many2many:post_tags;" json:"tags,omitempty" validate:"-"`
	Comments []Comment `gorm:"foreignKey:PostID" json:"comments,omitempty" validate:"-"`
}

func (p Post) String() string {
	return p.Title
}

// URL returns the path of the post detail page
func (p Post) URL() string {
	return fmt.Sprintf("/post/%d/", p.ID)
}

// BeforeSave stamps the timestamps, derives a blank excerpt from the body
// and validates the post. A supplied excerpt is never rewritten.
func (p *Post) BeforeSave(tx *gorm.DB) error {
	now := tx.NowFunc().UTC()
	if p.CreateTime.IsZero() {
		p.CreateTime = now
	}
	p.CreateTime = p.CreateTime.UTC()
	p.ModifiedTime = now

	if p.Excerpt == "" {
		p.Excerpt = markdown.Excerpt(p.Body)
	}

	return validate.Struct(p)
}
