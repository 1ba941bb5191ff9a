package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mikepea/blog/pkg/blog/models"
	"gorm.io/gorm"
)

// CategorySummary is a category with the number of posts filed under it
type CategorySummary struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	PostCount int    `json:"post_count"`
}

// URL returns the path of the category listing page
func (c CategorySummary) URL() string {
	return fmt.Sprintf("/category/%d/", c.ID)
}

// TagSummary is a tag with the number of posts carrying it
type TagSummary struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	PostCount int    `json:"post_count"`
}

// URL returns the path of the tag listing page
func (t TagSummary) URL() string {
	return fmt.Sprintf("/tag/%d/", t.ID)
}

// GetCategory fetches a category by primary key
func (s *Store) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := s.conn(ctx).First(&category, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &category, nil
}

// CreateCategory inserts a category
func (s *Store) CreateCategory(ctx context.Context, category *models.Category) error {
	return s.conn(ctx).Omit("Posts").Create(category).Error
}

// GetOrCreateCategory returns the category with the given name, creating it if needed
func (s *Store) GetOrCreateCategory(ctx context.Context, name string) (*models.Category, error) {
	return getOrCreateCategory(s.conn(ctx), name)
}

func getOrCreateCategory(tx *gorm.DB, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	var category models.Category
	err := tx.Where("name = ?", name).First(&category).Error
	if err == nil {
		return &category, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	category = models.Category{Name: name}
	if err := tx.Omit("Posts").Create(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// ListCategories returns every category with its post count, by name
func (s *Store) ListCategories(ctx context.Context) ([]CategorySummary, error) {
	results := []CategorySummary{}
	err := s.conn(ctx).Table("categories").
		Select("categories.id, categories.name, COUNT(posts.id) AS post_count").
		Joins("LEFT JOIN posts ON posts.category_id = categories.id AND posts.deleted_at IS NULL").
		Where("categories.deleted_at IS NULL").
		Group("categories.id, categories.name").
		Order("categories.name").
		Scan(&results).Error
	return results, err
}

// GetTag fetches a tag by primary key
func (s *Store) GetTag(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := s.conn(ctx).First(&tag, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &tag, nil
}

// ListTags returns every tag with its post count, most used first
func (s *Store) ListTags(ctx context.Context) ([]TagSummary, error) {
	results := []TagSummary{}
	err := s.conn(ctx).Table("tags").
		Select("tags.id, tags.name, COUNT(DISTINCT posts.id) AS post_count").
		Joins("LEFT JOIN post_tags ON tags.id = post_tags.tag_id").
		Joins("LEFT JOIN posts ON post_tags.post_id = posts.id AND posts.deleted_at IS NULL").
		Where("tags.deleted_at IS NULL").
		Group("tags.id, tags.name").
		Order("post_count DESC").
		Order("tags.name").
		Scan(&results).Error
	return results, err
}

// PostTags returns the tags of a post
func (s *Store) PostTags(ctx context.Context, postID uint) ([]models.Tag, error) {
	var post models.Post
	if err := s.conn(ctx).Select("id").First(&post, postID).Error; err != nil {
		return nil, notFound(err)
	}

	tags := []models.Tag{}
	if err := s.conn(ctx).Model(&post).Order("tags.name").Association("Tags").Find(&tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// SetPostTags replaces the tags of a post, creating tags that do not exist yet
func (s *Store) SetPostTags(ctx context.Context, postID uint, names []string) ([]models.Tag, error) {
	var tags []models.Tag
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		// Replace saves the owner through its hooks, so load it whole
		var post models.Post
		if err := tx.First(&post, postID).Error; err != nil {
			return notFound(err)
		}

		var err error
		tags, err = getOrCreateTags(tx, names)
		if err != nil {
			return err
		}

		return tx.Model(&post).Association("Tags").Replace(tags)
	})
	if err != nil {
		return nil, err
	}
	return tags, nil
}

// getOrCreateTags resolves tag names to rows, skipping blanks and duplicates
func getOrCreateTags(tx *gorm.DB, names []string) ([]models.Tag, error) {
	tags := []models.Tag{}
	seen := make(map[string]bool)
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		var tag models.Tag
		// Try to find existing tag
		if err := tx.Where("name = ?", name).First(&tag).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			tag = models.Tag{Name: name}
			if err := tx.Omit("Posts").Create(&tag).Error; err != nil {
				return nil, fmt.Errorf("create tag %q: %w", name, err)
			}
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// AddPostTag attaches one tag to a post, creating the tag if needed
func (s *Store) AddPostTag(ctx context.Context, postID uint, name string) (*models.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidTag
	}

	var tag models.Tag
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, postID).Error; err != nil {
			return notFound(err)
		}

		tags, err := getOrCreateTags(tx, []string{name})
		if err != nil {
			return err
		}
		tag = tags[0]

		return tx.Model(&post).Association("Tags").Append(&tag)
	})
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// RemovePostTag detaches the named tag from a post. The tag itself is kept.
func (s *Store) RemovePostTag(ctx context.Context, postID uint, name string) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, postID).Error; err != nil {
			return notFound(err)
		}

		var tag models.Tag
		if err := tx.Where("name = ?", strings.TrimSpace(name)).First(&tag).Error; err != nil {
			return notFound(err)
		}

		return tx.Model(&post).Association("Tags").Delete(&tag)
	})
}
