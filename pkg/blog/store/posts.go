package store

import (
	"context"
	"time"

	"github.com/mikepea/blog/pkg/blog/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostFilter narrows a post listing. Zero values mean "no filter".
type PostFilter struct {
	Year       int
	Month      int
	CategoryID uint
	TagID      uint
	Limit      int
}

// ArchiveMonth is a calendar month that has at least one post
type ArchiveMonth struct {
	Year  int
	Month time.Month
	Count int
}

// Date returns the first instant of the month, for formatting
func (a ArchiveMonth) Date() time.Time {
	return time.Date(a.Year, a.Month, 1, 0, 0, 0, 0, time.UTC)
}

// ListPosts returns all posts, newest first
func (s *Store) ListPosts(ctx context.Context) ([]models.Post, error) {
	return s.FilterPosts(ctx, PostFilter{})
}

// ListPostsByMonth returns posts created within the given calendar month.
// An impossible month yields an empty list rather than an error.
func (s *Store) ListPostsByMonth(ctx context.Context, year, month int) ([]models.Post, error) {
	if year < 1 || month < 1 || month > 12 {
		return []models.Post{}, nil
	}
	return s.FilterPosts(ctx, PostFilter{Year: year, Month: month})
}

// ListPostsByCategory returns the posts of one category
func (s *Store) ListPostsByCategory(ctx context.Context, categoryID uint) ([]models.Post, error) {
	return s.FilterPosts(ctx, PostFilter{CategoryID: categoryID})
}

// ListPostsByTag returns the posts carrying one tag
func (s *Store) ListPostsByTag(ctx context.Context, tagID uint) ([]models.Post, error) {
	return s.FilterPosts(ctx, PostFilter{TagID: tagID})
}

// RecentPosts returns the n newest posts
func (s *Store) RecentPosts(ctx context.Context, n int) ([]models.Post, error) {
	return s.FilterPosts(ctx, PostFilter{Limit: n})
}

// FilterPosts returns posts matching f ordered by create time, newest first.
// A month outside 1..12 matches nothing.
func (s *Store) FilterPosts(ctx context.Context, f PostFilter) ([]models.Post, error) {
	posts := []models.Post{}

	query := s.conn(ctx).Model(&models.Post{}).
		Preload("Category").
		Preload("Author").
		Preload("Tags")

	if f.Year != 0 || f.Month != 0 {
		if f.Month < 1 || f.Month > 12 || f.Year < 1 {
			return posts, nil
		}
		start, end := s.monthRange(f.Year, f.Month)
		query = query.Where("posts.create_time >= ? AND posts.create_time < ?", start, end)
	}
	if f.CategoryID != 0 {
		query = query.Where("posts.category_id = ?", f.CategoryID)
	}
	if f.TagID != 0 {
		query = query.Joins("INNER JOIN post_tags ON post_tags.post_id = posts.id").
			Where("post_tags.tag_id = ?", f.TagID)
	}
	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}

	err := query.Order("posts.create_time DESC").Order("posts.id DESC").Find(&posts).Error
	return posts, err
}

// monthRange returns the UTC bounds [start, end) of a month in the store's timezone
func (s *Store) monthRange(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, s.loc)
	end := start.AddDate(0, 1, 0)
	return start.UTC(), end.UTC()
}

// ArchiveMonths returns the distinct months that have posts, newest first
func (s *Store) ArchiveMonths(ctx context.Context) ([]ArchiveMonth, error) {
	var times []time.Time
	err := s.conn(ctx).Model(&models.Post{}).
		Order("create_time DESC").
		Pluck("create_time", &times).Error
	if err != nil {
		return nil, err
	}

	months := []ArchiveMonth{}
	for _, t := range times {
		t = t.In(s.loc)
		n := len(months)
		if n > 0 && months[n-1].Year == t.Year() && months[n-1].Month == t.Month() {
			months[n-1].Count++
			continue
		}
		months = append(months, ArchiveMonth{Year: t.Year(), Month: t.Month(), Count: 1})
	}
	return months, nil
}

// GetPost fetches a post with its category, author and tags
func (s *Store) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := s.conn(ctx).
		Preload("Category").
		Preload("Author").
		Preload("Tags").
		First(&post, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &post, nil
}

// CreatePost inserts a post and attaches the named tags, creating any
// that do not exist yet.
func (s *Store) CreatePost(ctx context.Context, post *models.Post, tagNames []string) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := categoryExists(tx, post.CategoryID); err != nil {
			return err
		}

		tags, err := getOrCreateTags(tx, tagNames)
		if err != nil {
			return err
		}
		post.Tags = tags

		return tx.Omit("Category", "Author", "Comments").Create(post).Error
	})
}

// ImportPost inserts a post filed under the named category, creating the
// category and any missing tags. A rejected post leaves no new rows behind.
func (s *Store) ImportPost(ctx context.Context, post *models.Post, categoryName string, tagNames []string) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		category, err := getOrCreateCategory(tx, categoryName)
		if err != nil {
			return err
		}
		post.CategoryID = category.ID

		tags, err := getOrCreateTags(tx, tagNames)
		if err != nil {
			return err
		}
		post.Tags = tags

		return tx.Omit("Category", "Author", "Comments").Create(post).Error
	})
}

// UpdatePost saves the editable fields of an existing post. The view
// counter is never written here so concurrent increments are not lost.
func (s *Store) UpdatePost(ctx context.Context, post *models.Post) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := categoryExists(tx, post.CategoryID); err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.Post{}).Where("id = ?", post.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}

		return tx.Omit(clause.Associations, "Views").Save(post).Error
	})
}

// DeletePost soft-deletes a post
func (s *Store) DeletePost(ctx context.Context, id uint) error {
	result := s.conn(ctx).Delete(&models.Post{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IncreaseViews atomically adds one to a post's view counter
func (s *Store) IncreaseViews(ctx context.Context, id uint) error {
	result := s.conn(ctx).Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func categoryExists(tx *gorm.DB, id uint) error {
	var count int64
	if err := tx.Model(&models.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrInvalidCategory
	}
	return nil
}
