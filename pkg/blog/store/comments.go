package store

import (
	"context"

	"github.com/mikepea/blog/pkg/blog/models"
)

// ListComments returns the comments of a post, newest first
func (s *Store) ListComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	comments := []models.Comment{}
	err := s.conn(ctx).
		Where("post_id = ?", postID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&comments).Error
	return comments, err
}

// CreateComment attaches a comment to an existing post
func (s *Store) CreateComment(ctx context.Context, comment *models.Comment) error {
	var count int64
	if err := s.conn(ctx).Model(&models.Post{}).Where("id = ?", comment.PostID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return s.conn(ctx).Create(comment).Error
}
