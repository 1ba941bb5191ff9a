package store

import (
	"context"

	"github.com/mikepea/blog/pkg/blog/models"
)

// GetUser fetches a user by primary key
func (s *Store) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// GetUserByEmail fetches a user by email address
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// CreateUser inserts a user
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return s.conn(ctx).Omit("Posts").Create(user).Error
}

// CountAdmins returns the number of users with the admin role
func (s *Store) CountAdmins(ctx context.Context) (int64, error) {
	var count int64
	err := s.conn(ctx).Model(&models.User{}).
		Where("system_role = ?", models.SystemRoleAdmin).
		Count(&count).Error
	return count, err
}
