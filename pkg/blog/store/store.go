// Package store is the data-access layer of the blog. Handlers depend on
// small interfaces satisfied by *Store instead of issuing queries directly.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidCategory is returned when a post references a missing category
	ErrInvalidCategory = errors.New("category does not exist")
	// ErrInvalidTag is returned for a blank tag name
	ErrInvalidTag = errors.New("tag name is required")
)

// Store wraps a GORM handle with the blog's queries
type Store struct {
	db  *gorm.DB
	loc *time.Location
}

// New creates a Store. Archive months are computed in loc, UTC if nil.
func New(db *gorm.DB, loc *time.Location) *Store {
	if loc == nil {
		loc = time.UTC
	}
	return &Store{db: db, loc: loc}
}

// Location returns the timezone used for archive boundaries
func (s *Store) Location() *time.Location {
	return s.loc
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// notFound maps GORM's missing-row error to ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// IsValidation reports whether err is a model validation failure raised by
// a save hook
func IsValidation(err error) bool {
	var verrs validator.ValidationErrors
	return errors.As(err, &verrs)
}
