// Package base provides generic helpers shared by repositories.
package base

import (
	"errors"

	"gorm.io/gorm"
)

// Page offset pagination. Limit <= 0 falls back to MaxLimit.
type Page struct {
	Limit  int `form:"limit" json:"limit"`
	Offset int `form:"offset" json:"offset"`
}

// MaxLimit upper bound applied to any requested page size
const MaxLimit = 1000

// Apply adds LIMIT/OFFSET to db
func (p Page) Apply(db *gorm.DB) *gorm.DB {
	limit := p.Limit
	if limit <= 0 || limit > MaxLimit {
		limit = MaxLimit
	}
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	return db.Limit(limit).Offset(offset)
}

// Repository generic read helpers over T, always run on the caller's transaction
type Repository[T any] struct{}

// First returns the first match, or gorm.ErrRecordNotFound
func (Repository[T]) First(tx *gorm.DB, query string, args ...interface{}) (*T, error) {
	var entity T
	if err := tx.Where(query, args...).First(&entity).Error; err != nil {
		return nil, err
	}
	return &entity, nil
}

// GetByID fetches by primary key
func (r Repository[T]) GetByID(tx *gorm.DB, id string) (*T, error) {
	return r.First(tx, "id = ?", id)
}

// Exists reports whether a row matching query exists
func (Repository[T]) Exists(tx *gorm.DB, query string, args ...interface{}) (bool, error) {
	var count int64
	err := tx.Model(new(T)).Where(query, args...).Limit(1).Count(&count).Error
	return count > 0, err
}

// Count total rows
func (Repository[T]) Count(tx *gorm.DB) (int64, error) {
	var count int64
	err := tx.Model(new(T)).Count(&count).Error
	return count, err
}

// List returns a page of rows in the given order
func (Repository[T]) List(tx *gorm.DB, order string, page Page) ([]*T, error) {
	entities := make([]*T, 0)
	err := page.Apply(tx.Model(new(T)).Order(order)).Find(&entities).Error
	return entities, err
}

// IsNotFound reports gorm's record not found
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
