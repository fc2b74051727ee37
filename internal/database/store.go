package database

import (
	"time"

	"gorm.io/gorm"
)

// Store is the gorm-backed persistence collaborator of the webhook
// reconciler and the storefront access check.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStore wraps an open gorm handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// GetDB returns database instance
func GetDB() *gorm.DB {
	return DB
}
