package models

import (
	"time"

	"tripbudget/internal/uuid"

	"gorm.io/gorm"
)

// Base contains common columns for all tables.
// Rows are hard-deleted: the stores replace whole collections, so a
// soft-deleted row would collide with a re-saved id.
type Base struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}
