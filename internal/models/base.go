package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base replaces gorm.Model for records exposed through the API: ids are opaque
// UUID strings rather than sequential integers.
type Base struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}
