package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RegistrationStatus string

const (
	RegistrationRegistered RegistrationStatus = "REGISTERED"
	// RegistrationCheckedIn is reserved; no operation moves a registration into it yet.
	RegistrationCheckedIn RegistrationStatus = "CHECKED_IN"
	RegistrationCancelled RegistrationStatus = "CANCELLED"
)

// Registration is unique per (event, user); see idx_event_user.
type Registration struct {
	ID           string             `gorm:"primaryKey;size:36" json:"id"`
	EventID      string             `gorm:"size:36;not null;uniqueIndex:idx_event_user" json:"eventId"`
	UserID       string             `gorm:"size:36;not null;uniqueIndex:idx_event_user" json:"userId"`
	Event        Event              `gorm:"foreignKey:EventID" json:"-"`
	User         User               `gorm:"foreignKey:UserID" json:"-"`
	SkillLevel   int                `gorm:"not null" json:"skillLevel"`
	Status       RegistrationStatus `gorm:"size:16;index;not null" json:"status"`
	RegisteredAt time.Time          `gorm:"autoCreateTime" json:"registeredAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

func (r *Registration) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
