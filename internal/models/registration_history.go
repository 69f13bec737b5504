package models

import (
	"gorm.io/gorm"
)

// RegistrationHistory is an append-only snapshot written alongside every
// registration change.
type RegistrationHistory struct {
	gorm.Model
	RegistrationID string             `gorm:"size:36;index" json:"registrationId"`
	EventID        string             `gorm:"size:36;index" json:"eventId"`
	UserID         string             `gorm:"size:36;index" json:"userId"`
	Status         RegistrationStatus `json:"status"`
	SkillLevel     int                `json:"skillLevel"`
}
