package models

import (
	"time"

	"gorm.io/gorm"
)

type APIKey struct {
	gorm.Model
	UserID     string     `gorm:"size:36;index" json:"userId"`
	User       User       `json:"-"`
	Key        string     `json:"key" gorm:"uniqueIndex"`
	Name       string     `json:"name"`
	ExpiresAt  *time.Time `json:"expiresAt"`
	LastUsedAt *time.Time `json:"lastUsedAt"`
}
