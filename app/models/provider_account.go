package models

import (
	"time"

	"gorm.io/gorm"
)

// ProviderAccount links an external OAuth identity to a local user.
type ProviderAccount struct {
	ID             uint   `gorm:"primarykey"`
	UserID         uint   `gorm:"not null;index"`
	Provider       string `gorm:"not null;size:50;uniqueIndex:idx_provider_user"`
	ProviderUserID string `gorm:"not null;size:191;uniqueIndex:idx_provider_user"`
	AccessToken    string `gorm:"type:text"`
	RefreshToken   string `gorm:"type:text"`
	ExpiresAt      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}
