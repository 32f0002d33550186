package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// UserSettings stores per-user preferences, most importantly the user-supplied
// Hugging Face inference API key used for transcription and article generation.
type UserSettings struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	UserID              uint           `gorm:"uniqueIndex" json:"user_id"`
	InferenceAPIKey     string         `gorm:"type:varchar(255);default:''" json:"-"`
	APIKeyVerifiedAt    *time.Time     `gorm:"type:timestamp;default:null" json:"api_key_verified_at"`
	DefaultTranscribe   bool           `gorm:"default:true" json:"default_transcribe"`
	DefaultWriteArticle bool           `gorm:"default:false" json:"default_write_article"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
}

const inferenceKeyPrefix = "hf_"

// GetOrCreateUserSettings returns existing settings or creates defaults
func GetOrCreateUserSettings(db *gorm.DB, userID uint) (*UserSettings, error) {
	var us UserSettings
	if err := db.Where("user_id = ?", userID).First(&us).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			us = UserSettings{UserID: userID, DefaultTranscribe: true}
			if err := db.Create(&us).Error; err != nil {
				return nil, err
			}
			return &us, nil
		}
		return nil, err
	}
	return &us, nil
}

// HasInferenceAPIKey reports whether the user stored a key at all
func (us *UserSettings) HasInferenceAPIKey() bool {
	return us != nil && strings.TrimSpace(us.InferenceAPIKey) != ""
}

// SetInferenceAPIKey stores a new key and clears the verification timestamp.
// Callers must persist the struct via the database after invoking this method.
func (us *UserSettings) SetInferenceAPIKey(key string) {
	us.InferenceAPIKey = strings.TrimSpace(key)
	us.APIKeyVerifiedAt = nil
}

// MarkAPIKeyVerified records a successful probe against the inference provider.
func (us *UserSettings) MarkAPIKeyVerified() {
	now := time.Now()
	us.APIKeyVerifiedAt = &now
}

// ValidInferenceAPIKeyFormat checks the key shape locally before any network
// call. Hugging Face keys start with "hf_" and are longer than 10 characters.
func ValidInferenceAPIKeyFormat(key string) bool {
	key = strings.TrimSpace(key)
	return strings.HasPrefix(key, inferenceKeyPrefix) && len(key) > 10
}
