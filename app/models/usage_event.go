package models

import "time"

const (
	FeatureTranscription = "transcription"
	FeatureArticle       = "article"
)

// UsageEvent records one metered consumption of a paid feature. The table is
// append-only: events are never mutated or deleted, and monthly consumption is
// computed by aggregating over the current calendar month.
//
// Quantity is minutes for transcription events and 1 for article events.
type UsageEvent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index:idx_usage_events_user_feature_ts,priority:1" json:"user_id"`
	FeatureType string    `gorm:"type:varchar(32);not null;index:idx_usage_events_user_feature_ts,priority:2" json:"feature_type"`
	Quantity    float64   `gorm:"not null" json:"quantity"`
	Timestamp   time.Time `gorm:"type:timestamp;not null;index:idx_usage_events_user_feature_ts,priority:3" json:"timestamp"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}
