package models

import "time"

const (
	PlanNone     = "none"
	PlanBasic    = "basic"
	PlanPro      = "pro"
	PlanPremium  = "premium"
	PlanLifetime = "lifetime"
)

const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusExpired   = "expired"
)

// Subscription is the single current plan record per user, overwritten on each
// successful payment. EndDate is nil exactly for lifetime plans.
type Subscription struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	PlanID    string     `gorm:"type:varchar(50);not null;default:'none'" json:"plan_id"`
	OrderID   string     `gorm:"type:varchar(191);not null" json:"order_id"`
	Status    string     `gorm:"type:varchar(32);not null;default:'active';index" json:"status"`
	StartDate time.Time  `gorm:"type:timestamp;not null" json:"start_date"`
	EndDate   *time.Time `gorm:"type:timestamp;default:null" json:"end_date,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsLifetime reports whether the record is a lifetime plan.
func (s *Subscription) IsLifetime() bool {
	return s.PlanID == PlanLifetime
}

// IsActive reports whether the subscription currently entitles the user:
// status active and not past its validity window. Lifetime plans carry a nil
// EndDate and never expire.
func (s *Subscription) IsActive(now time.Time) bool {
	if s == nil || s.Status != SubscriptionStatusActive {
		return false
	}
	if s.EndDate == nil {
		return s.IsLifetime()
	}
	return s.EndDate.After(now)
}

// SubscriptionHistory is an append-only audit log of every subscription
// written for a user. Rows are never mutated or deleted.
type SubscriptionHistory struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	PlanID    string     `gorm:"type:varchar(50);not null" json:"plan_id"`
	OrderID   string     `gorm:"type:varchar(191);not null" json:"order_id"`
	Status    string     `gorm:"type:varchar(32);not null" json:"status"`
	StartDate time.Time  `gorm:"type:timestamp;not null" json:"start_date"`
	EndDate   *time.Time `gorm:"type:timestamp;default:null" json:"end_date,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
