package billing

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vidscribe/VidScribe/app/models"
)

// Repository provides DB operations used by the billing service.
type Repository interface {
	GetCurrentSubscription(userID uint) (*models.Subscription, error)
	SetCurrentSubscription(sub *models.Subscription) error
	AppendHistory(entry *models.SubscriptionHistory) error
	ListHistoryByUser(userID uint) ([]models.SubscriptionHistory, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetCurrentSubscription(userID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("user_id = ?", userID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) SetCurrentSubscription(sub *models.Subscription) error {
	// One current row per user: overwrite on conflict.
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"plan_id",
			"order_id",
			"status",
			"start_date",
			"end_date",
			"updated_at",
		}),
	}).Create(sub).Error; err != nil {
		return err
	}

	return r.db.Where("user_id = ?", sub.UserID).First(sub).Error
}

func (r *gormRepository) AppendHistory(entry *models.SubscriptionHistory) error {
	return r.db.Create(entry).Error
}

func (r *gormRepository) ListHistoryByUser(userID uint) ([]models.SubscriptionHistory, error) {
	var entries []models.SubscriptionHistory
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&entries).Error
	return entries, err
}
