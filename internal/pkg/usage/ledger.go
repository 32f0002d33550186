package usage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/vidscribe/VidScribe/app/models"
	"github.com/vidscribe/VidScribe/internal/pkg/entitlements"
)

// PlanResolver yields the effective plan id for a user. Satisfied by the
// billing service.
type PlanResolver interface {
	CurrentPlan(ctx context.Context, userID uint) (string, error)
}

// Repository provides DB operations used by the usage ledger.
type Repository interface {
	AppendEvent(event *models.UsageEvent) error
	SumQuantitySince(userID uint, featureType string, since time.Time) (float64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a usage repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) AppendEvent(event *models.UsageEvent) error {
	return r.db.Create(event).Error
}

func (r *gormRepository) SumQuantitySince(userID uint, featureType string, since time.Time) (float64, error) {
	var total float64
	err := r.db.Model(&models.UsageEvent{}).
		Where("user_id = ? AND feature_type = ? AND timestamp >= ?", userID, featureType, since).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	return total, err
}

// LimitCheck is the outcome of a quota check for one feature.
type LimitCheck struct {
	Used    float64
	Limit   float64
	Reached bool
}

// Ledger records per-user, per-feature consumption events and answers whether
// a user exceeded their monthly quota.
type Ledger struct {
	repo  Repository
	plans PlanResolver
	now   func() time.Time
}

// NewLedger creates a usage ledger over a repository and a plan resolver.
func NewLedger(repo Repository, plans PlanResolver) *Ledger {
	return &Ledger{repo: repo, plans: plans, now: time.Now}
}

// NewLedgerFromDB creates a usage ledger from a GORM DB handle.
func NewLedgerFromDB(db *gorm.DB, plans PlanResolver) *Ledger {
	return NewLedger(NewRepository(db), plans)
}

// WithClock overrides the time source (for tests).
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// Record appends one usage event with the current timestamp. The write is
// append-only and not idempotent: a retried call double-counts.
func (l *Ledger) Record(ctx context.Context, userID uint, featureType string, quantity float64) error {
	_ = ctx
	if userID == 0 {
		return errors.New("user_id is required")
	}
	if featureType != models.FeatureTranscription && featureType != models.FeatureArticle {
		return errors.New("unknown feature type: " + featureType)
	}
	return l.repo.AppendEvent(&models.UsageEvent{
		UserID:      userID,
		FeatureType: featureType,
		Quantity:    quantity,
		Timestamp:   l.now(),
	})
}

// RecordTranscription bills a transcription by wall-clock call duration.
func (l *Ledger) RecordTranscription(ctx context.Context, userID uint, elapsed time.Duration) error {
	return l.Record(ctx, userID, models.FeatureTranscription, elapsed.Seconds()/60)
}

// RecordArticle bills one generated article.
func (l *Ledger) RecordArticle(ctx context.Context, userID uint) error {
	return l.Record(ctx, userID, models.FeatureArticle, 1)
}

// CurrentMonthUsage sums event quantities from the first instant of the
// current calendar month onward (boundary inclusive).
func (l *Ledger) CurrentMonthUsage(ctx context.Context, userID uint, featureType string) (float64, error) {
	_ = ctx
	return l.repo.SumQuantitySince(userID, featureType, l.monthStart())
}

// CheckLimit combines recorded usage with the plan's quota limit. It fails
// closed: any read error is reported as "limit reached" so an unreadable
// ledger can never grant unmetered usage.
func (l *Ledger) CheckLimit(ctx context.Context, userID uint, featureType string) LimitCheck {
	plan, err := l.plans.CurrentPlan(ctx, userID)
	if err != nil {
		return LimitCheck{Reached: true}
	}

	limits := entitlements.PlanLimits(plan)
	var limit float64
	switch featureType {
	case models.FeatureTranscription:
		limit = limits.TranscriptionMinutes
	case models.FeatureArticle:
		limit = limits.ArticlesPerMonth
	default:
		return LimitCheck{Reached: true}
	}

	used, err := l.CurrentMonthUsage(ctx, userID, featureType)
	if err != nil {
		return LimitCheck{Limit: limit, Reached: true}
	}

	if entitlements.IsUnlimited(limit) {
		return LimitCheck{Used: used, Limit: limit, Reached: false}
	}
	return LimitCheck{Used: used, Limit: limit, Reached: used >= limit}
}

func (l *Ledger) monthStart() time.Time {
	now := l.now()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}
