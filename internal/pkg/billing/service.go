package billing

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/vidscribe/VidScribe/app/models"
	"github.com/vidscribe/VidScribe/internal/pkg/entitlements"
)

// Service manages the per-user subscription record and its audit history.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a billing service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// WithClock overrides the time source (for tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// GetCurrent returns the user's current subscription, or nil when the user
// never purchased a plan.
func (s *Service) GetCurrent(ctx context.Context, userID uint) (*models.Subscription, error) {
	_ = ctx
	sub, err := s.repo.GetCurrentSubscription(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sub, nil
}

// CurrentPlan resolves the user's effective plan id for quota purposes. A
// missing or inactive subscription maps to the free tier.
func (s *Service) CurrentPlan(ctx context.Context, userID uint) (string, error) {
	sub, err := s.GetCurrent(ctx, userID)
	if err != nil {
		return string(entitlements.PlanFree), err
	}
	if sub == nil || !sub.IsActive(s.now()) {
		return string(entitlements.PlanFree), nil
	}
	return string(entitlements.NormalizePlan(sub.PlanID)), nil
}

// SetCurrent overwrites the user's current subscription and appends an
// immutable history entry. The two writes are not transactional with the
// usage ledger: a crash between payment capture and this call is possible and
// unrecovered.
func (s *Service) SetCurrent(ctx context.Context, userID uint, sub *models.Subscription) error {
	_ = ctx
	if userID == 0 || sub == nil {
		return errors.New("user_id and subscription are required")
	}
	sub.UserID = userID

	if err := s.repo.AppendHistory(&models.SubscriptionHistory{
		UserID:    userID,
		PlanID:    sub.PlanID,
		OrderID:   sub.OrderID,
		Status:    sub.Status,
		StartDate: sub.StartDate,
		EndDate:   sub.EndDate,
	}); err != nil {
		return err
	}

	return s.repo.SetCurrentSubscription(sub)
}

// HasActive reports whether the user currently holds an entitling
// subscription.
func (s *Service) HasActive(ctx context.Context, userID uint) (bool, error) {
	sub, err := s.GetCurrent(ctx, userID)
	if err != nil {
		return false, err
	}
	return sub.IsActive(s.now()), nil
}

// CaptureOrder turns a completed checkout into the user's current
// subscription. Unknown plan ids are rejected before anything is written.
func (s *Service) CaptureOrder(ctx context.Context, order CapturedOrder) (*models.Subscription, error) {
	planID := strings.ToLower(strings.TrimSpace(order.PlanID))
	if _, ok := FindOffer(planID); !ok {
		return nil, errors.New("unknown plan: " + order.PlanID)
	}
	if order.UserID == 0 || strings.TrimSpace(order.OrderID) == "" {
		return nil, errors.New("user_id and order_id are required")
	}

	start, end := subscriptionTerm(planID, s.now())
	sub := &models.Subscription{
		UserID:    order.UserID,
		PlanID:    planID,
		OrderID:   strings.TrimSpace(order.OrderID),
		Status:    models.SubscriptionStatusActive,
		StartDate: start,
		EndDate:   end,
	}
	if err := s.SetCurrent(ctx, order.UserID, sub); err != nil {
		return nil, err
	}
	return sub, nil
}
