package billing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vidscribe/VidScribe/app/models"
)

type fakeRepo struct {
	current map[uint]*models.Subscription
	history []models.SubscriptionHistory
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{current: make(map[uint]*models.Subscription)}
}

func (f *fakeRepo) GetCurrentSubscription(userID uint) (*models.Subscription, error) {
	sub, ok := f.current[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *sub
	return &cp, nil
}

func (f *fakeRepo) SetCurrentSubscription(sub *models.Subscription) error {
	cp := *sub
	f.current[sub.UserID] = &cp
	return nil
}

func (f *fakeRepo) AppendHistory(entry *models.SubscriptionHistory) error {
	f.history = append(f.history, *entry)
	return nil
}

func (f *fakeRepo) ListHistoryByUser(userID uint) ([]models.SubscriptionHistory, error) {
	var out []models.SubscriptionHistory
	for _, e := range f.history {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestCaptureOrderMonthlyPlan(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	svc := NewService(repo).WithClock(fixedClock(now))

	sub, err := svc.CaptureOrder(context.Background(), CapturedOrder{UserID: 7, PlanID: "pro", OrderID: "ORDER-123"})
	require.NoError(t, err)

	assert.Equal(t, "pro", sub.PlanID)
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, now, sub.StartDate)
	require.NotNil(t, sub.EndDate)
	assert.Equal(t, now.AddDate(0, 1, 0), *sub.EndDate)

	// One current record, one history entry.
	require.Len(t, repo.history, 1)
	assert.Equal(t, "pro", repo.history[0].PlanID)
	current, err := svc.GetCurrent(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "ORDER-123", current.OrderID)
}

func TestCaptureOrderLifetimeHasNoEndDate(t *testing.T) {
	svc := NewService(newFakeRepo())

	sub, err := svc.CaptureOrder(context.Background(), CapturedOrder{UserID: 1, PlanID: "lifetime", OrderID: "ORDER-9"})
	require.NoError(t, err)
	assert.Nil(t, sub.EndDate)
	assert.True(t, sub.IsLifetime())
	assert.True(t, sub.IsActive(time.Now().AddDate(50, 0, 0)))
}

func TestCaptureOrderRejectsUnknownPlan(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	_, err := svc.CaptureOrder(context.Background(), CapturedOrder{UserID: 1, PlanID: "gold", OrderID: "X"})
	require.Error(t, err)
	assert.Empty(t, repo.history, "nothing may be written for an invalid plan")
	assert.Empty(t, repo.current)
}

func TestSetCurrentOverwritesAndAppendsHistory(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	svc := NewService(repo).WithClock(fixedClock(now))
	ctx := context.Background()

	_, err := svc.CaptureOrder(ctx, CapturedOrder{UserID: 3, PlanID: "basic", OrderID: "A"})
	require.NoError(t, err)
	_, err = svc.CaptureOrder(ctx, CapturedOrder{UserID: 3, PlanID: "premium", OrderID: "B"})
	require.NoError(t, err)

	current, err := svc.GetCurrent(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "premium", current.PlanID, "current record is overwritten")

	history, err := repo.ListHistoryByUser(3)
	require.NoError(t, err)
	assert.Len(t, history, 2, "history keeps every version")
}

func TestCurrentPlanFallsBackToFree(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	svc := NewService(repo).WithClock(fixedClock(now))
	ctx := context.Background()

	// No subscription at all.
	plan, err := svc.CurrentPlan(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "free", plan)

	// Expired subscription.
	past := now.AddDate(0, -2, 0)
	end := past.AddDate(0, 1, 0)
	repo.current[42] = &models.Subscription{
		UserID: 42, PlanID: "pro", OrderID: "O",
		Status: models.SubscriptionStatusActive, StartDate: past, EndDate: &end,
	}
	plan, err = svc.CurrentPlan(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "free", plan)

	// Cancelled subscription.
	future := now.AddDate(0, 1, 0)
	repo.current[42].Status = models.SubscriptionStatusCancelled
	repo.current[42].EndDate = &future
	plan, err = svc.CurrentPlan(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "free", plan)
}

func TestHasActive(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	svc := NewService(repo).WithClock(fixedClock(now))
	ctx := context.Background()

	active, err := svc.HasActive(ctx, 9)
	require.NoError(t, err)
	assert.False(t, active)

	_, err = svc.CaptureOrder(ctx, CapturedOrder{UserID: 9, PlanID: "basic", OrderID: "Z"})
	require.NoError(t, err)

	active, err = svc.HasActive(ctx, 9)
	require.NoError(t, err)
	assert.True(t, active)
}

func TestFindOffer(t *testing.T) {
	for _, id := range []string{"basic", "pro", "premium", "lifetime"} {
		offer, ok := FindOffer(id)
		require.True(t, ok, id)
		assert.Equal(t, id, offer.ID)
		assert.Greater(t, offer.Price, 0.0)
	}
	_, ok := FindOffer("free")
	assert.False(t, ok, "free tier is not purchasable")
}
