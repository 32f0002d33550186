package usage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidscribe/VidScribe/app/models"
	"github.com/vidscribe/VidScribe/internal/pkg/entitlements"
)

type memoryRepo struct {
	events  []models.UsageEvent
	failing bool
}

func (m *memoryRepo) AppendEvent(event *models.UsageEvent) error {
	if m.failing {
		return errors.New("write refused")
	}
	m.events = append(m.events, *event)
	return nil
}

func (m *memoryRepo) SumQuantitySince(userID uint, featureType string, since time.Time) (float64, error) {
	if m.failing {
		return 0, errors.New("read refused")
	}
	var total float64
	for _, e := range m.events {
		if e.UserID == userID && e.FeatureType == featureType && !e.Timestamp.Before(since) {
			total += e.Quantity
		}
	}
	return total, nil
}

type staticPlans struct {
	plan string
	err  error
}

func (s staticPlans) CurrentPlan(ctx context.Context, userID uint) (string, error) {
	return s.plan, s.err
}

func TestCurrentMonthUsageBoundary(t *testing.T) {
	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	monthStart := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	repo := &memoryRepo{events: []models.UsageEvent{
		// Last instant of the previous month: excluded.
		{UserID: 1, FeatureType: models.FeatureTranscription, Quantity: 10, Timestamp: monthStart.Add(-time.Nanosecond)},
		// First instant of the current month: included.
		{UserID: 1, FeatureType: models.FeatureTranscription, Quantity: 3, Timestamp: monthStart},
		{UserID: 1, FeatureType: models.FeatureTranscription, Quantity: 2, Timestamp: now.Add(-time.Hour)},
		// Other feature and other user: excluded.
		{UserID: 1, FeatureType: models.FeatureArticle, Quantity: 1, Timestamp: now},
		{UserID: 2, FeatureType: models.FeatureTranscription, Quantity: 7, Timestamp: now},
	}}
	ledger := NewLedger(repo, staticPlans{plan: "free"}).WithClock(func() time.Time { return now })

	used, err := ledger.CurrentMonthUsage(context.Background(), 1, models.FeatureTranscription)
	require.NoError(t, err)
	assert.Equal(t, 5.0, used)
}

func TestRecordTranscriptionBillsByElapsedMinutes(t *testing.T) {
	repo := &memoryRepo{}
	ledger := NewLedger(repo, staticPlans{plan: "free"})

	require.NoError(t, ledger.RecordTranscription(context.Background(), 1, 90*time.Second))

	require.Len(t, repo.events, 1)
	assert.Equal(t, models.FeatureTranscription, repo.events[0].FeatureType)
	assert.InDelta(t, 1.5, repo.events[0].Quantity, 1e-9)
}

func TestRecordArticle(t *testing.T) {
	repo := &memoryRepo{}
	ledger := NewLedger(repo, staticPlans{plan: "free"})

	require.NoError(t, ledger.RecordArticle(context.Background(), 1))

	require.Len(t, repo.events, 1)
	assert.Equal(t, models.FeatureArticle, repo.events[0].FeatureType)
	assert.Equal(t, 1.0, repo.events[0].Quantity)
}

func TestRecordRejectsUnknownFeature(t *testing.T) {
	ledger := NewLedger(&memoryRepo{}, staticPlans{plan: "free"})
	require.Error(t, ledger.Record(context.Background(), 1, "export", 1))
}

func TestCheckLimitReached(t *testing.T) {
	now := time.Now()
	repo := &memoryRepo{events: []models.UsageEvent{
		{UserID: 1, FeatureType: models.FeatureTranscription, Quantity: 30, Timestamp: now},
	}}
	ledger := NewLedger(repo, staticPlans{plan: "basic"})

	check := ledger.CheckLimit(context.Background(), 1, models.FeatureTranscription)
	assert.True(t, check.Reached, "30/30 minutes means the limit is reached")
	assert.Equal(t, 30.0, check.Used)
	assert.Equal(t, 30.0, check.Limit)
}

func TestCheckLimitUnderQuota(t *testing.T) {
	now := time.Now()
	repo := &memoryRepo{events: []models.UsageEvent{
		{UserID: 1, FeatureType: models.FeatureArticle, Quantity: 2, Timestamp: now},
	}}
	ledger := NewLedger(repo, staticPlans{plan: "basic"})

	check := ledger.CheckLimit(context.Background(), 1, models.FeatureArticle)
	assert.False(t, check.Reached)
	assert.Equal(t, 2.0, check.Used)
	assert.Equal(t, 5.0, check.Limit)
}

func TestCheckLimitUnlimitedPlansNeverReached(t *testing.T) {
	now := time.Now()
	for _, plan := range []string{"premium", "lifetime"} {
		repo := &memoryRepo{events: []models.UsageEvent{
			{UserID: 1, FeatureType: models.FeatureTranscription, Quantity: 1e9, Timestamp: now},
			{UserID: 1, FeatureType: models.FeatureArticle, Quantity: 1e9, Timestamp: now},
		}}
		ledger := NewLedger(repo, staticPlans{plan: plan})

		assert.False(t, ledger.CheckLimit(context.Background(), 1, models.FeatureTranscription).Reached, plan)
		assert.False(t, ledger.CheckLimit(context.Background(), 1, models.FeatureArticle).Reached, plan)
		assert.True(t, entitlements.IsUnlimited(ledger.CheckLimit(context.Background(), 1, models.FeatureArticle).Limit))
	}
}

func TestCheckLimitFailsClosed(t *testing.T) {
	// Ledger read error → limit reached.
	ledger := NewLedger(&memoryRepo{failing: true}, staticPlans{plan: "premium"})
	assert.True(t, ledger.CheckLimit(context.Background(), 1, models.FeatureTranscription).Reached)

	// Plan resolution error → limit reached.
	ledger = NewLedger(&memoryRepo{}, staticPlans{err: errors.New("db down")})
	assert.True(t, ledger.CheckLimit(context.Background(), 1, models.FeatureArticle).Reached)
}
