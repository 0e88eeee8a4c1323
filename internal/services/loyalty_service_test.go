package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"fooddash/internal/models"
	"fooddash/internal/utils"
)

func newLoyaltyFixture(user *models.User) (LoyaltyService, *memUsers, *memLoyalty) {
	users := newMemUsers(user)
	txs := &memLoyalty{}
	return NewLoyaltyService(users, txs, 365*24*time.Hour, nil), users, txs
}

func TestTierFor(t *testing.T) {
	cases := []struct {
		points int
		level  models.LoyaltyLevel
	}{
		{0, models.LoyaltyLevelMember},
		{499, models.LoyaltyLevelMember},
		{500, models.LoyaltyLevelBronze},
		{1999, models.LoyaltyLevelBronze},
		{2000, models.LoyaltyLevelSilver},
		{5000, models.LoyaltyLevelGold},
		{25000, models.LoyaltyLevelPlatinum},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.level, TierFor(tc.points).Level, "lifetime points %d", tc.points)
	}
}

func TestPointsFor(t *testing.T) {
	assert.Equal(t, 120, PointsFor(100, TierFor(1800)))
	assert.Equal(t, 49, PointsFor(49.99, TierFor(0)))
	assert.Equal(t, 0, PointsFor(0, TierFor(0)))
	assert.Equal(t, 0, PointsFor(-10, TierFor(0)))
}

func TestLoyaltyService_EarnPoints(t *testing.T) {
	ctx := context.Background()
	user := &models.User{ID: primitive.NewObjectID(), LoyaltyPoints: 1800, LifetimePoints: 1800}
	svc, users, txs := newLoyaltyFixture(user)
	orderID := primitive.NewObjectID()

	result, err := svc.EarnPoints(ctx, user.ID, orderID, 100)
	require.NoError(t, err)
	assert.Equal(t, 120, result.PointsEarned)
	assert.Equal(t, 1920, result.TotalPoints)
	assert.Equal(t, models.LoyaltyLevelBronze, result.Level)

	_, err = svc.EarnPoints(ctx, user.ID, orderID, 100)
	assert.ErrorIs(t, err, utils.ErrAlreadyEarned)
	assert.True(t, IsAlreadyEarned(err))

	stored, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1920, stored.LoyaltyPoints)
	assert.Equal(t, 1920, stored.LifetimePoints)
	assert.Equal(t, 1, txs.count(models.LoyaltyTransactionEarned))
}

func TestLoyaltyService_EarnPointsConcurrentDuplicate(t *testing.T) {
	ctx := context.Background()
	user := &models.User{ID: primitive.NewObjectID()}
	svc, users, txs := newLoyaltyFixture(user)
	orderID := primitive.NewObjectID()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.EarnPoints(ctx, user.ID, orderID, 42)
		}()
	}
	wg.Wait()

	stored, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 42, stored.LoyaltyPoints)
	assert.Equal(t, 1, txs.count(models.LoyaltyTransactionEarned))
}

func TestLoyaltyService_Redeem(t *testing.T) {
	ctx := context.Background()
	user := &models.User{ID: primitive.NewObjectID(), LoyaltyPoints: 600, LifetimePoints: 600}
	svc, users, txs := newLoyaltyFixture(user)

	result, err := svc.Redeem(ctx, user.ID, "discount_5")
	require.NoError(t, err)
	assert.Equal(t, 100, result.RemainingPoints)
	assert.Equal(t, 5.0, result.Reward.Value)
	assert.Equal(t, 1, txs.count(models.LoyaltyTransactionRedeemed))

	_, err = svc.Redeem(ctx, user.ID, "discount_5")
	assert.ErrorIs(t, err, utils.ErrInsufficientPoints)

	_, err = svc.Redeem(ctx, user.ID, "free_pizza")
	assert.ErrorIs(t, err, utils.ErrRewardNotFound)

	stored, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, stored.LoyaltyPoints)
	assert.Equal(t, 600, stored.LifetimePoints, "redeeming never lowers the tier")
}

func TestLoyaltyService_ExpirePoints(t *testing.T) {
	ctx := context.Background()
	user := &models.User{ID: primitive.NewObjectID(), LoyaltyPoints: 30, LifetimePoints: 80}
	svc, users, txs := newLoyaltyFixture(user)

	past := time.Now().Add(-time.Hour)
	orderID := primitive.NewObjectID()
	require.NoError(t, txs.CreateTransaction(ctx, &models.LoyaltyTransaction{
		UserID:    user.ID,
		OrderID:   &orderID,
		Type:      models.LoyaltyTransactionEarned,
		Points:    50,
		ExpiresAt: &past,
	}))

	expired, err := svc.ExpirePoints(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	stored, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.LoyaltyPoints, "expiry never drives the balance negative")
	assert.Equal(t, 80, stored.LifetimePoints)
	assert.Equal(t, 1, txs.count(models.LoyaltyTransactionExpired))

	expired, err = svc.ExpirePoints(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, expired)
}

func TestLoyaltyService_GetSummary(t *testing.T) {
	ctx := context.Background()
	user := &models.User{ID: primitive.NewObjectID(), LoyaltyPoints: 300, LifetimePoints: 1800}
	svc, _, _ := newLoyaltyFixture(user)

	summary, err := svc.GetSummary(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LoyaltyLevelBronze, summary.Level)
	assert.Equal(t, 1.2, summary.Multiplier)
	require.NotNil(t, summary.NextLevel)
	assert.Equal(t, models.LoyaltyLevelSilver, *summary.NextLevel)
	assert.Equal(t, 200, summary.PointsToNextLevel)
}
