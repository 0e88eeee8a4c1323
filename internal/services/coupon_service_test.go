package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"fooddash/internal/models"
	"fooddash/internal/utils"
)

func floatPtr(v float64) *float64 { return &v }

func activeCoupon(code string, discountType models.DiscountType, value float64) *models.Coupon {
	now := time.Now()
	return &models.Coupon{
		ID:            primitive.NewObjectID(),
		Code:          code,
		DiscountType:  discountType,
		DiscountValue: value,
		StartDate:     now.Add(-24 * time.Hour),
		EndDate:       now.Add(24 * time.Hour),
		IsActive:      true,
	}
}

func newCouponFixture(coupons ...*models.Coupon) (*couponService, *memCoupons, *memUsers, *memOrders, *models.User) {
	user := &models.User{ID: primitive.NewObjectID(), Role: models.RoleCustomer}
	couponRepo := newMemCoupons(coupons...)
	userRepo := newMemUsers(user)
	orderRepo := newMemOrders()
	svc := NewCouponService(couponRepo, userRepo, orderRepo, nil).(*couponService)
	return svc, couponRepo, userRepo, orderRepo, user
}

func TestCalculateDiscount(t *testing.T) {
	save10 := activeCoupon("SAVE10", models.DiscountTypePercentage, 10)
	save10.MaxDiscountAmount = floatPtr(5)
	save10.MinOrderValue = 20

	discount, final := CalculateDiscount(save10, 40)
	assert.Equal(t, "4.00", discount.StringFixed(2))
	assert.Equal(t, "36.00", final.StringFixed(2))

	discount, final = CalculateDiscount(save10, 80)
	assert.Equal(t, "5.00", discount.StringFixed(2), "cap binds above $50")
	assert.Equal(t, "75.00", final.StringFixed(2))

	flat100 := activeCoupon("FLAT100", models.DiscountTypeFixed, 100)
	discount, final = CalculateDiscount(flat100, 50)
	assert.Equal(t, "50.00", discount.StringFixed(2))
	assert.True(t, final.IsZero())

	discount, final = CalculateDiscount(activeCoupon("ODD", models.DiscountTypePercentage, 15), 33.33)
	assert.Equal(t, "5.00", discount.StringFixed(2))
	assert.Equal(t, "28.33", final.StringFixed(2))
}

func TestCouponService_Validate(t *testing.T) {
	save10 := activeCoupon("SAVE10", models.DiscountTypePercentage, 10)
	save10.MaxDiscountAmount = floatPtr(5)
	save10.MinOrderValue = 20
	svc, _, _, _, user := newCouponFixture(save10)

	quote, err := svc.Validate(context.Background(), "SAVE10", user.ID, 40, nil)
	require.NoError(t, err)
	assert.Equal(t, 4.0, quote.DiscountAmount)
	assert.Equal(t, 36.0, quote.FinalAmount)

	_, err = svc.Validate(context.Background(), "SAVE10", user.ID, 19.99, nil)
	assert.ErrorIs(t, err, utils.ErrCouponMinOrder)

	_, err = svc.Validate(context.Background(), "NOPE", user.ID, 40, nil)
	assert.ErrorIs(t, err, utils.ErrCouponNotFound)
}

func TestCouponService_CheckOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("inactive before window", func(t *testing.T) {
		c := activeCoupon("OFF", models.DiscountTypeFixed, 5)
		c.IsActive = false
		c.StartDate = time.Now().Add(time.Hour)
		svc, _, _, _, user := newCouponFixture(c)
		_, err := svc.Validate(ctx, "OFF", user.ID, 40, nil)
		assert.ErrorIs(t, err, utils.ErrCouponInactive)
	})

	t.Run("not started", func(t *testing.T) {
		c := activeCoupon("SOON", models.DiscountTypeFixed, 5)
		c.StartDate = time.Now().Add(time.Hour)
		svc, _, _, _, user := newCouponFixture(c)
		_, err := svc.Validate(ctx, "SOON", user.ID, 40, nil)
		assert.ErrorIs(t, err, utils.ErrCouponNotStarted)
	})

	t.Run("expired before exhausted", func(t *testing.T) {
		c := activeCoupon("OLD", models.DiscountTypeFixed, 5)
		c.EndDate = time.Now().Add(-time.Minute)
		c.UsageLimit.Total = 1
		c.UsageCount = 1
		svc, _, _, _, user := newCouponFixture(c)
		_, err := svc.Validate(ctx, "OLD", user.ID, 40, nil)
		assert.ErrorIs(t, err, utils.ErrCouponExpired)
	})

	t.Run("exhausted", func(t *testing.T) {
		c := activeCoupon("GONE", models.DiscountTypeFixed, 5)
		c.UsageLimit.Total = 2
		c.UsageCount = 2
		svc, _, _, _, user := newCouponFixture(c)
		_, err := svc.Validate(ctx, "GONE", user.ID, 40, nil)
		assert.ErrorIs(t, err, utils.ErrCouponExhausted)
	})

	t.Run("per user limit", func(t *testing.T) {
		c := activeCoupon("ONCE", models.DiscountTypeFixed, 5)
		c.UsageLimit.PerUser = 1
		svc, _, users, _, user := newCouponFixture(c)
		require.NoError(t, users.RecordCouponUse(ctx, user.ID, models.UsedCoupon{CouponID: c.ID, OrderID: primitive.NewObjectID()}, 0))
		_, err := svc.Validate(ctx, "ONCE", user.ID, 40, nil)
		assert.ErrorIs(t, err, utils.ErrCouponUserLimit)
	})

	t.Run("new users only", func(t *testing.T) {
		c := activeCoupon("WELCOME", models.DiscountTypeFixed, 5)
		c.UserEligibility.NewUsersOnly = true
		svc, _, _, orders, user := newCouponFixture(c)

		_, err := svc.Validate(ctx, "WELCOME", user.ID, 40, nil)
		require.NoError(t, err)

		require.NoError(t, orders.Create(ctx, &models.Order{CustomerID: user.ID}))
		_, err = svc.Validate(ctx, "WELCOME", user.ID, 40, nil)
		assert.ErrorIs(t, err, utils.ErrCouponNewUsersOnly)
	})

	t.Run("restaurant scope", func(t *testing.T) {
		allowed := primitive.NewObjectID()
		other := primitive.NewObjectID()
		c := activeCoupon("PIZZA", models.DiscountTypeFixed, 5)
		c.ApplicableRestaurants = []primitive.ObjectID{allowed}
		svc, _, _, _, user := newCouponFixture(c)

		_, err := svc.Validate(ctx, "PIZZA", user.ID, 40, &allowed)
		require.NoError(t, err)
		_, err = svc.Validate(ctx, "PIZZA", user.ID, 40, &other)
		assert.ErrorIs(t, err, utils.ErrCouponRestaurant)
		_, err = svc.Validate(ctx, "PIZZA", user.ID, 40, nil)
		assert.ErrorIs(t, err, utils.ErrCouponRestaurant)
	})
}

func TestCouponService_ApplyAndRelease(t *testing.T) {
	ctx := context.Background()
	c := activeCoupon("FLAT100", models.DiscountTypeFixed, 100)
	c.UsageLimit = models.UsageLimit{Total: 10, PerUser: 1}
	svc, coupons, users, _, user := newCouponFixture(c)
	orderID := primitive.NewObjectID()

	redemption, err := svc.Apply(ctx, "FLAT100", user.ID, orderID, 50, nil)
	require.NoError(t, err)
	assert.Equal(t, 50.0, redemption.DiscountAmount)
	assert.Equal(t, 0.0, redemption.FinalAmount)
	assert.Equal(t, 1, coupons.usage(c.ID))

	stored, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, stored.UsedCoupons, 1)
	assert.Equal(t, orderID, stored.UsedCoupons[0].OrderID)

	_, err = svc.Apply(ctx, "FLAT100", user.ID, primitive.NewObjectID(), 50, nil)
	assert.ErrorIs(t, err, utils.ErrCouponUserLimit)
	assert.Equal(t, 1, coupons.usage(c.ID))

	require.NoError(t, svc.Release(ctx, redemption))
	assert.Equal(t, 0, coupons.usage(c.ID))
	stored, err = users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, stored.UsedCoupons, 1)
	assert.NotNil(t, stored.UsedCoupons[0].ReleasedAt)
	assert.Equal(t, 0, stored.CouponUsageCount(c.ID))

	again, err := svc.Apply(ctx, "FLAT100", user.ID, primitive.NewObjectID(), 50, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, coupons.usage(c.ID))
	stored, err = users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, stored.UsedCoupons, 2)
	assert.Equal(t, again.OrderID, stored.UsedCoupons[1].OrderID)
	assert.Nil(t, stored.UsedCoupons[1].ReleasedAt)
}

func TestCouponService_ApplyRespectsTotalLimitUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	c := activeCoupon("LIMITED", models.DiscountTypeFixed, 5)
	c.UsageLimit.Total = 3

	couponRepo := newMemCoupons(c)
	userRepo := newMemUsers()
	users := make([]primitive.ObjectID, 20)
	for i := range users {
		users[i] = primitive.NewObjectID()
		userRepo.users[users[i]] = &models.User{ID: users[i], Role: models.RoleCustomer}
	}
	svc := NewCouponService(couponRepo, userRepo, newMemOrders(), nil)

	var wg sync.WaitGroup
	var applied atomic.Int32
	for _, id := range users {
		wg.Add(1)
		go func(userID primitive.ObjectID) {
			defer wg.Done()
			if _, err := svc.Apply(ctx, "LIMITED", userID, primitive.NewObjectID(), 40, nil); err == nil {
				applied.Add(1)
			} else {
				assert.ErrorIs(t, err, utils.ErrCouponExhausted)
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, int32(3), applied.Load())
	assert.Equal(t, 3, couponRepo.usage(c.ID))
}

func TestCouponService_CreateCoupon(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _, _ := newCouponFixture()
	admin := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}

	coupon := activeCoupon("new10", models.DiscountTypePercentage, 10)
	created, err := svc.CreateCoupon(ctx, admin, coupon)
	require.NoError(t, err)
	assert.Equal(t, "NEW10", created.Code)

	_, err = svc.CreateCoupon(ctx, admin, activeCoupon("NEW10", models.DiscountTypeFixed, 1))
	assert.ErrorIs(t, err, utils.ErrCouponCodeTaken)
}
