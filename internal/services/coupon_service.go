package services

import (
	"context"
	"strings"
	"time"

	"fooddash/internal/models"
	"fooddash/internal/repositories/interfaces"
	"fooddash/internal/utils"
	"fooddash/pkg/logger"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CouponService interface {
	// Redemption
	Validate(ctx context.Context, code string, userID primitive.ObjectID, orderValue float64, restaurantID *primitive.ObjectID) (*models.CouponQuote, error)
	Apply(ctx context.Context, code string, userID, orderID primitive.ObjectID, orderValue float64, restaurantID *primitive.ObjectID) (*models.CouponRedemption, error)
	Release(ctx context.Context, redemption *models.CouponRedemption) error
	ListAvailable(ctx context.Context, restaurantID *primitive.ObjectID) ([]*models.Coupon, error)

	// Administration
	CreateCoupon(ctx context.Context, actor models.Actor, coupon *models.Coupon) (*models.Coupon, error)
	UpdateCoupon(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.Coupon, error)
	DeactivateCoupon(ctx context.Context, id primitive.ObjectID) (*models.Coupon, error)
	GetCoupon(ctx context.Context, id primitive.ObjectID) (*models.Coupon, error)
	ListCoupons(ctx context.Context, activeOnly bool, params *utils.PaginationParams) ([]*models.Coupon, int64, error)
}

type couponService struct {
	couponRepo interfaces.CouponRepository
	userRepo   interfaces.UserRepository
	orderRepo  interfaces.OrderRepository
	logger     *logger.Logger
	now        func() time.Time
}

func NewCouponService(couponRepo interfaces.CouponRepository, userRepo interfaces.UserRepository, orderRepo interfaces.OrderRepository, log *logger.Logger) CouponService {
	if log == nil {
		log = logger.NewNop()
	}
	return &couponService{
		couponRepo: couponRepo,
		userRepo:   userRepo,
		orderRepo:  orderRepo,
		logger:     log,
		now:        time.Now,
	}
}

// CalculateDiscount returns the discount for orderValue, clamped to
// [0, orderValue], and the amount left to pay.
func CalculateDiscount(coupon *models.Coupon, orderValue float64) (discount, final decimal.Decimal) {
	value := utils.Money(orderValue)
	if value.IsNegative() {
		value = decimal.Zero
	}

	switch coupon.DiscountType {
	case models.DiscountTypePercentage:
		discount = utils.Percent(value, coupon.DiscountValue)
		if coupon.MaxDiscountAmount != nil {
			discount = utils.ClampAmount(discount, utils.Money(*coupon.MaxDiscountAmount))
		}
	case models.DiscountTypeFixed:
		discount = utils.Money(coupon.DiscountValue)
	default:
		discount = decimal.Zero
	}

	discount = utils.ClampAmount(discount, value).Round(2)
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	final = value.Sub(discount)
	if final.IsNegative() {
		final = decimal.Zero
	}
	return discount, final.Round(2)
}

func (s *couponService) Validate(ctx context.Context, code string, userID primitive.ObjectID, orderValue float64, restaurantID *primitive.ObjectID) (*models.CouponQuote, error) {
	coupon, err := s.check(ctx, code, userID, orderValue, restaurantID)
	if err != nil {
		return nil, err
	}

	discount, final := CalculateDiscount(coupon, orderValue)
	return &models.CouponQuote{
		CouponID:       coupon.ID,
		Code:           coupon.Code,
		DiscountAmount: utils.ToAmount(discount),
		FinalAmount:    utils.ToAmount(final),
	}, nil
}

// check runs the eligibility rules in order and stops at the first failure.
func (s *couponService) check(ctx context.Context, code string, userID primitive.ObjectID, orderValue float64, restaurantID *primitive.ObjectID) (*models.Coupon, error) {
	coupon, err := s.couponRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !coupon.IsActive {
		return nil, utils.ErrCouponInactive
	}

	now := s.now()
	if now.Before(coupon.StartDate) {
		return nil, utils.ErrCouponNotStarted
	}
	if now.After(coupon.EndDate) {
		return nil, utils.ErrCouponExpired
	}
	if coupon.UsageLimit.Total > 0 && coupon.UsageCount >= coupon.UsageLimit.Total {
		return nil, utils.ErrCouponExhausted
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if coupon.UsageLimit.PerUser > 0 && user.CouponUsageCount(coupon.ID) >= coupon.UsageLimit.PerUser {
		return nil, utils.ErrCouponUserLimit
	}

	if coupon.UserEligibility.NewUsersOnly {
		orders, err := s.orderRepo.CountByCustomer(ctx, userID)
		if err != nil {
			return nil, err
		}
		if orders > 0 {
			return nil, utils.ErrCouponNewUsersOnly
		}
	}

	if orderValue < coupon.MinOrderValue {
		return nil, utils.ErrCouponMinOrder.WithMessage(
			"order value is below the coupon minimum of " + utils.Money(coupon.MinOrderValue).StringFixed(2))
	}

	if len(coupon.ApplicableRestaurants) > 0 && (restaurantID == nil || !coupon.AppliesTo(*restaurantID)) {
		return nil, utils.ErrCouponRestaurant
	}

	return coupon, nil
}

func (s *couponService) Apply(ctx context.Context, code string, userID, orderID primitive.ObjectID, orderValue float64, restaurantID *primitive.ObjectID) (*models.CouponRedemption, error) {
	coupon, err := s.check(ctx, code, userID, orderValue, restaurantID)
	if err != nil {
		return nil, err
	}

	discount, final := CalculateDiscount(coupon, orderValue)
	now := s.now()

	// Both writes are conditional so concurrent applications cannot push the
	// coupon past either limit.
	if err := s.couponRepo.IncrementUsage(ctx, coupon.ID, now); err != nil {
		return nil, err
	}

	use := models.UsedCoupon{
		CouponID:       coupon.ID,
		OrderID:        orderID,
		DiscountAmount: utils.ToAmount(discount),
		UsedAt:         now,
	}
	if err := s.userRepo.RecordCouponUse(ctx, userID, use, coupon.UsageLimit.PerUser); err != nil {
		if decErr := s.couponRepo.DecrementUsage(ctx, coupon.ID); decErr != nil {
			s.logger.WithError(decErr).WithField("coupon_id", coupon.ID.Hex()).Error("Failed to compensate coupon usage")
		}
		return nil, err
	}

	s.logger.LogUserAction(userID, "coupon_applied", map[string]interface{}{
		"coupon":   coupon.Code,
		"order_id": orderID.Hex(),
		"discount": use.DiscountAmount,
	})

	return &models.CouponRedemption{
		CouponID:       coupon.ID,
		Code:           coupon.Code,
		UserID:         userID,
		OrderID:        orderID,
		DiscountAmount: use.DiscountAmount,
		FinalAmount:    utils.ToAmount(final),
		UsedAt:         now,
	}, nil
}

// Release undoes a redemption whose order was never created. The user's entry
// is kept and marked released.
func (s *couponService) Release(ctx context.Context, redemption *models.CouponRedemption) error {
	if err := s.userRepo.ReleaseCouponUse(ctx, redemption.UserID, redemption.CouponID, redemption.OrderID, s.now()); err != nil {
		return err
	}
	return s.couponRepo.DecrementUsage(ctx, redemption.CouponID)
}

func (s *couponService) ListAvailable(ctx context.Context, restaurantID *primitive.ObjectID) ([]*models.Coupon, error) {
	return s.couponRepo.ListAvailable(ctx, s.now(), restaurantID)
}

func (s *couponService) CreateCoupon(ctx context.Context, actor models.Actor, coupon *models.Coupon) (*models.Coupon, error) {
	if !actor.IsAdmin() {
		return nil, utils.ErrNotPermitted
	}
	coupon.Code = strings.ToUpper(strings.TrimSpace(coupon.Code))
	coupon.CreatedBy = actor.ID
	coupon.UsageCount = 0
	if err := validateCouponRules(coupon); err != nil {
		return nil, err
	}

	if err := s.couponRepo.Create(ctx, coupon); err != nil {
		return nil, err
	}

	s.logger.LogUserAction(actor.ID, "coupon_created", map[string]interface{}{"coupon": coupon.Code})
	return coupon, nil
}

func (s *couponService) UpdateCoupon(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.Coupon, error) {
	current, err := s.couponRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := *current
	applyCouponUpdates(&merged, updates)
	if err := validateCouponRules(&merged); err != nil {
		return nil, err
	}

	return s.couponRepo.Update(ctx, id, updates)
}

func (s *couponService) DeactivateCoupon(ctx context.Context, id primitive.ObjectID) (*models.Coupon, error) {
	return s.couponRepo.Update(ctx, id, map[string]interface{}{"is_active": false})
}

func (s *couponService) GetCoupon(ctx context.Context, id primitive.ObjectID) (*models.Coupon, error) {
	return s.couponRepo.GetByID(ctx, id)
}

func (s *couponService) ListCoupons(ctx context.Context, activeOnly bool, params *utils.PaginationParams) ([]*models.Coupon, int64, error) {
	return s.couponRepo.List(ctx, activeOnly, params)
}

func validateCouponRules(c *models.Coupon) error {
	details := map[string]string{}
	if !c.DiscountType.IsValid() {
		details["discount_type"] = "Discount type must be percentage or fixed"
	}
	if c.DiscountValue <= 0 {
		details["discount_value"] = "Discount value must be greater than 0"
	}
	if c.DiscountType == models.DiscountTypePercentage && c.DiscountValue > 100 {
		details["discount_value"] = "Percentage discount cannot exceed 100"
	}
	if !c.EndDate.After(c.StartDate) {
		details["end_date"] = "End date must be after start date"
	}
	if c.UsageLimit.Total < 0 || c.UsageLimit.PerUser < 0 {
		details["usage_limit"] = "Usage limits cannot be negative"
	}
	if len(details) > 0 {
		return utils.NewValidationError(utils.ErrValidationFailed, details)
	}
	return nil
}

func applyCouponUpdates(c *models.Coupon, updates map[string]interface{}) {
	if v, ok := updates["discount_type"].(models.DiscountType); ok {
		c.DiscountType = v
	}
	if v, ok := updates["discount_value"].(float64); ok {
		c.DiscountValue = v
	}
	if v, ok := updates["start_date"].(time.Time); ok {
		c.StartDate = v
	}
	if v, ok := updates["end_date"].(time.Time); ok {
		c.EndDate = v
	}
	if v, ok := updates["usage_limit.total"].(int); ok {
		c.UsageLimit.Total = v
	}
	if v, ok := updates["usage_limit.per_user"].(int); ok {
		c.UsageLimit.PerUser = v
	}
}
