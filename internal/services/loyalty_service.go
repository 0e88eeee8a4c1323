package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"fooddash/internal/models"
	"fooddash/internal/repositories/interfaces"
	"fooddash/internal/utils"
	"fooddash/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	basePointsPerUnit   = 1.0
	expirySweepBatch    = 200
	recentTransactionsN = 10
)

// loyaltyTiers is ordered by MinPoints ascending.
var loyaltyTiers = []models.LoyaltyTier{
	{Level: models.LoyaltyLevelMember, MinPoints: 0, Multiplier: 1},
	{Level: models.LoyaltyLevelBronze, MinPoints: 500, Multiplier: 1.2},
	{Level: models.LoyaltyLevelSilver, MinPoints: 2000, Multiplier: 1.5},
	{Level: models.LoyaltyLevelGold, MinPoints: 5000, Multiplier: 2},
	{Level: models.LoyaltyLevelPlatinum, MinPoints: 10000, Multiplier: 3},
}

var rewardCatalog = []models.Reward{
	{ID: "free_delivery", Name: "Free delivery", Description: "Delivery fee waived on your next order", PointsRequired: 300, Value: 0, Type: models.RewardTypeFreeDelivery},
	{ID: "discount_5", Name: "$5 off", Description: "$5 off your next order", PointsRequired: 500, Value: 5, Type: models.RewardTypeDiscount},
	{ID: "discount_10", Name: "$10 off", Description: "$10 off your next order", PointsRequired: 900, Value: 10, Type: models.RewardTypeDiscount},
	{ID: "discount_25", Name: "$25 off", Description: "$25 off your next order", PointsRequired: 2000, Value: 25, Type: models.RewardTypeDiscount},
}

type LoyaltyService interface {
	EarnPoints(ctx context.Context, userID, orderID primitive.ObjectID, orderTotal float64) (*models.EarnResult, error)
	Redeem(ctx context.Context, userID primitive.ObjectID, rewardID string) (*models.RedeemResult, error)
	ExpirePoints(ctx context.Context, now time.Time) (int, error)

	GetSummary(ctx context.Context, userID primitive.ObjectID) (*models.LoyaltySummary, error)
	ListTransactions(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.LoyaltyTransaction, int64, error)
	Rewards() []models.Reward
	Tiers() []models.LoyaltyTier
}

type loyaltyService struct {
	userRepo    interfaces.UserRepository
	loyaltyRepo interfaces.LoyaltyRepository
	expiry      time.Duration
	logger      *logger.Logger
}

func NewLoyaltyService(userRepo interfaces.UserRepository, loyaltyRepo interfaces.LoyaltyRepository, expiry time.Duration, log *logger.Logger) LoyaltyService {
	if log == nil {
		log = logger.NewNop()
	}
	return &loyaltyService{
		userRepo:    userRepo,
		loyaltyRepo: loyaltyRepo,
		expiry:      expiry,
		logger:      log,
	}
}

// TierFor returns the tier for a lifetime point total.
func TierFor(lifetimePoints int) models.LoyaltyTier {
	tier := loyaltyTiers[0]
	for _, t := range loyaltyTiers {
		if lifetimePoints >= t.MinPoints {
			tier = t
		}
	}
	return tier
}

// PointsFor is floor(orderTotal * base * multiplier).
func PointsFor(orderTotal float64, tier models.LoyaltyTier) int {
	if orderTotal <= 0 {
		return 0
	}
	return int(math.Floor(orderTotal * basePointsPerUnit * tier.Multiplier))
}

func (s *loyaltyService) EarnPoints(ctx context.Context, userID, orderID primitive.ObjectID, orderTotal float64) (*models.EarnResult, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	tier := TierFor(user.LifetimePoints)
	points := PointsFor(orderTotal, tier)

	now := time.Now()
	expiresAt := now.Add(s.expiry)
	tx := &models.LoyaltyTransaction{
		UserID:      userID,
		OrderID:     &orderID,
		Type:        models.LoyaltyTransactionEarned,
		Points:      points,
		Description: fmt.Sprintf("Earned %d points for order", points),
		ExpiresAt:   &expiresAt,
		Metadata: map[string]interface{}{
			"order_total": orderTotal,
			"level":       string(tier.Level),
			"multiplier":  tier.Multiplier,
		},
		CreatedAt: now,
	}

	// The unique (user_id, order_id) index on earned transactions makes the
	// insert the idempotence guard.
	if err := s.loyaltyRepo.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	updated, err := s.userRepo.AddLoyaltyPoints(ctx, userID, points)
	if err != nil {
		if delErr := s.loyaltyRepo.DeleteTransaction(ctx, tx.ID); delErr != nil {
			s.logger.WithError(delErr).WithField("transaction_id", tx.ID.Hex()).Error("Failed to roll back loyalty transaction")
		}
		return nil, fmt.Errorf("failed to credit loyalty points: %w", err)
	}

	s.logger.LogUserAction(userID, "loyalty_points_earned", map[string]interface{}{
		"order_id": orderID.Hex(),
		"points":   points,
	})

	return &models.EarnResult{
		PointsEarned: points,
		TotalPoints:  updated.LoyaltyPoints,
		Level:        TierFor(updated.LifetimePoints).Level,
	}, nil
}

func (s *loyaltyService) Redeem(ctx context.Context, userID primitive.ObjectID, rewardID string) (*models.RedeemResult, error) {
	reward, ok := findReward(rewardID)
	if !ok {
		return nil, utils.ErrRewardNotFound
	}

	updated, err := s.userRepo.DeductLoyaltyPoints(ctx, userID, reward.PointsRequired)
	if err != nil {
		return nil, err
	}

	tx := &models.LoyaltyTransaction{
		UserID:      userID,
		Type:        models.LoyaltyTransactionRedeemed,
		Points:      -reward.PointsRequired,
		Description: "Redeemed " + reward.Name,
		Metadata: map[string]interface{}{
			"reward_id":   reward.ID,
			"reward_type": string(reward.Type),
			"value":       reward.Value,
		},
		CreatedAt: time.Now(),
	}
	if err := s.loyaltyRepo.CreateTransaction(ctx, tx); err != nil {
		if _, refundErr := s.userRepo.RestoreLoyaltyPoints(ctx, userID, reward.PointsRequired); refundErr != nil {
			s.logger.WithError(refundErr).WithField("user_id", userID.Hex()).Error("Failed to refund redeemed points")
		}
		return nil, fmt.Errorf("failed to record redemption: %w", err)
	}

	s.logger.LogUserAction(userID, "loyalty_reward_redeemed", map[string]interface{}{
		"reward_id": reward.ID,
		"points":    reward.PointsRequired,
	})

	return &models.RedeemResult{Reward: reward, RemainingPoints: updated.LoyaltyPoints}, nil
}

func (s *loyaltyService) ExpirePoints(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.loyaltyRepo.FindExpired(ctx, now, expirySweepBatch)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, earned := range expired {
		if err := s.expireOne(ctx, earned, now); err != nil {
			s.logger.WithError(err).WithField("transaction_id", earned.ID.Hex()).Warn("Failed to expire loyalty points")
			continue
		}
		processed++
	}

	if processed > 0 {
		s.logger.WithField("count", processed).Info("Expired loyalty transactions")
	}
	return processed, nil
}

func (s *loyaltyService) expireOne(ctx context.Context, earned *models.LoyaltyTransaction, now time.Time) error {
	claimed, err := s.loyaltyRepo.ClaimExpiry(ctx, earned.ID)
	if err != nil || !claimed {
		return err
	}

	user, err := s.userRepo.GetByID(ctx, earned.UserID)
	if err != nil {
		_ = s.loyaltyRepo.ReleaseExpiry(ctx, earned.ID)
		return err
	}

	points := earned.Points
	if points > user.LoyaltyPoints {
		points = user.LoyaltyPoints
	}
	if points <= 0 {
		return nil
	}

	if _, err := s.userRepo.DeductLoyaltyPoints(ctx, earned.UserID, points); err != nil {
		_ = s.loyaltyRepo.ReleaseExpiry(ctx, earned.ID)
		return err
	}

	return s.loyaltyRepo.CreateTransaction(ctx, &models.LoyaltyTransaction{
		UserID:      earned.UserID,
		OrderID:     earned.OrderID,
		Type:        models.LoyaltyTransactionExpired,
		Points:      -points,
		Description: fmt.Sprintf("%d points expired", points),
		Metadata:    map[string]interface{}{"earned_transaction_id": earned.ID.Hex()},
		CreatedAt:   now,
	})
}

func (s *loyaltyService) GetSummary(ctx context.Context, userID primitive.ObjectID) (*models.LoyaltySummary, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	recent, err := s.loyaltyRepo.Recent(ctx, userID, recentTransactionsN)
	if err != nil {
		return nil, err
	}

	tier := TierFor(user.LifetimePoints)
	summary := &models.LoyaltySummary{
		Points:             user.LoyaltyPoints,
		LifetimePoints:     user.LifetimePoints,
		Level:              tier.Level,
		Multiplier:         tier.Multiplier,
		RecentTransactions: recent,
	}
	if next, ok := nextTier(tier); ok {
		summary.NextLevel = &next.Level
		summary.PointsToNextLevel = next.MinPoints - user.LifetimePoints
	}
	return summary, nil
}

func (s *loyaltyService) ListTransactions(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.LoyaltyTransaction, int64, error) {
	return s.loyaltyRepo.ListByUser(ctx, userID, params)
}

func (s *loyaltyService) Rewards() []models.Reward {
	rewards := make([]models.Reward, len(rewardCatalog))
	copy(rewards, rewardCatalog)
	return rewards
}

func (s *loyaltyService) Tiers() []models.LoyaltyTier {
	tiers := make([]models.LoyaltyTier, len(loyaltyTiers))
	copy(tiers, loyaltyTiers)
	return tiers
}

func findReward(id string) (models.Reward, bool) {
	for _, r := range rewardCatalog {
		if r.ID == id {
			return r, true
		}
	}
	return models.Reward{}, false
}

func nextTier(current models.LoyaltyTier) (models.LoyaltyTier, bool) {
	for _, t := range loyaltyTiers {
		if t.MinPoints > current.MinPoints {
			return t, true
		}
	}
	return models.LoyaltyTier{}, false
}

// IsAlreadyEarned reports whether err is the duplicate-earn guard firing.
func IsAlreadyEarned(err error) bool {
	return errors.Is(err, utils.ErrAlreadyEarned)
}
